// Package report renders sync results as one human-readable line per target.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/schaermu/versync/internal/manifest"
)

// ColorMode selects when report output is coloured
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Writer prints results to an output stream
type Writer struct {
	out   io.Writer
	color bool
	// PathFunc maps a result path to the form shown in the report.
	PathFunc func(string) string
	// ShowDiff prints the diff of dry-run results below their line.
	ShowDiff bool

	updated   *color.Color
	unchanged *color.Color
	failed    *color.Color
}

// NewWriter creates a Writer for out. With ColorAuto colours are used only
// when out is a terminal.
func NewWriter(out io.Writer, mode ColorMode) *Writer {
	enabled := false
	switch mode {
	case ColorAlways:
		enabled = true
	case ColorAuto:
		enabled = isTerminal(out)
	}

	w := &Writer{
		out:       out,
		color:     enabled,
		updated:   color.New(color.FgGreen),
		unchanged: color.New(color.Faint),
		failed:    color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{w.updated, w.unchanged, w.failed} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return w
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Write prints one line per result, in order
func (w *Writer) Write(results []manifest.Result) error {
	for _, res := range results {
		if _, err := fmt.Fprintln(w.out, w.line(res)); err != nil {
			return err
		}
		if w.ShowDiff && res.Diff != "" {
			if _, err := io.WriteString(w.out, indent(res.Diff)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) line(res manifest.Result) string {
	path := res.Path
	if w.PathFunc != nil {
		path = w.PathFunc(path)
	}

	switch res.Status {
	case manifest.StatusUpdated:
		line := fmt.Sprintf("%s: %s -> %s", path, res.Previous, res.New)
		if res.DryRun {
			line += " (dry run)"
		}
		return w.updated.Sprint(line)
	case manifest.StatusUnchanged:
		return w.unchanged.Sprintf("%s: unchanged (%s)", path, res.New)
	default:
		return w.failed.Sprintf("%s: FAILED (%s)", path, Reason(res.Err))
	}
}

// Line formats a single result without colour:
//
//	<path>: <previous> -> <new>
//	<path>: unchanged (<value>)
//	<path>: FAILED (<reason>)
func Line(res manifest.Result) string {
	return NewWriter(io.Discard, ColorNever).line(res)
}

// Reason returns a short description of err naming its failure kind
func Reason(err error) string {
	if err == nil {
		return "unknown error"
	}

	var (
		notFound  *manifest.NotFoundError
		parse     *manifest.ParseError
		missing   *manifest.MissingFieldError
		ambiguous *manifest.AmbiguousFieldError
		write     *manifest.WriteError
	)
	switch {
	case errors.As(err, &notFound):
		return "NotFoundError: file does not exist"
	case errors.As(err, &parse):
		if parse.Err != nil {
			return fmt.Sprintf("ParseError: %s: %v", parse.Reason, parse.Err)
		}
		return "ParseError: " + parse.Reason
	case errors.As(err, &missing):
		return fmt.Sprintf("MissingFieldError: field %q not found", missing.Field)
	case errors.As(err, &ambiguous):
		return fmt.Sprintf("AmbiguousFieldError: field %q matched lines %v", ambiguous.Field, ambiguous.Lines)
	case errors.As(err, &write):
		return fmt.Sprintf("WriteError: %v", write.Err)
	default:
		return err.Error()
	}
}

// HasFailures reports whether any result failed
func HasFailures(results []manifest.Result) bool {
	for _, res := range results {
		if res.Status != manifest.StatusUpdated && res.Status != manifest.StatusUnchanged {
			return true
		}
	}
	return false
}

// HasDrift reports whether any result changed or would change its target
func HasDrift(results []manifest.Result) bool {
	for _, res := range results {
		if res.Status == manifest.StatusUpdated {
			return true
		}
	}
	return false
}

func indent(diff string) string {
	var sb strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		sb.WriteString("    ")
		sb.WriteString(line)
	}
	return sb.String()
}

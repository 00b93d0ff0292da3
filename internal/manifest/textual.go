package manifest

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// SyntaxTOML marks a textual target that must stay a valid TOML document
const SyntaxTOML = "toml"

var (
	basicEscaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	basicUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`)
)

// TextPatcher replaces the quoted value of a single `field = "value"` line
// in a line-oriented manifest. Nothing but the bytes between the quotes is
// touched.
type TextPatcher struct {
	// Syntax optionally names the document syntax to verify before and
	// after patching. Only SyntaxTOML is recognized.
	Syntax string
	// DryRun computes the change and its diff without writing.
	DryRun bool
}

// assignmentPattern matches `field = "value"` at the start of a line,
// ignoring leading spaces and tabs. Submatch 1 is the raw quoted value.
func assignmentPattern(field string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(field) + `[ \t]*=[ \t]*"((?:[^"\\\r\n]|\\.)*)"`)
}

// Apply implements Patcher
func (p *TextPatcher) Apply(path, field, value string) Result {
	res := Result{Path: path, Field: field, New: value, DryRun: p.DryRun}

	if err := checkFieldName(field); err != nil {
		return res.fail(err)
	}

	data, err := readManifest(path)
	if err != nil {
		return res.fail(err)
	}
	if err := p.verify(path, data); err != nil {
		return res.fail(err)
	}

	matches := assignmentPattern(field).FindAllSubmatchIndex(data, -1)
	switch len(matches) {
	case 0:
		return res.fail(&MissingFieldError{Path: path, Field: field})
	case 1:
	default:
		lines := make([]int, 0, len(matches))
		for _, m := range matches {
			lines = append(lines, bytes.Count(data[:m[0]], []byte("\n"))+1)
		}
		return res.fail(&AmbiguousFieldError{Path: path, Field: field, Lines: lines})
	}

	start, end := matches[0][2], matches[0][3]
	res.Previous = basicUnescaper.Replace(string(data[start:end]))
	if res.Previous == value {
		res.Status = StatusUnchanged
		return res
	}

	escaped := basicEscaper.Replace(value)
	out := make([]byte, 0, len(data)-(end-start)+len(escaped))
	out = append(out, data[:start]...)
	out = append(out, escaped...)
	out = append(out, data[end:]...)

	if err := p.verify(path, out); err != nil {
		return res.fail(err)
	}

	return commit(res, path, data, out)
}

// verify checks data against the declared syntax, if any
func (p *TextPatcher) verify(path string, data []byte) error {
	if p.Syntax != SyntaxTOML {
		return nil
	}
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return &ParseError{Path: path, Reason: "invalid TOML", Err: err}
	}
	return nil
}

package report

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/schaermu/versync/internal/manifest"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		res  manifest.Result
		want string
	}{
		{
			name: "updated",
			res:  manifest.Result{Path: "src-tauri/tauri.conf.json", Previous: "1.1.0", New: "1.2.0", Status: manifest.StatusUpdated},
			want: "src-tauri/tauri.conf.json: 1.1.0 -> 1.2.0",
		},
		{
			name: "updated dry run",
			res:  manifest.Result{Path: "Cargo.toml", Previous: "1.1.0", New: "1.2.0", Status: manifest.StatusUpdated, DryRun: true},
			want: "Cargo.toml: 1.1.0 -> 1.2.0 (dry run)",
		},
		{
			name: "unchanged",
			res:  manifest.Result{Path: "Cargo.toml", Previous: "1.2.0", New: "1.2.0", Status: manifest.StatusUnchanged},
			want: "Cargo.toml: unchanged (1.2.0)",
		},
		{
			name: "ambiguous",
			res: manifest.Result{Path: "Cargo.toml", New: "1.2.0", Status: manifest.StatusFailed,
				Err: &manifest.AmbiguousFieldError{Path: "Cargo.toml", Field: "version", Lines: []int{3, 9}}},
			want: `Cargo.toml: FAILED (AmbiguousFieldError: field "version" matched lines [3 9])`,
		},
		{
			name: "pending is reported as failure",
			res:  manifest.Result{Path: "x.json"},
			want: "x.json: FAILED (unknown error)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.res); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: &manifest.NotFoundError{Path: "a", Err: fs.ErrNotExist}, want: "NotFoundError: file does not exist"},
		{err: &manifest.ParseError{Path: "a", Reason: "invalid JSON"}, want: "ParseError: invalid JSON"},
		{err: &manifest.ParseError{Path: "a", Reason: "invalid TOML", Err: errors.New("bad key")}, want: "ParseError: invalid TOML: bad key"},
		{err: &manifest.MissingFieldError{Path: "a", Field: "version"}, want: `MissingFieldError: field "version" not found`},
		{err: &manifest.WriteError{Path: "a", Err: fs.ErrPermission}, want: "WriteError: permission denied"},
		{err: errors.New("boom"), want: "boom"},
		{err: nil, want: "unknown error"},
	}

	for _, tt := range tests {
		if got := Reason(tt.err); got != tt.want {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestWriter(t *testing.T) {
	root := filepath.FromSlash("/project")
	results := []manifest.Result{
		{Path: filepath.Join(root, "src-tauri", "tauri.conf.json"), Previous: "1.1.0", New: "1.2.0", Status: manifest.StatusUpdated,
			DryRun: true, Diff: "-  \"version\": \"1.1.0\",\n+  \"version\": \"1.2.0\",\n"},
		{Path: filepath.Join(root, "src-tauri", "Cargo.toml"), New: "1.2.0", Status: manifest.StatusFailed,
			Err: &manifest.MissingFieldError{Field: "version"}},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf, ColorNever)
	w.ShowDiff = true
	w.PathFunc = func(p string) string {
		rel, _ := filepath.Rel(root, p)
		return filepath.ToSlash(rel)
	}

	if err := w.Write(results); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := strings.Join([]string{
		"src-tauri/tauri.conf.json: 1.1.0 -> 1.2.0 (dry run)",
		"    -  \"version\": \"1.1.0\",",
		"    +  \"version\": \"1.2.0\",",
		`src-tauri/Cargo.toml: FAILED (MissingFieldError: field "version" not found)`,
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("unexpected report:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriter_Color(t *testing.T) {
	res := manifest.Result{Path: "a.json", Previous: "1", New: "2", Status: manifest.StatusUpdated}

	var plain bytes.Buffer
	if err := NewWriter(&plain, ColorAuto).Write([]manifest.Result{res}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain.String(), "\x1b[") {
		t.Error("auto mode must not colour non-terminal output")
	}

	var colored bytes.Buffer
	if err := NewWriter(&colored, ColorAlways).Write([]manifest.Result{res}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Error("always mode must emit colour codes")
	}
	if !strings.Contains(colored.String(), "a.json: 1 -> 2") {
		t.Errorf("coloured line lost its text: %q", colored.String())
	}
}

func TestHasFailuresAndDrift(t *testing.T) {
	ok := []manifest.Result{{Status: manifest.StatusUnchanged}, {Status: manifest.StatusUnchanged}}
	if HasFailures(ok) || HasDrift(ok) {
		t.Error("all unchanged results should have neither failures nor drift")
	}

	updated := []manifest.Result{{Status: manifest.StatusUpdated}, {Status: manifest.StatusUnchanged}}
	if HasFailures(updated) {
		t.Error("updated results are not failures")
	}
	if !HasDrift(updated) {
		t.Error("updated results are drift")
	}

	failed := []manifest.Result{{Status: manifest.StatusUpdated}, {Status: manifest.StatusFailed}}
	if !HasFailures(failed) {
		t.Error("expected failure to be detected")
	}

	if HasFailures(nil) {
		t.Error("no results means no failures")
	}
}

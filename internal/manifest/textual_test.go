package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cargoToml = `# Desktop shell
[package]
name = "x"
version = "1.1.0"   # kept in sync with package.json
description = "A Tauri App"
authors = ["you"]
edition = "2021"

[lib]
name = "x_lib"
crate-type = ["staticlib", "cdylib", "rlib"]

[dependencies]
tauri = { version = "2", features = [] }
serde = { version = "1", features = ["derive"] }
# version = "0.0.0"
`

func TestTextPatcher_Updates(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "Cargo.toml", cargoToml)

	res := (&TextPatcher{Syntax: SyntaxTOML}).Apply(path, "version", "1.2.0")
	if res.Status != StatusUpdated {
		t.Fatalf("expected updated, got %s (%v)", res.Status, res.Err)
	}
	if res.Previous != "1.1.0" {
		t.Errorf("expected previous 1.1.0, got %q", res.Previous)
	}

	want := strings.Replace(cargoToml, `version = "1.1.0"`, `version = "1.2.0"`, 1)
	if got := readFile(t, path); got != want {
		t.Errorf("unexpected content:\n%s", got)
	}
	assertNoTempFiles(t, tmpDir)
}

func TestTextPatcher_PreservesOtherLines(t *testing.T) {
	tmpDir := t.TempDir()
	content := "  # leading comment\n\tname   =   \"x\"\n  version=\"0.1.0\"\t# trailing\n\nlicense = \"MIT\"\n"
	path := writeFile(t, tmpDir, "manifest.txt", content)

	res := (&TextPatcher{}).Apply(path, "version", "0.2.0")
	if res.Status != StatusUpdated {
		t.Fatalf("expected updated, got %s (%v)", res.Status, res.Err)
	}

	before := strings.Split(content, "\n")
	after := strings.Split(readFile(t, path), "\n")
	if len(before) != len(after) {
		t.Fatalf("line count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if i == 2 {
			if after[i] != "  version=\"0.2.0\"\t# trailing" {
				t.Errorf("unexpected patched line %q", after[i])
			}
			continue
		}
		if before[i] != after[i] {
			t.Errorf("line %d changed: %q -> %q", i+1, before[i], after[i])
		}
	}
}

func TestTextPatcher_CRLF(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[package]\r\nname = \"x\"\r\nversion = \"1.0.0\"\r\n"
	path := writeFile(t, tmpDir, "Cargo.toml", content)

	if res := (&TextPatcher{Syntax: SyntaxTOML}).Apply(path, "version", "1.0.1"); res.Status != StatusUpdated {
		t.Fatalf("expected updated, got %s (%v)", res.Status, res.Err)
	}
	want := "[package]\r\nname = \"x\"\r\nversion = \"1.0.1\"\r\n"
	if got := readFile(t, path); got != want {
		t.Errorf("expected CRLF line endings to be kept, got %q", got)
	}
}

func TestTextPatcher_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "Cargo.toml", cargoToml)

	p := &TextPatcher{}
	if res := p.Apply(path, "version", "1.2.0"); res.Status != StatusUpdated {
		t.Fatalf("first run: expected updated, got %s (%v)", res.Status, res.Err)
	}
	first := readFile(t, path)

	res := p.Apply(path, "version", "1.2.0")
	if res.Status != StatusUnchanged {
		t.Fatalf("second run: expected unchanged, got %s (%v)", res.Status, res.Err)
	}
	if got := readFile(t, path); got != first {
		t.Error("file content changed on second run")
	}
}

func TestTextPatcher_Ambiguous(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[package]\nversion = \"1.0.0\"\n\n[workspace.package]\nversion = \"1.0.0\"\n"
	path := writeFile(t, tmpDir, "Cargo.toml", content)

	res := (&TextPatcher{}).Apply(path, "version", "2.0.0")
	if res.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", res.Status)
	}
	var ae *AmbiguousFieldError
	if !errors.As(res.Err, &ae) {
		t.Fatalf("expected AmbiguousFieldError, got %v", res.Err)
	}
	if len(ae.Lines) != 2 || ae.Lines[0] != 2 || ae.Lines[1] != 5 {
		t.Errorf("unexpected matched lines %v", ae.Lines)
	}
	if got := readFile(t, path); got != content {
		t.Error("ambiguous file must be left untouched")
	}
}

func TestTextPatcher_Missing(t *testing.T) {
	tmpDir := t.TempDir()

	for name, content := range map[string]string{
		"absent":       "name = \"x\"\n",
		"commented":    "# version = \"1.0.0\"\n",
		"inline table": "tauri = { version = \"2\" }\n",
		"prefix only":  "version_code = \"3\"\n",
		"unquoted":     "version = 3\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, tmpDir, "manifest.txt", content)
			res := (&TextPatcher{}).Apply(path, "version", "1.0.0")
			var mf *MissingFieldError
			if res.Status != StatusFailed || !errors.As(res.Err, &mf) {
				t.Fatalf("expected MissingFieldError, got %s (%v)", res.Status, res.Err)
			}
		})
	}
}

func TestTextPatcher_EscapesValue(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "manifest.txt", "version = \"1.0.0\"\n")

	p := &TextPatcher{Syntax: SyntaxTOML}
	if res := p.Apply(path, "version", `1.0.0 "quoted" \ build`); res.Status != StatusUpdated {
		t.Fatalf("expected updated, got %s (%v)", res.Status, res.Err)
	}
	if got := readFile(t, path); got != `version = "1.0.0 \"quoted\" \\ build"`+"\n" {
		t.Errorf("unexpected content %q", got)
	}

	res := p.Apply(path, "version", `1.0.0 "quoted" \ build`)
	if res.Status != StatusUnchanged {
		t.Fatalf("expected escaped value to compare equal, got %s (%v)", res.Status, res.Err)
	}
}

func TestTextPatcher_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[package\nversion = \"1.0.0\"\n"
	path := writeFile(t, tmpDir, "Cargo.toml", content)

	res := (&TextPatcher{Syntax: SyntaxTOML}).Apply(path, "version", "2.0.0")
	var pe *ParseError
	if res.Status != StatusFailed || !errors.As(res.Err, &pe) {
		t.Fatalf("expected ParseError, got %s (%v)", res.Status, res.Err)
	}
	if got := readFile(t, path); got != content {
		t.Error("invalid file must be left untouched")
	}

	// Without a declared syntax the same file is patched line-wise.
	if res := (&TextPatcher{}).Apply(path, "version", "2.0.0"); res.Status != StatusUpdated {
		t.Fatalf("expected updated without syntax check, got %s (%v)", res.Status, res.Err)
	}
}

func TestTextPatcher_NotFound(t *testing.T) {
	res := (&TextPatcher{}).Apply(filepath.Join(t.TempDir(), "Cargo.toml"), "version", "1.0.0")
	var nf *NotFoundError
	if res.Status != StatusFailed || !errors.As(res.Err, &nf) {
		t.Fatalf("expected NotFoundError, got %s (%v)", res.Status, res.Err)
	}
}

func TestTextPatcher_ReadOnlyDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "Cargo.toml", cargoToml)
	if err := os.Chmod(tmpDir, 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Chmod(tmpDir, 0755)
	})

	res := (&TextPatcher{}).Apply(path, "version", "1.2.0")
	var we *WriteError
	if res.Status != StatusFailed || !errors.As(res.Err, &we) {
		t.Fatalf("expected WriteError, got %s (%v)", res.Status, res.Err)
	}
	if got := readFile(t, path); got != cargoToml {
		t.Error("original file must be left untouched")
	}
	assertNoTempFiles(t, tmpDir)
}

func TestTextPatcher_DryRun(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "Cargo.toml", cargoToml)

	res := (&TextPatcher{DryRun: true}).Apply(path, "version", "1.2.0")
	if res.Status != StatusUpdated || !res.DryRun {
		t.Fatalf("expected dry-run update, got %s (%v)", res.Status, res.Err)
	}
	if got := readFile(t, path); got != cargoToml {
		t.Error("dry run must not write")
	}
	if !strings.Contains(res.Diff, `+version = "1.2.0"`) || !strings.Contains(res.Diff, `-version = "1.1.0"`) {
		t.Errorf("unexpected diff:\n%s", res.Diff)
	}
}

//go:build integration

package tier1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/schaermu/versync/internal/testutil"
)

const defaultTimeout = 2 * time.Minute

// Harness builds the versync binary once and runs it against copies of the
// project fixtures in testdata/.
type Harness struct {
	t      *testing.T
	binary string
}

// NewHarness creates a new test harness
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	return &Harness{t: t}
}

// BuildBinary compiles cmd/versync into a temp dir
func (h *Harness) BuildBinary(ctx context.Context) error {
	h.t.Helper()

	projectRoot, err := testutil.FindProjectRoot()
	if err != nil {
		return fmt.Errorf("get project root: %w", err)
	}

	h.binary = filepath.Join(h.t.TempDir(), "versync")
	h.t.Logf("Building %s", h.binary)

	cmd := exec.CommandContext(ctx, "go", "build", "-o", h.binary, "./cmd/versync")
	cmd.Dir = projectRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("go build: %w: %s", err, out)
	}
	return nil
}

// Project copies the named fixture into a fresh temp dir and returns it
func (h *Harness) Project(name string) string {
	h.t.Helper()

	src, err := testutil.Fixture(name)
	if err != nil {
		h.t.Fatalf("fixture: %v", err)
	}
	dst := filepath.Join(h.t.TempDir(), name)
	if err := testutil.CopyTree(src, dst); err != nil {
		h.t.Fatalf("copy fixture: %v", err)
	}
	return dst
}

// Run executes versync in dir and returns stdout, stderr and the exit code
func (h *Harness) Run(ctx context.Context, dir string, args ...string) (string, string, int) {
	h.t.Helper()
	if h.binary == "" {
		h.t.Fatal("binary not built")
	}

	cmd := exec.CommandContext(ctx, h.binary, append([]string{"--color", "never"}, args...)...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			h.t.Fatalf("run versync: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}

	h.t.Logf("versync %s (exit %d)\nstdout:\n%s\nstderr:\n%s",
		strings.Join(args, " "), exitCode, stdout.String(), stderr.String())
	return stdout.String(), stderr.String(), exitCode
}

// ReadFile returns the content of a project file
func (h *Harness) ReadFile(dir, rel string) string {
	h.t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		h.t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// Snapshot reads every given project file
func (h *Harness) Snapshot(dir string, rels ...string) map[string]string {
	h.t.Helper()
	files := make(map[string]string, len(rels))
	for _, rel := range rels {
		files[rel] = h.ReadFile(dir, rel)
	}
	return files
}

// AssertNoTempFiles fails the test if any atomic-write temp file is left
func (h *Harness) AssertNoTempFiles(dir string) {
	h.t.Helper()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".versync-tmp-") {
			h.t.Errorf("temporary file left behind: %s", path)
		}
		return nil
	})
	if err != nil {
		h.t.Fatal(err)
	}
}

func writeProjectFile(dir, rel, content string) error {
	return os.WriteFile(filepath.Join(dir, filepath.FromSlash(rel)), []byte(content), 0644)
}

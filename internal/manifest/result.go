package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
)

// Status is the outcome of synchronizing one target file
type Status int

const (
	StatusPending Status = iota
	StatusUpdated
	StatusUnchanged
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusUpdated:
		return "updated"
	case StatusUnchanged:
		return "unchanged"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result describes what happened to a single target file
type Result struct {
	Path     string
	Field    string
	Previous string
	New      string
	Status   Status
	Err      error

	// DryRun is set when the change was computed but not written.
	DryRun bool
	// Diff holds a line diff of the change; only filled in on dry runs.
	Diff string
}

// Patcher updates a single field of one target file
type Patcher interface {
	Apply(path, field, value string) Result
}

func (r Result) fail(err error) Result {
	r.Status = StatusFailed
	r.Err = err
	return r
}

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// ValidFieldName reports whether name can be used as a target field. Only
// plain identifiers are accepted so a field always addresses exactly one
// top-level key.
func ValidFieldName(name string) bool {
	return fieldNameRe.MatchString(name)
}

func checkFieldName(name string) error {
	if !ValidFieldName(name) {
		return fmt.Errorf("invalid field name %q", name)
	}
	return nil
}

// readManifest reads path, mapping a missing file to NotFoundError
func readManifest(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

package manifest

import "fmt"

// NotFoundError reports that a manifest file does not exist
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: file not found", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError reports content that is not valid for its declared format
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: parse error: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: parse error: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingFieldError reports that the expected field is absent
type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: field %q not found", e.Path, e.Field)
}

// AmbiguousFieldError reports that a textual field assignment matched more
// than one line.
type AmbiguousFieldError struct {
	Path  string
	Field string
	Lines []int // 1-based line numbers of every match
}

func (e *AmbiguousFieldError) Error() string {
	return fmt.Sprintf("%s: field %q is ambiguous (matched lines %v)", e.Path, e.Field, e.Lines)
}

// WriteError reports that the atomic replace of a target failed. The target
// is left as it was.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: write failed: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

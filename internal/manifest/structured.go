package manifest

import (
	"bytes"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const defaultIndent = "  "

// StructuredPatcher sets one top-level string field of a JSON document.
//
// An existing field is rewritten in place, so every byte outside its value
// is preserved. A new field is appended to the object and the document is
// re-indented with the indentation found in the source.
type StructuredPatcher struct {
	// RequireField fails the target when the field does not exist yet.
	RequireField bool
	// DryRun computes the change and its diff without writing.
	DryRun bool
}

// Apply implements Patcher
func (p *StructuredPatcher) Apply(path, field, value string) Result {
	res := Result{Path: path, Field: field, New: value, DryRun: p.DryRun}

	if err := checkFieldName(field); err != nil {
		return res.fail(err)
	}

	data, err := readManifest(path)
	if err != nil {
		return res.fail(err)
	}
	if err := validateObject(path, data); err != nil {
		return res.fail(err)
	}

	cur := gjson.GetBytes(data, field)
	switch {
	case !cur.Exists():
		if p.RequireField {
			return res.fail(&MissingFieldError{Path: path, Field: field})
		}
	case cur.Type == gjson.String:
		res.Previous = cur.Str
	default:
		// Non-string values are reported raw and always replaced.
		res.Previous = cur.Raw
	}

	if (!cur.Exists() || cur.Type == gjson.String) && res.Previous == value {
		res.Status = StatusUnchanged
		return res
	}

	out, err := sjson.SetBytes(bytes.Clone(data), field, value)
	if err != nil {
		return res.fail(&ParseError{Path: path, Reason: "failed to set field " + field, Err: err})
	}
	if !cur.Exists() {
		out = pretty.PrettyOptions(out, &pretty.Options{
			Width:  80,
			Indent: detectIndent(data),
		})
	}
	out = normalizeTrailingNewline(out, data)

	return commit(res, path, data, out)
}

// commit writes out over path unless running dry, filling in the final
// status of res.
func commit(res Result, path string, before, after []byte) Result {
	if res.DryRun {
		res.Diff = Diff(string(before), string(after))
		res.Status = StatusUpdated
		return res
	}

	if err := WriteFileAtomic(path, after); err != nil {
		return res.fail(&WriteError{Path: path, Err: err})
	}

	res.Status = StatusUpdated
	return res
}

// detectIndent returns the leading whitespace of the first indented line
func detectIndent(data []byte) string {
	for _, line := range bytes.Split(data, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " \t")
		if len(trimmed) == 0 || len(trimmed) == len(line) {
			continue
		}
		return string(line[:len(line)-len(trimmed)])
	}
	return defaultIndent
}

// normalizeTrailingNewline ends out with exactly one line terminator, using
// CRLF when the original document did.
func normalizeTrailingNewline(out, original []byte) []byte {
	eol := []byte("\n")
	if bytes.HasSuffix(original, []byte("\r\n")) {
		eol = []byte("\r\n")
	}
	out = bytes.TrimRight(out, "\r\n")
	return append(out, eol...)
}

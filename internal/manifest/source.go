// Package manifest reads and updates the version field of project manifests.
//
// The canonical manifest is a JSON document whose top-level "version" field
// is the source of truth. Targets are either JSON documents, patched through
// a narrow get/set on one top-level key, or line-oriented key = "value"
// manifests, patched by replacing the quoted value of exactly one line.
package manifest

import (
	"github.com/Masterminds/semver/v3"
	"github.com/tidwall/gjson"
)

// VersionField is the field read from the canonical manifest
const VersionField = "version"

// ReadVersion loads the version string from the canonical manifest at path.
// The value is returned verbatim.
func ReadVersion(path string) (string, error) {
	data, err := readManifest(path)
	if err != nil {
		return "", err
	}

	if err := validateObject(path, data); err != nil {
		return "", err
	}

	res := gjson.GetBytes(data, VersionField)
	if !res.Exists() {
		return "", &MissingFieldError{Path: path, Field: VersionField}
	}
	if res.Type != gjson.String {
		return "", &ParseError{Path: path, Reason: "field \"version\" is not a string"}
	}
	if res.Str == "" {
		return "", &ParseError{Path: path, Reason: "field \"version\" is empty"}
	}

	return res.Str, nil
}

// ReadVersionStrict is ReadVersion plus a check that the value is a strict
// semantic version (MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD]).
func ReadVersionStrict(path string) (string, error) {
	v, err := ReadVersion(path)
	if err != nil {
		return "", err
	}
	if _, err := semver.StrictNewVersion(v); err != nil {
		return "", &ParseError{Path: path, Reason: "version " + v + " is not a semantic version", Err: err}
	}
	return v, nil
}

// validateObject checks that data is well-formed JSON with an object at the
// top level.
func validateObject(path string, data []byte) error {
	if !gjson.ValidBytes(data) {
		return &ParseError{Path: path, Reason: "invalid JSON"}
	}
	if !gjson.ParseBytes(data).IsObject() {
		return &ParseError{Path: path, Reason: "top-level value is not an object"}
	}
	return nil
}

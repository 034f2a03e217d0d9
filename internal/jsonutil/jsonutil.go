// Package jsonutil converts between the Any shape the schema layer works
// with (nil, bool, float64, int64, string, []any, map[string]any) and the
// JSON strings several entity fields are stored as (view.extra, row
// reactions, section metadata).
package jsonutil

import (
	"fmt"

	gojson "github.com/goccy/go-json"
)

// ToJSON marshals v to a compact JSON string.
func ToJSON(v any) (string, error) {
	b, err := gojson.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("jsonutil: marshal %T: %w", v, err)
	}
	return string(b), nil
}

// MustToJSON marshals v, returning "" on failure. Used where a field is
// genuinely optional and a bad value shouldn't abort the caller.
func MustToJSON(v any) string {
	s, err := ToJSON(v)
	if err != nil {
		return ""
	}
	return s
}

// FromJSON parses s into the generic Any shape. An empty string yields
// nil, nil rather than an error: most of these fields are optional.
func FromJSON(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	var v any
	if err := gojson.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("jsonutil: unmarshal: %w", err)
	}
	return v, nil
}

// Into parses s directly into dst. A blank s is a no-op.
func Into(s string, dst any) error {
	if s == "" {
		return nil
	}
	if err := gojson.Unmarshal([]byte(s), dst); err != nil {
		return fmt.Errorf("jsonutil: unmarshal into %T: %w", dst, err)
	}
	return nil
}

// Package schema validates the shape of decoded JSON request payloads
// before they are coerced into typed inputs.
package schema

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// JSON type names, as in JSON Schema.
const (
	Null    = "null"
	Boolean = "boolean"
	Number  = "number"
	String  = "string"
	Array   = "array"
	Object  = "object"
)

// Schema is a small subset of JSON Schema (draft-07):
// type unions, properties, additionalProperties, items and maxLength.
type Schema struct {
	// Types lists the accepted JSON types. Empty accepts anything.
	Types []string

	Properties map[string]*Schema
	// Closed rejects object fields missing from Properties.
	Closed bool

	Items *Schema

	// MaxLength bounds string length in characters; 0 means unbounded.
	MaxLength int
}

// Validate checks value, as produced by encoding/json, against s.
// A nil schema accepts everything.
func Validate(s *Schema, value any) error {
	if s == nil {
		return nil
	}
	return validateValue(s, value, "$")
}

func validateValue(s *Schema, value any, path string) error {
	actual := jsonType(value)
	if len(s.Types) > 0 && !slices.Contains(s.Types, actual) {
		return fmt.Errorf("%s: expected %s, got %s", path, strings.Join(s.Types, " or "), actual)
	}

	switch v := value.(type) {
	case map[string]any:
		return validateObject(s, v, path)
	case []any:
		return validateArray(s, v, path)
	case string:
		return validateString(s, v, path)
	}
	return nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return Null
	case map[string]any:
		return Object
	case []any:
		return Array
	case string:
		return String
	case bool:
		return Boolean
	case float64, json.Number:
		return Number
	default:
		return fmt.Sprintf("%T", v)
	}
}

func validateObject(s *Schema, obj map[string]any, path string) error {
	// Sorted so the first reported error is stable.
	fields := make([]string, 0, len(obj))
	for field := range obj {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var extra []string
	for _, field := range fields {
		ps, ok := s.Properties[field]
		if !ok {
			extra = append(extra, field)
			continue
		}
		if err := validateValue(ps, obj[field], path+"."+field); err != nil {
			return err
		}
	}
	if s.Closed && len(extra) > 0 {
		return fmt.Errorf("%s: additional properties not allowed: %s", path, strings.Join(extra, ", "))
	}
	return nil
}

func validateArray(s *Schema, arr []any, path string) error {
	if s.Items == nil {
		return nil
	}
	for i, elem := range arr {
		if err := validateValue(s.Items, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func validateString(s *Schema, str string, path string) error {
	n := utf8.RuneCountInString(str)
	if s.MaxLength > 0 && n > s.MaxLength {
		return fmt.Errorf("%s: string length %d is greater than maxLength %d", path, n, s.MaxLength)
	}
	return nil
}

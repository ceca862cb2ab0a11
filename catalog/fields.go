package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// decodeLoose decodes a JSON value keeping numbers as json.Number.
func decodeLoose(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// scalarString renders a JSON scalar the way a form field would carry it.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

// Text is a string field that also accepts JSON numbers and booleans.
// null decodes to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	v, err := decodeLoose(b)
	if err != nil {
		return err
	}
	if v == nil {
		*t = ""
		return nil
	}
	s, ok := scalarString(v)
	if !ok {
		return fmt.Errorf("expected a string, got %s", b)
	}
	*t = Text(s)
	return nil
}

// Trimmed returns t without surrounding whitespace.
func (t Text) Trimmed() string {
	return strings.TrimSpace(string(t))
}

// List is an ordered list of strings. It decodes from a JSON array or from
// a single comma-separated string. A blank string or null decodes to nil,
// which merge treats as "not provided"; an empty array decodes to an empty,
// non-nil list.
type List []string

func (l *List) UnmarshalJSON(b []byte) error {
	v, err := decodeLoose(b)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*l = nil
	case []any:
		out := make(List, 0, len(x))
		for _, item := range x {
			s, ok := scalarString(item)
			if !ok {
				return fmt.Errorf("expected a list of strings, got %s", b)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*l = out
	default:
		s, ok := scalarString(x)
		if !ok {
			return fmt.Errorf("expected a list or a comma-separated string, got %s", b)
		}
		if strings.TrimSpace(s) == "" {
			*l = nil
			return nil
		}
		*l = ParseList(s)
	}
	return nil
}

// ParseList splits a comma-separated string, trimming each part and dropping
// empty ones. Order and duplicates are kept.
func ParseList(s string) List {
	out := List{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (l List) orEmpty() List {
	if l == nil {
		return List{}
	}
	return l
}

// Flag is a 0/1 switch. It decodes true, "1" and 1 as on; every other value,
// including absence, is off.
type Flag int

func (f *Flag) UnmarshalJSON(b []byte) error {
	v, err := decodeLoose(b)
	if err != nil {
		return err
	}
	*f = 0
	switch x := v.(type) {
	case bool:
		if x {
			*f = 1
		}
	case string:
		if x == "1" {
			*f = 1
		}
	case json.Number:
		if n, err := x.Float64(); err == nil && n == 1 {
			*f = 1
		}
	}
	return nil
}

// On reports whether the flag is set.
func (f Flag) On() bool { return f == 1 }

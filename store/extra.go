package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Extra holds the fields of a stored document that its Go type does not
// declare, so a rewrite carries them through unchanged.
type Extra map[string]json.RawMessage

// MarshalWithExtra encodes known, which must encode as a JSON object, and
// appends the extra fields it does not already contain. Known fields keep
// their struct order; extras follow sorted by name.
func MarshalWithExtra(known any, extra Extra) ([]byte, error) {
	b, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(b, &present); err != nil {
		return nil, fmt.Errorf("known fields are not an object: %w", err)
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		if _, ok := present[name]; !ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return b, nil
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	sep := len(present) > 0
	for _, name := range names {
		if sep {
			buf.WriteByte(',')
		}
		sep = true
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(extra[name])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SplitExtra returns the fields of the JSON object b not named in known,
// or nil when there are none.
func SplitExtra(b []byte, known []string) (Extra, error) {
	var all Extra
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

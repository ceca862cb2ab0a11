package store

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Sequence is an append-only collection persisted as a JSON array.
type Sequence[T any] struct {
	db   *DB
	name string
}

// NewSequence returns the list-collection called name.
func NewSequence[T any](db *DB, name string) *Sequence[T] {
	return &Sequence[T]{db: db, name: name}
}

func (s *Sequence[T]) Name() string { return s.name }

// Ensure creates the backing document if it is missing.
func (s *Sequence[T]) Ensure() error {
	return s.db.backend.Ensure(s.name, ArrayShape)
}

// ReadAll loads every entry in insertion order. Anything other than a JSON
// array is treated as an empty sequence; entries that fail to decode into T
// are left out.
func (s *Sequence[T]) ReadAll() ([]T, error) {
	entries, err := s.raw()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entries))
	for i, entry := range entries {
		if isNull(entry) {
			continue
		}
		var doc T
		if err := json.Unmarshal(entry, &doc); err != nil {
			s.db.log.Warn("skipping undecodable entry",
				zap.String("collection", s.name),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

// Append adds doc at the end of the sequence. Existing entries are written
// back byte for byte, whether or not they decode into T.
func (s *Sequence[T]) Append(doc T) error {
	l := s.db.lock(s.name)
	l.Lock()
	defer l.Unlock()

	entries, err := s.raw()
	if err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", s.name, err)
	}
	return s.db.write(s.name, append(entries, b))
}

func (s *Sequence[T]) raw() ([]json.RawMessage, error) {
	raw, err := s.db.read(s.name, ArrayShape)
	if err != nil {
		return nil, err
	}
	entries := make([]json.RawMessage, 0)
	if blank(raw) {
		return entries, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.db.degraded(s.name, err)
		return make([]json.RawMessage, 0), nil
	}
	return entries, nil
}

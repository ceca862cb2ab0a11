package store

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// Documents is a collection's content in stored order.
type Documents[T any] = orderedmap.OrderedMap[string, T]

// Collection is a keyed collection of documents of type T.
type Collection[T any] struct {
	db   *DB
	name string
}

// NewCollection returns the keyed collection called name.
func NewCollection[T any](db *DB, name string) *Collection[T] {
	return &Collection[T]{db: db, name: name}
}

func (c *Collection[T]) Name() string { return c.name }

// Ensure creates the backing document if it is missing.
func (c *Collection[T]) Ensure() error {
	return c.db.backend.Ensure(c.name, ObjectShape)
}

// ReadAll loads the whole collection. A corrupt backing document yields an
// empty collection; entries that fail to decode into T are left out.
func (c *Collection[T]) ReadAll() (*Documents[T], error) {
	snap, err := c.load()
	if err != nil {
		return nil, err
	}
	return snap.docs, nil
}

// snapshot is a decoded collection plus what is needed to write it back
// without losing entries T cannot represent.
type snapshot[T any] struct {
	docs *Documents[T]
	// order is the key order of the stored document.
	order []string
	// opaque holds stored entries that did not decode into T, verbatim.
	opaque map[string]json.RawMessage
}

func (c *Collection[T]) load() (*snapshot[T], error) {
	raw, err := c.db.read(c.name, ObjectShape)
	if err != nil {
		return nil, err
	}
	return c.decode(raw), nil
}

func (c *Collection[T]) decode(raw []byte) *snapshot[T] {
	snap := &snapshot[T]{
		docs:   orderedmap.New[string, T](),
		opaque: map[string]json.RawMessage{},
	}
	if blank(raw) {
		return snap
	}
	entries := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, entries); err != nil {
		c.db.degraded(c.name, err)
		return snap
	}
	for pair := entries.Oldest(); pair != nil; pair = pair.Next() {
		snap.order = append(snap.order, pair.Key)
		if isNull(pair.Value) {
			snap.opaque[pair.Key] = pair.Value
			continue
		}
		var doc T
		if err := json.Unmarshal(pair.Value, &doc); err != nil {
			c.db.log.Warn("keeping undecodable document as is",
				zap.String("collection", c.name),
				zap.String("key", pair.Key),
				zap.Error(err),
			)
			snap.opaque[pair.Key] = pair.Value
			continue
		}
		snap.docs.Set(pair.Key, doc)
	}
	return snap
}

// encode lays the collection out in stored key order: decoded documents
// take their current value, opaque ones are written back untouched and new
// keys follow at the end.
func (snap *snapshot[T]) encode() (*orderedmap.OrderedMap[string, json.RawMessage], error) {
	out := orderedmap.New[string, json.RawMessage]()
	put := func(key string, doc T) error {
		b, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %q: %w", key, err)
		}
		out.Set(key, b)
		return nil
	}
	for _, key := range snap.order {
		if doc, ok := snap.docs.Get(key); ok {
			if err := put(key, doc); err != nil {
				return nil, err
			}
		} else if raw, ok := snap.opaque[key]; ok {
			out.Set(key, raw)
		}
	}
	for pair := snap.docs.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := out.Get(pair.Key); ok {
			continue
		}
		if err := put(pair.Key, pair.Value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// List returns every document in stored order.
func (c *Collection[T]) List() ([]T, error) {
	docs, err := c.ReadAll()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, docs.Len())
	for pair := docs.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out, nil
}

// Get returns the document stored under key.
func (c *Collection[T]) Get(key string) (T, bool, error) {
	var zero T
	docs, err := c.ReadAll()
	if err != nil {
		return zero, false, err
	}
	doc, ok := docs.Get(key)
	if !ok {
		return zero, false, nil
	}
	return doc, true, nil
}

// Update runs fn over the whole collection and rewrites it. Nothing is
// written when fn returns an error. Stored entries that do not decode into
// T are not shown to fn and are written back unchanged.
func (c *Collection[T]) Update(fn func(docs *Documents[T]) error) error {
	l := c.db.lock(c.name)
	l.Lock()
	defer l.Unlock()

	snap, err := c.load()
	if err != nil {
		return err
	}
	if err := fn(snap.docs); err != nil {
		return err
	}
	out, err := snap.encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	return c.db.write(c.name, out)
}

// Upsert stores merge(current, found) under key and returns it. current is
// the zero T when found is false.
func (c *Collection[T]) Upsert(key string, merge func(current T, found bool) (T, error)) (T, error) {
	var out T
	if key == "" {
		return out, Invalid("empty document key")
	}
	err := c.Update(func(docs *Documents[T]) error {
		current, found := docs.Get(key)
		next, err := merge(current, found)
		if err != nil {
			return err
		}
		docs.Set(key, next)
		out = next
		return nil
	})
	return out, err
}

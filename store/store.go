// Package store persists named document collections as whole JSON documents.
//
// A Backend only knows how to create, read and overwrite the raw JSON of a
// collection. Typed access (keyed lookups, upserts, appends) lives in
// Collection and Sequence, which sit on top of any Backend.
package store

// Shape is the JSON container a collection is persisted as.
type Shape int

const (
	// ObjectShape collections serialize as a JSON object keyed by document identity.
	ObjectShape Shape = iota
	// ArrayShape collections serialize as a JSON array, appended to only.
	ArrayShape
)

func (s Shape) String() string {
	if s == ArrayShape {
		return "sequence"
	}
	return "keyed"
}

// Empty returns the JSON text of an empty collection of this shape.
func (s Shape) Empty() []byte {
	if s == ArrayShape {
		return []byte("[]")
	}
	return []byte("{}")
}

// Backend is the interface that all backing stores must implement.
// Each collection is stored and loaded as a single JSON document.
type Backend interface {
	// Ensure creates the backing document for a collection with an empty
	// value of the given shape if it does not exist yet. Calling it again
	// leaves an existing document untouched.
	Ensure(collection string, shape Shape) error

	// ReadAll returns the raw JSON of a collection.
	ReadAll(collection string) ([]byte, error)

	// WriteAll overwrites the whole collection with data.
	WriteAll(collection string, data []byte) error
}

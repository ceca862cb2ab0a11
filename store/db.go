package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Recorder observes collection I/O.
type Recorder interface {
	StoreOp(collection, op string)
	StoreDegraded(collection string)
}

type nopRecorder struct{}

func (nopRecorder) StoreOp(string, string) {}
func (nopRecorder) StoreDegraded(string) {}

// DB hands out typed collections over a Backend and serializes
// read-modify-write cycles per collection name.
type DB struct {
	backend Backend
	log     *zap.Logger
	rec     Recorder

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used to report degraded collections.
func WithLogger(log *zap.Logger) Option {
	return func(db *DB) {
		if log != nil {
			db.log = log
		}
	}
}

// WithRecorder sets the observer notified of every read and write.
func WithRecorder(rec Recorder) Option {
	return func(db *DB) {
		if rec != nil {
			db.rec = rec
		}
	}
}

// Open wraps backend. It performs no I/O.
func Open(backend Backend, opts ...Option) *DB {
	db := &DB{
		backend: backend,
		log:     zap.NewNop(),
		rec:     nopRecorder{},
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Backend returns the underlying backend.
func (db *DB) Backend() Backend {
	return db.backend
}

func (db *DB) lock(collection string) *sync.Mutex {
	db.mu.Lock()
	defer db.mu.Unlock()
	l, ok := db.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		db.locks[collection] = l
	}
	return l
}

func (db *DB) read(collection string, shape Shape) ([]byte, error) {
	if err := db.backend.Ensure(collection, shape); err != nil {
		return nil, fmt.Errorf("ensure %s: %w", collection, err)
	}
	raw, err := db.backend.ReadAll(collection)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	db.rec.StoreOp(collection, "read")
	return raw, nil
}

func (db *DB) write(collection string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := db.backend.WriteAll(collection, b); err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	db.rec.StoreOp(collection, "write")
	return nil
}

// degraded records a backing document that could not be parsed. The
// collection is served as empty and the next write replaces the document.
func (db *DB) degraded(collection string, err error) {
	db.rec.StoreDegraded(collection)
	db.log.Warn("collection is corrupt, serving it as empty",
		zap.String("collection", collection),
		zap.Error(err),
	)
}

func blank(raw []byte) bool {
	return len(bytes.TrimSpace(raw)) == 0
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

package store_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/vitrine/store"
)

type note struct {
	Title string `json:"title"`
	Count int    `json:"count,omitempty"`
}

type recorder struct {
	mu       sync.Mutex
	ops      map[string]int
	degraded map[string]int
}

func newRecorder() *recorder {
	return &recorder{ops: map[string]int{}, degraded: map[string]int{}}
}

func (r *recorder) StoreOp(collection, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[collection+"/"+op]++
}

func (r *recorder) StoreDegraded(collection string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded[collection]++
}

func TestCollectionUpsertRoundTrip(t *testing.T) {
	db := store.Open(store.NewMemoryStore())
	notes := store.NewCollection[note](db, "notes")

	got, err := notes.Upsert("k1", func(current note, found bool) (note, error) {
		assert.False(t, found)
		return note{Title: "hello", Count: 1}, nil
	})
	require.NoError(t, err)

	read, found, err := notes.Get("k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, got, read)

	got, err = notes.Upsert("k1", func(current note, found bool) (note, error) {
		assert.True(t, found)
		current.Count++
		return current, nil
	})
	require.NoError(t, err)
	assert.Equal(t, note{Title: "hello", Count: 2}, got)
}

func TestCollectionUpsertErrorWritesNothing(t *testing.T) {
	db := store.Open(store.NewMemoryStore())
	notes := store.NewCollection[note](db, "notes")

	boom := errors.New("boom")
	_, err := notes.Upsert("k1", func(note, bool) (note, error) {
		return note{}, boom
	})
	require.ErrorIs(t, err, boom)

	_, found, err := notes.Get("k1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCollectionUpsertRejectsEmptyKey(t *testing.T) {
	db := store.Open(store.NewMemoryStore())
	notes := store.NewCollection[note](db, "notes")

	_, err := notes.Upsert("", func(note, bool) (note, error) { return note{}, nil })
	var invalid *store.InvalidError
	assert.ErrorAs(t, err, &invalid)
}

func TestCollectionPreservesInsertionOrder(t *testing.T) {
	db := store.Open(store.NewMemoryStore())
	notes := store.NewCollection[note](db, "notes")

	for _, key := range []string{"zeta", "alpha", "mid"} {
		_, err := notes.Upsert(key, func(note, bool) (note, error) {
			return note{Title: key}, nil
		})
		require.NoError(t, err)
	}

	list, err := notes.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "zeta", list[0].Title)
	assert.Equal(t, "alpha", list[1].Title)
	assert.Equal(t, "mid", list[2].Title)
}

func TestCollectionCorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	backend, err := store.NewJsonFileStore(dir)
	require.NoError(t, err)
	rec := newRecorder()
	db := store.Open(backend, store.WithRecorder(rec))
	notes := store.NewCollection[note](db, "notes")

	_, err = notes.Upsert("k1", func(note, bool) (note, error) { return note{Title: "x"}, nil })
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(backend.Path("notes"), []byte("{not json"), 0o644))

	docs, err := notes.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, 0, docs.Len())
	assert.Equal(t, 1, rec.degraded["notes"])

	// The next write replaces the corrupt document.
	_, err = notes.Upsert("k2", func(note, bool) (note, error) { return note{Title: "y"}, nil })
	require.NoError(t, err)
	list, err := notes.List()
	require.NoError(t, err)
	assert.Equal(t, []note{{Title: "y"}}, list)
}

func TestCollectionSkipsBadEntries(t *testing.T) {
	backend := store.NewMemoryStore()
	require.NoError(t, backend.WriteAll("notes", []byte(`{"a":{"title":"ok"},"b":null,"c":"oops"}`)))
	notes := store.NewCollection[note](store.Open(backend), "notes")

	docs, err := notes.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, 1, docs.Len())
	doc, ok := docs.Get("a")
	require.True(t, ok)
	assert.Equal(t, "ok", doc.Title)
}

func TestCollectionEmptyFileIsEmpty(t *testing.T) {
	backend := store.NewMemoryStore()
	require.NoError(t, backend.WriteAll("notes", []byte("")))
	rec := newRecorder()
	notes := store.NewCollection[note](store.Open(backend, store.WithRecorder(rec)), "notes")

	docs, err := notes.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, 0, docs.Len())
	assert.Zero(t, rec.degraded["notes"])
}

func TestCollectionConcurrentUpsertsDoNotLoseUpdates(t *testing.T) {
	dir := t.TempDir()
	backend, err := store.NewJsonFileStore(dir)
	require.NoError(t, err)
	notes := store.NewCollection[note](store.Open(backend), "notes")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			_, err := notes.Upsert(key, func(note, bool) (note, error) {
				return note{Title: key}, nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	docs, err := notes.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, 20, docs.Len())
}

func TestSequenceAppendAndList(t *testing.T) {
	rec := newRecorder()
	db := store.Open(store.NewMemoryStore(), store.WithRecorder(rec))
	entries := store.NewSequence[note](db, "waitlist")

	list, err := entries.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, entries.Append(note{Title: "first"}))
	require.NoError(t, entries.Append(note{Title: "second"}))

	list, err = entries.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []note{{Title: "first"}, {Title: "second"}}, list)
	assert.Equal(t, 2, rec.ops["waitlist/write"])
}

func TestSequenceCoercesObjectToEmpty(t *testing.T) {
	backend := store.NewMemoryStore()
	require.NoError(t, backend.WriteAll("waitlist", []byte(`{"x":1}`)))
	entries := store.NewSequence[note](store.Open(backend), "waitlist")

	list, err := entries.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, entries.Append(note{Title: "fresh"}))
	raw, err := backend.ReadAll("waitlist")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"fresh"}]`, string(raw))
}

func TestCollectionUpdateKeepsUndecodableEntries(t *testing.T) {
	backend := store.NewMemoryStore()
	require.NoError(t, backend.WriteAll("notes", []byte(
		`{"a":{"title":"ok"},"b":{"title":["not","a","string"]},"c":null,"d":{"title":"also ok"}}`)))
	notes := store.NewCollection[note](store.Open(backend), "notes")

	_, err := notes.Upsert("d", func(current note, found bool) (note, error) {
		require.True(t, found)
		current.Count = 7
		return current, nil
	})
	require.NoError(t, err)
	_, err = notes.Upsert("e", func(note, bool) (note, error) { return note{Title: "new"}, nil })
	require.NoError(t, err)

	raw, err := backend.ReadAll("notes")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"a": {"title": "ok"},
		"b": {"title": ["not", "a", "string"]},
		"c": null,
		"d": {"title": "also ok", "count": 7},
		"e": {"title": "new"}
	}`, string(raw))

	// Stored order is kept as well.
	keys := keyOrder(t, raw)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, keys)
}

func TestCollectionUpsertReplacesUndecodableEntry(t *testing.T) {
	backend := store.NewMemoryStore()
	require.NoError(t, backend.WriteAll("notes", []byte(`{"a":"oops","b":{"title":"b"}}`)))
	notes := store.NewCollection[note](store.Open(backend), "notes")

	_, err := notes.Upsert("a", func(current note, found bool) (note, error) {
		assert.False(t, found)
		return note{Title: "fixed"}, nil
	})
	require.NoError(t, err)

	raw, err := backend.ReadAll("notes")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"title":"fixed"},"b":{"title":"b"}}`, string(raw))
	assert.Equal(t, []string{"a", "b"}, keyOrder(t, raw))
}

func TestSequenceAppendKeepsUndecodableEntries(t *testing.T) {
	backend := store.NewMemoryStore()
	require.NoError(t, backend.WriteAll("waitlist", []byte(`[{"title":"old","count":"x"},null,{"title":"kept"}]`)))
	entries := store.NewSequence[note](store.Open(backend), "waitlist")

	list, err := entries.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []note{{Title: "kept"}}, list)

	require.NoError(t, entries.Append(note{Title: "new"}))

	raw, err := backend.ReadAll("waitlist")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"old","count":"x"},null,{"title":"kept"},{"title":"new"}]`, string(raw))
}

func keyOrder(t *testing.T, raw []byte) []string {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	require.NoError(t, err)
	require.Equal(t, json.Delim('{'), tok)
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}
	return keys
}

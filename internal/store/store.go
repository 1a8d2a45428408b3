// Package store provides a json-file backed settings document with
// dotted-path access
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrMissingKey is returned when a path segment does not exist in a mapping
	ErrMissingKey = errors.New("missing key")
	// ErrBadIndex is returned when a path segment is not a valid index into a sequence
	ErrBadIndex = errors.New("bad sequence index")
)

// Store keeps a json document in memory and persists it to a single file.
//
// Paths are dot-separated; each segment indexes a mapping by key or a
// sequence by zero-based position. Writes mutate memory only, Save persists.
type Store struct {
	path string
	m    sync.RWMutex
	doc  map[string]interface{}
}

// New returns store backed by file at given path
func New(path string) *Store {
	return &Store{
		path: path,
	}
}

// Load initializes the document, creating the backing file with given
// defaults when it does not exist yet. Safe to call repeatedly, every call
// replaces the in-memory document wholesale.
func (store *Store) Load(defaults map[string]interface{}) error {
	bs, err := ioutil.ReadFile(store.path)

	switch {
	case os.IsNotExist(err):
		doc := make(map[string]interface{})

		for k, v := range defaults {
			doc[k] = v
		}

		store.m.Lock()
		store.doc = doc
		store.m.Unlock()

		return store.Save()
	case err != nil:
		return err
	}

	doc := make(map[string]interface{})

	dec := json.NewDecoder(bytes.NewReader(bs))
	dec.UseNumber()

	err = dec.Decode(&doc)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", store.path, err)
	}

	store.m.Lock()
	store.doc = doc
	store.m.Unlock()

	return nil
}

// Read walks the document along a dot-separated path.
//
// A mapping consumes the segment as a key, a sequence as a numeric index.
// Reaching a scalar before the path is exhausted stops the walk and returns
// the scalar. An empty path returns a top-level copy of the whole document,
// so iterating it does not race with concurrent writes; nested containers
// are still shared.
func (store *Store) Read(path string) (interface{}, error) {
	store.m.RLock()
	defer store.m.RUnlock()

	if store.doc == nil {
		return nil, nil
	}

	if path == "" {
		doc := make(map[string]interface{}, len(store.doc))

		for k, v := range store.doc {
			doc[k] = v
		}

		return doc, nil
	}

	var value interface{} = store.doc

	for i, seg := range strings.Split(path, ".") {
		switch v := value.(type) {
		case map[string]interface{}:
			next, ok := v[seg]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(strings.Split(path, ".")[:i+1], "."))
			}

			value = next
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("%w: %q in %s", ErrBadIndex, seg, path)
			}

			value = v[idx]
		default:
			return value, nil
		}
	}

	return value, nil
}

// Write assigns value at the final segment of a dot-separated path.
//
// Parent segments must already exist as mappings, missing intermediates are
// an error rather than being created implicitly. Only the top-level document
// is initialized on demand.
func (store *Store) Write(path string, value interface{}) error {
	store.m.Lock()
	defer store.m.Unlock()

	if store.doc == nil {
		store.doc = make(map[string]interface{})
	}

	segs := strings.Split(path, ".")
	last := segs[len(segs)-1]
	parents := segs[:len(segs)-1]

	var sub map[string]interface{} = store.doc

	for i, seg := range parents {
		next, ok := sub[seg]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(segs[:i+1], "."))
		}

		sub, ok = next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%w: %s is not a mapping", ErrMissingKey, strings.Join(segs[:i+1], "."))
		}
	}

	sub[last] = value

	return nil
}

// Save serializes the current document to disk, pretty-printed, replacing
// the file contents
func (store *Store) Save() error {
	store.m.RLock()
	bs, err := json.MarshalIndent(store.doc, "", "  ")
	store.m.RUnlock()

	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(store.path), 0755)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(store.path, bs, 0644)
}

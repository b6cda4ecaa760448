// Package jsontable implements the file-backed JSON collections that make up
// the offline database. Each Table owns a single file holding a JSON array of
// rows of one type.
//
// # Contract
//
// In-memory state is the source of truth between Load and Save: call Load
// before relying on All reflecting disk content, and call Save to persist
// mutations. Mutators only touch memory and mark the table dirty; Save is a
// no-op for a clean table.
//
// # Concurrency
//
// A Table assumes single-goroutine, cooperative access. Two processes writing
// the same file concurrently is unsafe; the design gives each repository
// exclusive ownership of its file.
package jsontable

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/nebularun/internal/common"
)

// rename is a test seam for os.Rename so save atomicity can be exercised.
var rename = os.Rename

type Table[T any] struct {
	path  string
	cache []T
	dirty bool
}

// New builds a table over the given file path. No I/O happens until Load or
// Save is called.
func New[T any](path string) *Table[T] {
	return &Table[T]{path: path}
}

func (t *Table[T]) Path() string { return t.path }

// Load replaces the in-memory collection with the file contents and clears
// the dirty flag. A missing or empty file yields common.ErrNotFound,
// malformed content common.ErrParse.
func (t *Table[T]) Load() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", common.ErrNotFound, t.path)
		}
		return fmt.Errorf("read %s: %w", t.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: %s", common.ErrNotFound, t.path)
	}

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrParse, t.path, err)
	}

	t.cache = rows
	t.dirty = false
	return nil
}

// All returns the in-memory rows. It never triggers a load.
func (t *Table[T]) All() []T { return t.cache }

// First returns the first row, if any.
func (t *Table[T]) First() (T, bool) {
	if len(t.cache) == 0 {
		var zero T
		return zero, false
	}
	return t.cache[0], true
}

// Add appends a row.
func (t *Table[T]) Add(row T) {
	t.cache = append(t.cache, row)
	t.dirty = true
}

// AddUnique appends the row only if an identical one is not already present.
// Identity is structural, via the JSON encoding.
func (t *Table[T]) AddUnique(row T) {
	enc, err := json.Marshal(row)
	if err != nil {
		return
	}
	for _, existing := range t.cache {
		if b, err := json.Marshal(existing); err == nil && bytes.Equal(b, enc) {
			return
		}
	}
	t.cache = append(t.cache, row)
	t.dirty = true
}

// ReplaceAll swaps the whole collection for rows.
func (t *Table[T]) ReplaceAll(rows []T) {
	t.cache = append([]T(nil), rows...)
	t.dirty = true
}

// Clear drops every row from memory.
func (t *Table[T]) Clear() {
	t.cache = nil
	t.dirty = true
}

// Save persists the collection when dirty: the rows are serialized to a
// temporary file which is then renamed over the target, so a partially
// written file is never visible under the real name. Filesystem failures
// wrap common.ErrIO and leave the previous on-disk content intact.
func (t *Table[T]) Save() error {
	if !t.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0o770); err != nil {
		return fmt.Errorf("%w: mkdir: %v", common.ErrIO, err)
	}

	data, err := json.MarshalIndent(t.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", common.ErrIO, err)
	}

	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o660); err != nil {
		return fmt.Errorf("%w: write %s: %v", common.ErrIO, tmp, err)
	}
	if err := rename(tmp, t.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", common.ErrIO, tmp, err)
	}

	t.dirty = false
	return nil
}

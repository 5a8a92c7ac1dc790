// Package registry persists declared mounts as a single JSON document.
// The whole document is read and rewritten on every change; an
// in-process mutex plus an advisory file lock serialize writers so
// concurrent daemon instances cannot interleave partial documents.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/harbouros/harbourd/pkg/mount"
)

type document struct {
	Mounts []mount.Mount `json:"mounts"`
}

// Registry is the mounts.json document store.
type Registry struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// New creates a registry backed by the JSON file at path. The file is
// created on first write; a missing file reads as an empty registry.
func New(path string) *Registry {
	return &Registry{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the backing file path.
func (r *Registry) Path() string { return r.path }

// List returns all declared mounts in document order.
func (r *Registry) List() ([]mount.Mount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	return doc.Mounts, nil
}

// Get returns the mount with the given id.
func (r *Registry) Get(id string) (mount.Mount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.load()
	if err != nil {
		return mount.Mount{}, err
	}
	for _, m := range doc.Mounts {
		if m.ID == id {
			return m, nil
		}
	}
	return mount.Mount{}, fmt.Errorf("mount %q: %w", id, mount.ErrNotFound)
}

// Add appends a mount to the document. Duplicate ids and duplicate
// slugs are rejected.
func (r *Registry) Add(m mount.Mount) error {
	return r.mutate(func(doc *document) error {
		for _, existing := range doc.Mounts {
			if existing.ID == m.ID {
				return fmt.Errorf("mount id %q: %w", m.ID, mount.ErrDuplicateMount)
			}
			if existing.Slug() == m.Slug() {
				return fmt.Errorf("mount named %q: %w", m.Name, mount.ErrDuplicateMount)
			}
		}
		doc.Mounts = append(doc.Mounts, m)
		return nil
	})
}

// Update replaces the stored mount with the same id. The new name may
// not collide with another mount's slug.
func (r *Registry) Update(m mount.Mount) error {
	return r.mutate(func(doc *document) error {
		idx := -1
		for i, existing := range doc.Mounts {
			if existing.ID == m.ID {
				idx = i
				continue
			}
			if existing.Slug() == m.Slug() {
				return fmt.Errorf("mount named %q: %w", m.Name, mount.ErrDuplicateMount)
			}
		}
		if idx < 0 {
			return fmt.Errorf("mount %q: %w", m.ID, mount.ErrNotFound)
		}
		doc.Mounts[idx] = m
		return nil
	})
}

// Remove deletes the mount with the given id, reporting whether an
// entry was removed. Removing an unknown id is not an error.
func (r *Registry) Remove(id string) (bool, error) {
	removed := false
	err := r.mutate(func(doc *document) error {
		kept := doc.Mounts[:0]
		for _, m := range doc.Mounts {
			if m.ID == id {
				removed = true
				continue
			}
			kept = append(kept, m)
		}
		doc.Mounts = kept
		return nil
	})
	return removed, err
}

func (r *Registry) mutate(fn func(*document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.lock.Lock(); err != nil {
		return fmt.Errorf("locking registry: %w", err)
	}
	defer r.lock.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return r.store(doc)
}

func (r *Registry) load() (*document, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}
	return &doc, nil
}

// store writes the document to a temp file in the same directory and
// renames it into place so readers never see a torn document.
func (r *Registry) store(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".mounts-*.json")
	if err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing registry: %w", err)
	}
	return nil
}

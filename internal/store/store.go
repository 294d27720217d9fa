// Package store holds the in-memory rule file collection and its persisted snapshot.
package store

import (
	"sort"
	"sync"

	"github.com/amrverse/amrrulebrowser/internal/rules"
)

// Store maps file names to parsed rule files. A file is only ever replaced as a whole.
type Store struct {
	mu    sync.RWMutex
	files map[string]*rules.File
}

// New creates an empty store.
func New() *Store {
	return &Store{files: make(map[string]*rules.File)}
}

// Load seeds the store with files, overwriting entries with the same name.
func (s *Store) Load(files map[string]*rules.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, f := range files {
		s.files[name] = f
	}
}

// Upsert inserts or replaces one file.
func (s *Store) Upsert(name string, f *rules.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = f
}

// Get returns the file with the given name.
func (s *Store) Get(name string) (*rules.File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[name]
	return f, ok
}

// Has reports whether name is loaded.
func (s *Store) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// AllFiles returns a copy of the name -> file mapping.
func (s *Store) AllFiles() map[string]*rules.File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*rules.File, len(s.files))
	for k, v := range s.files {
		out[k] = v
	}
	return out
}

// FileNames returns the loaded file names, sorted.
func (s *Store) FileNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.files))
	for n := range s.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SortedFiles returns the loaded files ordered by name.
func (s *Store) SortedFiles() []*rules.File {
	names := s.FileNames()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*rules.File, 0, len(names))
	for _, n := range names {
		if f, ok := s.files[n]; ok {
			out = append(out, f)
		}
	}
	return out
}

// UnionOfHeaders returns every header name declared by any loaded file.
func (s *Store) UnionOfHeaders() rules.HeaderSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(rules.HeaderSet)
	for _, f := range s.files {
		set.Add(f.Header.Names()...)
	}
	return set
}

// Len returns the number of loaded files.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// RowCount returns the total number of rows across all files.
func (s *Store) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, f := range s.files {
		n += len(f.Rows)
	}
	return n
}

// Clear removes every file.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string]*rules.File)
}

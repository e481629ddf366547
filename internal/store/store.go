// Package store holds the in-memory file set of one build, keyed by canonical
// URL. The store is created open, accepts entries in any arrival order, and
// is sealed by an explicit end-of-input signal. Graph building is unsound on
// a partial file set, so the engine refuses to operate on an unsealed store.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Provenance records how an entry came to exist in the store.
type Provenance string

const (
	// ProvenanceOriginal marks an entry created during ingestion.
	ProvenanceOriginal Provenance = "original"
	// ProvenanceBundled marks an entry whose content was replaced by a
	// serialized bundle.
	ProvenanceBundled Provenance = "bundled"
)

var (
	// ErrSealed is returned when ingesting into a sealed store.
	ErrSealed = errors.New("store is sealed: ingestion already signalled complete")
	// ErrNotSealed is returned when a build is started on an open store.
	ErrNotSealed = errors.New("store is not sealed: ingestion incomplete")
	// ErrBuildInProgress is returned when a second build tries to claim the
	// store while one is running.
	ErrBuildInProgress = errors.New("store is owned by a build in progress")
)

// Entry is one file in the store.
type Entry struct {
	URL        string
	Content    []byte
	Provenance Provenance
}

// Store is the owned, mutable file map of a single build.
type Store struct {
	mu       sync.Mutex
	entries  map[string]Entry
	sealed   bool
	building bool
}

// New returns an empty, open store.
func New() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Add ingests one file under its canonical URL. Later adds for the same URL
// overwrite earlier ones, so arrival order does not matter.
func (s *Store) Add(url string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return fmt.Errorf("adding %q: %w", url, ErrSealed)
	}
	s.entries[url] = Entry{URL: url, Content: content, Provenance: ProvenanceOriginal}
	return nil
}

// Seal signals end of input. After Seal the store contents are fixed until a
// build reconciles them.
func (s *Store) Seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

// Sealed reports whether end of input has been signalled.
func (s *Store) Sealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sealed
}

// Discard drops all state and reopens the store. Used when ingestion is
// aborted: an aborted build produces no output.
func (s *Store) Discard() {
	s.mu.Lock()
	s.entries = make(map[string]Entry)
	s.sealed = false
	s.building = false
	s.mu.Unlock()
}

// BeginBuild claims exclusive ownership of the store for one build. It fails
// if ingestion is incomplete or another build already owns the store.
func (s *Store) BeginBuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sealed {
		return ErrNotSealed
	}
	if s.building {
		return ErrBuildInProgress
	}
	s.building = true
	return nil
}

// EndBuild releases build ownership.
func (s *Store) EndBuild() {
	s.mu.Lock()
	s.building = false
	s.mu.Unlock()
}

// Get returns the entry for a URL.
func (s *Store) Get(url string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[url]
	return e, ok
}

// Has reports whether a URL is present.
func (s *Store) Has(url string) bool {
	_, ok := s.Get(url)
	return ok
}

// Delete removes a merged-away member file. Called by the reconciler only.
func (s *Store) Delete(url string) {
	s.mu.Lock()
	delete(s.entries, url)
	s.mu.Unlock()
}

// Put upserts a bundle's serialized output under its canonical URL.
func (s *Store) Put(url string, content []byte, p Provenance) {
	s.mu.Lock()
	s.entries[url] = Entry{URL: url, Content: content, Provenance: p}
	s.mu.Unlock()
}

// URLs returns all entry URLs in sorted order.
func (s *Store) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	urls := make([]string, 0, len(s.entries))
	for u := range s.entries {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Package search implements the incremental directory search used by UniLink
// clients: debounced query dispatch, filter switching, page appends with
// deduplication, and last-writer-wins ordering via a generation counter.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/unilink/backend/internal/models"
)

// Backend answers one page of a directory search.
type Backend interface {
	Search(ctx context.Context, q string, filter models.DirectoryFilter, page int) (*models.SearchPage, error)
}

// Snapshot is the observable state after each applied response.
type Snapshot struct {
	Query   string
	Filter  models.DirectoryFilter
	Entries []models.DirectoryEntry
	HasMore bool
	Loading bool
	Err     string
}

const (
	defaultDebounce = 300 * time.Millisecond
	defaultTimeout  = 10 * time.Second
)

// Searcher keeps query text, a filter, and the accumulated result pages.
// Every dispatch bumps a monotonic generation counter; a response arriving
// after a newer dispatch is discarded. In-flight calls are never cancelled,
// only ignored.
type Searcher struct {
	backend  Backend
	debounce time.Duration
	timeout  time.Duration
	onUpdate func(Snapshot)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	query   string
	filter  models.DirectoryFilter
	page    int
	entries []models.DirectoryEntry
	hasMore bool
	loading bool
	errMsg  string
}

type Option func(*Searcher)

// WithDebounce overrides the keystroke debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(s *Searcher) { s.debounce = d }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Searcher) { s.timeout = d }
}

// WithOnUpdate registers a callback invoked after every state change. It is
// called without internal locks held.
func WithOnUpdate(fn func(Snapshot)) Option {
	return func(s *Searcher) { s.onUpdate = fn }
}

func New(backend Backend, opts ...Option) *Searcher {
	s := &Searcher{
		backend:  backend,
		debounce: defaultDebounce,
		timeout:  defaultTimeout,
		filter:   models.FilterAll,
		entries:  []models.DirectoryEntry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetQuery records a keystroke. An empty query dispatches immediately; any
// other text restarts the debounce timer.
func (s *Searcher) SetQuery(q string) {
	s.mu.Lock()
	if q == s.query {
		s.mu.Unlock()
		return
	}
	s.query = q
	s.stopTimerLocked()

	if q == "" {
		s.dispatchLocked()
		s.mu.Unlock()
		s.notify()
		return
	}

	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		// A later keystroke may have superseded this timer.
		if s.query != q {
			s.mu.Unlock()
			return
		}
		s.dispatchLocked()
		s.mu.Unlock()
		s.notify()
	})
	s.mu.Unlock()
}

// SetFilter switches the search path and dispatches immediately.
func (s *Searcher) SetFilter(f models.DirectoryFilter) {
	s.mu.Lock()
	if f == s.filter {
		s.mu.Unlock()
		return
	}
	s.filter = f
	s.stopTimerLocked()
	s.dispatchLocked()
	s.mu.Unlock()
	s.notify()
}

// Refresh re-runs the current query and filter from page zero.
func (s *Searcher) Refresh() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.dispatchLocked()
	s.mu.Unlock()
	s.notify()
}

// LoadMore appends the next page. The request carries the current
// generation, so a query or filter change while it is in flight makes its
// response stale.
func (s *Searcher) LoadMore() {
	s.mu.Lock()
	if s.loading || !s.hasMore {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	q, f, page := s.query, s.filter, s.page+1
	s.loading = true
	s.mu.Unlock()
	s.notify()

	go s.fetch(gen, q, f, page, true)
}

// Stop cancels a pending debounce timer.
func (s *Searcher) Stop() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Searcher) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Results returns a copy of the accumulated entries.
func (s *Searcher) Results() []models.DirectoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DirectoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Searcher) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// dispatchLocked starts a fresh page-zero fetch under a new generation.
func (s *Searcher) dispatchLocked() {
	s.gen++
	s.page = 0
	s.loading = true
	s.errMsg = ""
	go s.fetch(s.gen, s.query, s.filter, 0, false)
}

func (s *Searcher) fetch(gen uint64, q string, f models.DirectoryFilter, page int, appendPage bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.backend.Search(ctx, q, f, page)

	s.mu.Lock()
	if gen != s.gen {
		// Superseded by a newer dispatch; last writer wins.
		s.mu.Unlock()
		return
	}

	if err != nil {
		// Errors surface as a message and leave prior results intact.
		s.loading = false
		s.errMsg = err.Error()
		s.mu.Unlock()
		s.notify()
		return
	}

	if appendPage {
		s.entries = appendDedupe(s.entries, res.Entries)
		s.page = page
	} else {
		s.entries = appendDedupe(nil, res.Entries)
	}
	s.hasMore = res.HasMore
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

func (s *Searcher) snapshotLocked() Snapshot {
	entries := make([]models.DirectoryEntry, len(s.entries))
	copy(entries, s.entries)
	return Snapshot{
		Query:   s.query,
		Filter:  s.filter,
		Entries: entries,
		HasMore: s.hasMore,
		Loading: s.loading,
		Err:     s.errMsg,
	}
}

func (s *Searcher) notify() {
	if s.onUpdate == nil {
		return
	}
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.onUpdate(snap)
}

// appendDedupe appends entries to held, skipping user ids already present.
func appendDedupe(held, entries []models.DirectoryEntry) []models.DirectoryEntry {
	seen := make(map[string]struct{}, len(held)+len(entries))
	out := make([]models.DirectoryEntry, 0, len(held)+len(entries))
	for _, e := range held {
		if _, ok := seen[e.UserID]; ok {
			continue
		}
		seen[e.UserID] = struct{}{}
		out = append(out, e)
	}
	for _, e := range entries {
		if _, ok := seen[e.UserID]; ok {
			continue
		}
		seen[e.UserID] = struct{}{}
		out = append(out, e)
	}
	return out
}

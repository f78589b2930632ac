// Package ratelimit implements a fixed-window per-caller request
// throttle. The window is fixed, not sliding: bursts are possible at
// window boundaries, which is an accepted approximation of the design,
// not a bug.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultMaxRequests is the per-caller capacity per window
	DefaultMaxRequests = 20

	// DefaultWindow is the fixed window duration
	DefaultWindow = 60 * time.Second
)

// Store decides whether a caller identified by id may proceed. Deny is
// a normal outcome, not an error; the handler turns it into a 429.
type Store interface {
	Allow(id string) bool
}

// record tracks one caller's usage inside the current window
type record struct {
	count         int
	windowResetAt time.Time
}

// MemoryStore is the in-process fixed-window store. State does not
// survive restarts; the limiter is an abuse-mitigation heuristic, not a
// security boundary. All read-modify-write on the map happens under the
// mutex so two simultaneous requests can never both pass at the cap.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*record

	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// Option configures a MemoryStore
type Option func(*MemoryStore)

// WithClock substitutes the time source, for deterministic tests
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a fixed-window store with the given capacity
// and window. Zero values fall back to the defaults.
func NewMemoryStore(maxRequests int, window time.Duration, opts ...Option) *MemoryStore {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}

	s := &MemoryStore{
		records:     make(map[string]*record),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow reports whether the caller may proceed. On the first request of
// a window (or after the previous window expired) the record is reset
// to count=1; inside the window the count increments up to the cap;
// at the cap the request is denied without incrementing.
func (s *MemoryStore) Allow(id string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || now.After(r.windowResetAt) {
		s.records[id] = &record{count: 1, windowResetAt: now.Add(s.window)}
		return true
	}

	if r.count < s.maxRequests {
		r.count++
		return true
	}

	log.Warn().
		Str("caller", id).
		Int("max", s.maxRequests).
		Dur("window", s.window).
		Msg("Rate limit exceeded")
	return false
}

// Cleanup drops records whose window expired before now. Call it
// periodically to keep memory bounded under many distinct callers.
func (s *MemoryStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.records {
		if now.After(r.windowResetAt) {
			delete(s.records, id)
		}
	}
}

// StartCleanupWorker runs Cleanup on the given interval until stop is
// closed.
func (s *MemoryStore) StartCleanupWorker(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

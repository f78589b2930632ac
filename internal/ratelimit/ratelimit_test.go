package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a settable time source for deterministic window tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_DeniesTwentyFirstRequest(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(20, 60*time.Second, WithClock(clock.Now))

	for i := 0; i < 20; i++ {
		assert.True(t, store.Allow("10.0.0.1"), "request %d should be allowed", i+1)
	}
	assert.False(t, store.Allow("10.0.0.1"), "21st request in the window must be denied")
	assert.False(t, store.Allow("10.0.0.1"), "denial does not increment the count")
}

func TestMemoryStore_WindowResetAllowsAgain(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(20, 60*time.Second, WithClock(clock.Now))

	for i := 0; i < 20; i++ {
		store.Allow("10.0.0.1")
	}
	assert.False(t, store.Allow("10.0.0.1"))

	clock.Advance(61 * time.Second)
	assert.True(t, store.Allow("10.0.0.1"), "request after the window elapsed resets the record")

	// The reset started a fresh window with count=1: 19 more fit.
	for i := 0; i < 19; i++ {
		assert.True(t, store.Allow("10.0.0.1"))
	}
	assert.False(t, store.Allow("10.0.0.1"))
}

func TestMemoryStore_IdentifiersAreIndependent(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(2, 60*time.Second, WithClock(clock.Now))

	assert.True(t, store.Allow("a"))
	assert.True(t, store.Allow("a"))
	assert.False(t, store.Allow("a"))

	assert.True(t, store.Allow("b"), "a different caller has its own window")
}

func TestMemoryStore_DenialInsideWindowDoesNotResetIt(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(1, 60*time.Second, WithClock(clock.Now))

	assert.True(t, store.Allow("a"))
	clock.Advance(30 * time.Second)
	assert.False(t, store.Allow("a"))
	clock.Advance(31 * time.Second) // past the original window start + 60s
	assert.True(t, store.Allow("a"))
}

func TestMemoryStore_ConcurrentRequestsRespectCap(t *testing.T) {
	store := NewMemoryStore(20, 60*time.Second)

	const callers = 21
	var allowed atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if store.Allow("same-caller") {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(20), allowed.Load(), "exactly 20 of 21 concurrent requests may pass")
}

func TestMemoryStore_Cleanup(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(20, 60*time.Second, WithClock(clock.Now))

	for i := 0; i < 100; i++ {
		store.Allow(fmt.Sprintf("caller-%d", i))
	}
	assert.Len(t, store.records, 100)

	clock.Advance(2 * time.Minute)
	store.Cleanup()
	assert.Empty(t, store.records)
}

func TestMemoryStore_ZeroConfigFallsBackToDefaults(t *testing.T) {
	store := NewMemoryStore(0, 0)
	assert.Equal(t, DefaultMaxRequests, store.maxRequests)
	assert.Equal(t, DefaultWindow, store.window)
}

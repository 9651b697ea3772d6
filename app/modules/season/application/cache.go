package seasonservice

import (
	"sync"
	"time"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
)

// DefaultStateTTL bounds how long a resolved state may be served before the
// sources are consulted again.
const DefaultStateTTL = 30 * time.Second

// StateCache holds the single resolved SeasonState slot with a short TTL.
// The clock is injected so tests control expiry; transition completion
// invalidates the slot synchronously so the next caller never sees the
// pre-rollover season.
type StateCache struct {
	mu      sync.Mutex
	state   seasondomain.SeasonState
	expires time.Time
	valid   bool

	ttl time.Duration
	now func() time.Time
}

// NewStateCache creates a cache with the given TTL. A zero ttl falls back to
// DefaultStateTTL; a nil now falls back to the wall clock.
func NewStateCache(ttl time.Duration, now func() time.Time) *StateCache {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if now == nil {
		now = time.Now
	}
	return &StateCache{ttl: ttl, now: now}
}

// Get returns the cached state and whether it is still fresh.
func (c *StateCache) Get() (seasondomain.SeasonState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.now().After(c.expires) {
		return seasondomain.SeasonState{}, false
	}
	return c.state, true
}

// Set stores a freshly resolved state.
func (c *StateCache) Set(state seasondomain.SeasonState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.expires = c.now().Add(c.ttl)
	c.valid = true
}

// Invalidate drops the cached state.
func (c *StateCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}

package store

import (
	"sync"
	"time"
)

// monotonicClock hands out strictly increasing timestamps so the in-memory
// stores keep deterministic created_at ordering even when two writes land
// in the same wall-clock instant.
type monotonicClock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *monotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Nanosecond)
	}
	c.last = now
	return now
}

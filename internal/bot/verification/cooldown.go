package verification

import (
	"sync"
	"time"
)

// Cooldowns remembers the last attempt per member. Entries live only in
// memory and are lost on restart.
type Cooldowns struct {
	mu     sync.Mutex
	period time.Duration
	last   map[string]time.Time
}

func NewCooldowns(period time.Duration) *Cooldowns {
	return &Cooldowns{period: period, last: make(map[string]time.Time)}
}

// Remaining returns whole seconds left before memberID may try again,
// rounded down and never negative.
func (c *Cooldowns) Remaining(memberID string, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.last[memberID]
	if !ok {
		return 0
	}
	left := c.period - now.Sub(at)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// Touch records an attempt at now and drops entries that have expired.
func (c *Cooldowns) Touch(memberID string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, at := range c.last {
		if now.Sub(at) >= c.period {
			delete(c.last, id)
		}
	}
	c.last[memberID] = now
}

package scheduler

import (
	"sync"
	"time"

	"mt5bot/internal/types"
)

// Cooldowns is the deferral clock: one last-checked timestamp per
// (symbol, timeframe, strategy). Any gate that defers marks the key; the
// evaluator consults Due before producing a new open intent, which keeps a
// just-rejected intent from re-triggering every loop iteration.
//
// The registry is shared by every gate, so it is safe for concurrent use even
// though the trading loop itself is single-threaded.
type Cooldowns struct {
	mu    sync.Mutex
	last  map[types.StrategyKey]time.Time
	nowFn func() time.Time
}

func NewCooldowns() *Cooldowns {
	return &Cooldowns{
		last:  make(map[types.StrategyKey]time.Time),
		nowFn: time.Now,
	}
}

// Mark records "now" as the last check for the key, creating the entry lazily
// on first deferral.
func (c *Cooldowns) Mark(key types.StrategyKey) {
	c.mu.Lock()
	c.last[key] = c.nowFn()
	c.mu.Unlock()
}

// Due reports whether at least wait has elapsed since the last mark. A key
// that was never marked is always due.
func (c *Cooldowns) Due(key types.StrategyKey, wait time.Duration) bool {
	c.mu.Lock()
	last, ok := c.last[key]
	now := c.nowFn()
	c.mu.Unlock()
	if !ok {
		return true
	}
	return now.Sub(last) >= wait
}

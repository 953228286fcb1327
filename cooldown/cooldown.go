// Package cooldown gates how often a player may move.
package cooldown

import (
	"sync"
	"time"
)

// Tracker maps player ids to the time their cooldown ends.
// Expired entries are evicted lazily by IsBlocked.
type Tracker struct {
	expiries map[string]time.Time
	now      func() time.Time
	mutex    sync.Mutex
}

func NewTracker() *Tracker {
	return NewTrackerWithClock(time.Now)
}

func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		expiries: make(map[string]time.Time),
		now:      now,
	}
}

// Refresh sets the player's cooldown to end seconds from now.
func (t *Tracker) Refresh(playerID string, seconds int) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.expiries[playerID] = t.now().Add(time.Duration(max(0, seconds)) * time.Second)
}

func (t *Tracker) IsBlocked(playerID string) bool {
	return t.Remaining(playerID) > 0
}

// Remaining returns how long the player still has to wait, 0 when free.
func (t *Tracker) Remaining(playerID string) time.Duration {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	expiry, ok := t.expiries[playerID]
	if !ok {
		return 0
	}
	left := expiry.Sub(t.now())
	if left <= 0 {
		delete(t.expiries, playerID)
		return 0
	}
	return left
}

// Len returns the number of tracked players, expired or not.
func (t *Tracker) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.expiries)
}

package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTracker_BlocksUntilExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	tracker := NewTrackerWithClock(clock.Now)

	assert.False(t, tracker.IsBlocked("alice"), "unknown players are never blocked")

	tracker.Refresh("alice", 3)
	assert.True(t, tracker.IsBlocked("alice"))
	assert.Equal(t, 3*time.Second, tracker.Remaining("alice"))
	assert.False(t, tracker.IsBlocked("bob"))

	clock.Advance(2 * time.Second)
	assert.True(t, tracker.IsBlocked("alice"))

	clock.Advance(time.Second)
	assert.False(t, tracker.IsBlocked("alice"), "blocked only while now < expiry")
}

func TestTracker_LazyEviction(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tracker := NewTrackerWithClock(clock.Now)

	tracker.Refresh("alice", 1)
	tracker.Refresh("bob", 10)
	clock.Advance(5 * time.Second)

	assert.Equal(t, 2, tracker.Len(), "nothing is swept in the background")
	assert.False(t, tracker.IsBlocked("alice"))
	assert.Equal(t, 1, tracker.Len(), "expired entry removed on check")
	assert.True(t, tracker.IsBlocked("bob"))
}

func TestTracker_RefreshOverwrites(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tracker := NewTrackerWithClock(clock.Now)

	tracker.Refresh("alice", 10)
	tracker.Refresh("alice", 0)
	assert.False(t, tracker.IsBlocked("alice"), "zero cooldown never blocks")

	tracker.Refresh("alice", -4)
	assert.False(t, tracker.IsBlocked("alice"))
}

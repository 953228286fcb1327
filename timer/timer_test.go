package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddTimer_FiresOnce(t *testing.T) {
	m := NewTimerManagerWithTick(5 * time.Millisecond)
	defer m.Stop()

	var calls atomic.Int32
	m.AddTimer(10*time.Millisecond, 0, func() { calls.Add(1) })

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, m.Len())
}

func TestAddTimer_Repeats(t *testing.T) {
	m := NewTimerManagerWithTick(5 * time.Millisecond)
	defer m.Stop()

	var calls atomic.Int32
	id := m.AddTimer(0, 10*time.Millisecond, func() { calls.Add(1) })

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	m.RemoveTimer(id)
	assert.Equal(t, 0, m.Len())
}

func TestRemoveTimer_BeforeFiring(t *testing.T) {
	m := NewTimerManagerWithTick(5 * time.Millisecond)
	defer m.Stop()

	var calls atomic.Int32
	id := m.AddTimer(30*time.Millisecond, 0, func() { calls.Add(1) })
	m.RemoveTimer(id)

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestPanickingCallbackDoesNotStopScheduler(t *testing.T) {
	m := NewTimerManagerWithTick(5 * time.Millisecond)
	defer m.Stop()

	var calls atomic.Int32
	m.AddTimer(0, 0, func() { panic("boom") })
	m.AddTimer(10*time.Millisecond, 0, func() { calls.Add(1) })

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestNextDaily(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)

	// 16:00 UTC is 23:00 local, next local midnight is 17:00 UTC
	got := NextDaily(time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC), loc, 0, 0)
	assert.True(t, got.Equal(time.Date(2024, 3, 10, 17, 0, 0, 0, time.UTC)), "got %v", got)

	// exactly at the boundary moves to the next day
	at := time.Date(2024, 3, 11, 0, 0, 0, 0, loc)
	assert.True(t, NextDaily(at, loc, 0, 0).Equal(at.AddDate(0, 0, 1)))

	morning := NextDaily(time.Date(2024, 3, 11, 1, 0, 0, 0, loc), loc, 3, 30)
	assert.Equal(t, time.Date(2024, 3, 11, 3, 30, 0, 0, loc), morning)
}

func TestAddDaily_Schedules(t *testing.T) {
	m := NewTimerManagerWithTick(time.Hour)
	defer m.Stop()

	m.AddDaily(time.UTC, 0, 0, func() {})
	assert.Equal(t, 1, m.Len())
}

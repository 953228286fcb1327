// Package timer schedules periodic jobs such as the daily quota cleanup.
package timer

import (
	"container/heap"
	"sync"
	"time"

	"github.com/wfunc/wordchain/logger"
)

type TimerTask struct {
	Id       int64
	Execute  time.Time
	Interval time.Duration
	// Next, when set, computes the following run instead of Interval.
	Next     func(last time.Time) time.Time
	Callback func()
	index    int
}

type TimerQueue []*TimerTask

func (q TimerQueue) Len() int { return len(q) }

func (q TimerQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q TimerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *TimerQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*TimerTask)
	task.index = n
	*q = append(*q, task)
}

func (q *TimerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

type TimerManager struct {
	queue    TimerQueue
	mutex    sync.Mutex
	nextId   int64
	tick     time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

func NewTimerManager() *TimerManager {
	return NewTimerManagerWithTick(100 * time.Millisecond)
}

// NewTimerManagerWithTick sets how often the queue is polled.
func NewTimerManagerWithTick(tick time.Duration) *TimerManager {
	manager := &TimerManager{
		queue:  make(TimerQueue, 0),
		nextId: 1,
		tick:   tick,
		done:   make(chan struct{}),
	}
	heap.Init(&manager.queue)
	go manager.process()
	return manager
}

// AddTimer runs callback after delay, then every interval if interval > 0.
func (m *TimerManager) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	return m.push(&TimerTask{
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	})
}

// AddDaily runs callback every day at hour:minute in loc.
func (m *TimerManager) AddDaily(loc *time.Location, hour, minute int, callback func()) int64 {
	next := func(last time.Time) time.Time {
		return NextDaily(last, loc, hour, minute)
	}
	return m.push(&TimerTask{
		Execute:  next(time.Now()),
		Next:     next,
		Callback: callback,
	})
}

func (m *TimerManager) push(task *TimerTask) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task.Id = m.nextId
	m.nextId++
	heap.Push(&m.queue, task)
	return task.Id
}

func (m *TimerManager) RemoveTimer(timerId int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, task := range m.queue {
		if task.Id == timerId {
			heap.Remove(&m.queue, i)
			break
		}
	}
}

// Len returns the number of pending tasks.
func (m *TimerManager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.Len()
}

// Stop 停止调度，已触发的回调不受影响
func (m *TimerManager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *TimerManager) process() {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			for _, task := range m.due(now) {
				go run(task)
			}
		}
	}
}

// due pops every task whose time has come and reschedules the repeating ones.
func (m *TimerManager) due(now time.Time) []*TimerTask {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var ready []*TimerTask
	for m.queue.Len() > 0 {
		task := m.queue[0]
		if task.Execute.After(now) {
			break
		}
		heap.Pop(&m.queue)
		ready = append(ready, task)

		switch {
		case task.Next != nil:
			task.Execute = task.Next(now)
			heap.Push(&m.queue, task)
		case task.Interval > 0:
			task.Execute = now.Add(task.Interval)
			heap.Push(&m.queue, task)
		}
	}
	return ready
}

func run(task *TimerTask) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("timer task %d panicked: %v", task.Id, r)
		}
	}()
	task.Callback()
}

// NextDaily returns the first hour:minute in loc strictly after t.
func NextDaily(t time.Time, loc *time.Location, hour, minute int) time.Time {
	local := t.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

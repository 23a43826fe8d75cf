// Package eventloop drives setTimeout/setInterval for script-backed native
// modules. The callbacks live on the JS side; Go only tracks scheduling.
package eventloop

import (
	"fmt"
	"sync"
	"time"
)

// Runtime is the part of a JS runtime the loop needs to fire callbacks.
type Runtime interface {
	Eval(js string) error
	RunMicrotasks()
}

// minInterval is the floor applied to setInterval periods.
const minInterval = 10 * time.Millisecond

// timerEntry is the scheduling metadata for one JS timer. The callback itself
// is stored in globalThis.__timerCallbacks[id].
type timerEntry struct {
	deadline time.Time
	interval time.Duration // 0 for setTimeout
	id       int
	cleared  bool
}

// EventLoop holds the pending timers of one JS runtime.
type EventLoop struct {
	mu     sync.Mutex
	timers map[int]*timerEntry
	nextID int
}

// New creates an empty EventLoop.
func New() *EventLoop {
	return &EventLoop{timers: make(map[int]*timerEntry)}
}

// RegisterTimer creates a timer entry and returns its ID.
func (el *EventLoop) RegisterTimer(delay time.Duration, isInterval bool) int {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.nextID++
	entry := &timerEntry{
		deadline: time.Now().Add(delay),
		id:       el.nextID,
	}
	if isInterval {
		if delay < minInterval {
			delay = minInterval
		}
		entry.interval = delay
	}
	el.timers[entry.id] = entry
	return entry.id
}

// ClearTimer cancels a timer by ID. Unknown IDs are ignored.
func (el *EventLoop) ClearTimer(id int) {
	el.mu.Lock()
	defer el.mu.Unlock()
	if t, ok := el.timers[id]; ok {
		t.cleared = true
		delete(el.timers, id)
	}
}

func (el *EventLoop) fireTimer(rt Runtime, id int) {
	js := fmt.Sprintf(`(function() {
		var entry = globalThis.__timerCallbacks[%d];
		if (!entry) return;
		if (!entry.interval) delete globalThis.__timerCallbacks[%d];
		entry.fn.apply(null, entry.args || []);
	})()`, id, id)
	_ = rt.Eval(js)
}

// next returns the earliest live timer, or nil.
func (el *EventLoop) next() *timerEntry {
	el.mu.Lock()
	defer el.mu.Unlock()
	var next *timerEntry
	for _, t := range el.timers {
		if t.cleared {
			continue
		}
		if next == nil || t.deadline.Before(next.deadline) {
			next = t
		}
	}
	return next
}

// Drain fires due timers in deadline order until none remain or the next one
// would fire after deadline. It must run on the runtime's goroutine.
func (el *EventLoop) Drain(rt Runtime, deadline time.Time) {
	for {
		next := el.next()
		if next == nil {
			return
		}
		if next.deadline.After(deadline) {
			return
		}
		if wait := time.Until(next.deadline); wait > 0 {
			time.Sleep(wait)
		}

		el.mu.Lock()
		if next.cleared {
			el.mu.Unlock()
			continue
		}
		id := next.id
		if next.interval > 0 {
			next.deadline = time.Now().Add(next.interval)
		} else {
			delete(el.timers, id)
		}
		el.mu.Unlock()

		el.fireTimer(rt, id)
		rt.RunMicrotasks()
	}
}

// HasPending reports whether any timer is still scheduled.
func (el *EventLoop) HasPending() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return len(el.timers) > 0
}

// Reset drops every timer.
func (el *EventLoop) Reset() {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.timers = make(map[int]*timerEntry)
	el.nextID = 0
}

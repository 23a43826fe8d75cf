// Package dispatch runs input work one task at a time, in arrival order.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Task is one unit of input work, typically a single native call.
type Task func(ctx context.Context) error

type entry struct {
	name  string
	key   string // non-empty for coalescable tasks
	value any    // input of a PostMerged task
	task  Task
}

// Loop is a FIFO task queue drained by a single goroutine. Posting never
// blocks; each task runs to completion before the next starts.
type Loop struct {
	mu    sync.Mutex
	queue []entry
	wake  chan struct{}

	// OnError receives task failures. Nil logs them.
	OnError func(name string, err error)
}

// New returns an idle loop. Call Run to start draining it.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post appends task to the queue.
func (l *Loop) Post(name string, task Task) {
	l.enqueue("", func(*entry) entry { return entry{name: name, task: task} })
}

// PostLatest appends task, or replaces the queue's last entry when that
// entry was posted with the same key. Only the tail is considered, so tasks
// are never reordered across other work. It reports whether a queued task
// was replaced.
func (l *Loop) PostLatest(key string, task Task) bool {
	return l.enqueue(key, func(*entry) entry {
		return entry{name: key, key: key, task: task}
	})
}

// PostMerged is PostLatest for tasks that run on a value. When a queued
// task with the same key is replaced, its value is folded into v with
// merge(prev, v) so nothing the replaced task carried is lost.
func PostMerged[T any](l *Loop, key string, v T, merge func(prev, next T) T, run func(context.Context, T) error) bool {
	return l.enqueue(key, func(prev *entry) entry {
		val := v
		if prev != nil {
			if p, ok := prev.value.(T); ok {
				val = merge(p, v)
			}
		}
		return entry{
			name:  key,
			key:   key,
			value: val,
			task:  func(ctx context.Context) error { return run(ctx, val) },
		}
	})
}

// enqueue appends build(nil), or replaces the tail with build(tail) when
// key is non-empty and matches the tail's key.
func (l *Loop) enqueue(key string, build func(prev *entry) entry) bool {
	l.mu.Lock()
	replaced := false
	if n := len(l.queue); key != "" && n > 0 && l.queue[n-1].key == key {
		l.queue[n-1] = build(&l.queue[n-1])
		replaced = true
	} else {
		l.queue = append(l.queue, build(nil))
	}
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return replaced
}

// Len returns the number of queued tasks, excluding one that is running.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) pop() (entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return entry{}, false
	}
	e := l.queue[0]
	l.queue[0] = entry{}
	l.queue = l.queue[1:]
	return e, true
}

// Run drains the queue until ctx is done. Only one Run may be active.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e, ok := l.pop()
			if !ok {
				break
			}
			l.exec(ctx, e)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) exec(ctx context.Context, e entry) {
	defer func() {
		if r := recover(); r != nil {
			l.report(e.name, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := e.task(ctx); err != nil {
		l.report(e.name, err)
	}
}

func (l *Loop) report(name string, err error) {
	if l.OnError != nil {
		l.OnError(name, err)
		return
	}
	log.Printf("inputbridge: %s: %v", name, err)
}

// Flush waits until every task posted before the call has finished.
// It needs a running loop.
func (l *Loop) Flush(ctx context.Context) error {
	done := make(chan struct{})
	l.Post("flush", func(context.Context) error {
		close(done)
		return nil
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

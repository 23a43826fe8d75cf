package core

import (
	"context"
	"sync"
)

// Call is one recorded native invocation.
type Call struct {
	Name string
	Args []any
}

// Recorder is a Native that keeps every call it receives. It backs tests and
// the host's record-only mode when no native script is configured.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	err   error
}

var _ Native = (*Recorder)(nil)

// Call implements Native.
func (r *Recorder) Call(_ context.Context, name string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]any, len(args))
	copy(cp, args)
	r.calls = append(r.calls, Call{Name: name, Args: cp})
	return r.err
}

// FailWith makes subsequent calls return err after being recorded.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Calls returns a snapshot of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Names returns the names of the recorded calls in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Name
	}
	return out
}

// Reset drops all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

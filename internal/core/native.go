package core

import (
	"context"
	"sync"
)

// Native is the narrow call interface into the separately compiled native
// module. Call returns once the native side has finished handling the call.
// Arguments are float64, int, string or []byte.
type Native interface {
	Call(ctx context.Context, name string, args ...any) error
}

// NativeFunc adapts a function to the Native interface.
type NativeFunc func(ctx context.Context, name string, args ...any) error

// Call implements Native.
func (f NativeFunc) Call(ctx context.Context, name string, args ...any) error {
	return f(ctx, name, args...)
}

// Invoker issues calls toward the native module. Components depend on this
// rather than on Native so that an absent module is not their concern.
type Invoker interface {
	Invoke(ctx context.Context, name string, args ...any) error
}

// Link holds the currently attached Native, if any. Invoke on a Link with
// nothing attached is a no-op: the call is neither reported nor queued.
type Link struct {
	mu     sync.RWMutex
	native Native
}

var _ Invoker = (*Link)(nil)

// Attach makes n the target of subsequent calls. A nil n detaches.
func (l *Link) Attach(n Native) {
	l.mu.Lock()
	l.native = n
	l.mu.Unlock()
}

// Detach drops the attached native.
func (l *Link) Detach() {
	l.Attach(nil)
}

// Attached reports whether a native is currently attached.
func (l *Link) Attached() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.native != nil
}

// Invoke forwards the call to the attached native and waits for it.
func (l *Link) Invoke(ctx context.Context, name string, args ...any) error {
	l.mu.RLock()
	n := l.native
	l.mu.RUnlock()
	if n == nil {
		return nil
	}
	return n.Call(ctx, name, args...)
}

// Package scriptnative implements a native call target with a JavaScript
// module running in an embedded engine. Each exported function of the module
// answers the native call of the same name.
package scriptnative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/webigeo/inputbridge/internal/core"
	"github.com/webigeo/inputbridge/internal/eventloop"
	"github.com/webigeo/inputbridge/internal/jsengine"
)

// ErrNoFunction is returned when the module does not export the called name.
var ErrNoFunction = errors.New("module does not export function")

// moduleGlobal holds the module's exports inside the runtime.
const moduleGlobal = "__native_module__"

// DefaultTimeout bounds a single call when the context carries no deadline.
const DefaultTimeout = 5 * time.Second

// Options configures Load.
type Options struct {
	// Factory creates the runtime. Required.
	Factory jsengine.Factory
	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration
	// Log receives console output from the module. Nil discards it.
	Log func(level, message string)
}

// Module is a loaded script. It is safe for concurrent use; calls are
// serialized onto the single runtime.
type Module struct {
	mu      sync.Mutex
	rt      jsengine.Runtime
	el      *eventloop.EventLoop
	timeout time.Duration
	closed  bool
}

var _ core.Native = (*Module)(nil)

// Load compiles source as an ES module and evaluates it in a fresh runtime.
func Load(source string, opts Options) (*Module, error) {
	if opts.Factory == nil {
		return nil, fmt.Errorf("scriptnative: no runtime factory")
	}
	wrapped, err := jsengine.WrapModule(source, moduleGlobal)
	if err != nil {
		return nil, fmt.Errorf("compiling module: %w", err)
	}

	rt, err := opts.Factory()
	if err != nil {
		return nil, fmt.Errorf("creating runtime: %w", err)
	}
	el := eventloop.New()
	if err := jsengine.SetupConsole(rt, opts.Log); err != nil {
		rt.Close()
		return nil, fmt.Errorf("setup console: %w", err)
	}
	if err := jsengine.SetupTimers(rt, el); err != nil {
		rt.Close()
		return nil, fmt.Errorf("setup timers: %w", err)
	}
	if err := rt.Eval(wrapped); err != nil {
		rt.Close()
		return nil, fmt.Errorf("running module: %w", err)
	}
	ok, err := rt.EvalBool(fmt.Sprintf("typeof globalThis.%s === 'object' && globalThis.%s !== null", moduleGlobal, moduleGlobal))
	if err != nil || !ok {
		rt.Close()
		return nil, fmt.Errorf("module did not produce any exports")
	}
	// Top-level timers and promises settle before the first call.
	rt.RunMicrotasks()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Module{rt: rt, el: el, timeout: timeout}, nil
}

// Has reports whether the module exports a function called name.
func (m *Module) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	ok, err := m.rt.EvalBool(m.lookupJS(name))
	return err == nil && ok
}

func (m *Module) lookupJS(name string) string {
	return fmt.Sprintf("typeof globalThis.%s[%q] === 'function'", moduleGlobal, name)
}

// Call invokes the exported function name with args and waits until any
// returned promise settles. Numbers and strings pass through; []byte
// arguments arrive as a Uint8Array.
func (m *Module) Call(ctx context.Context, name string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("scriptnative: module closed")
	}

	ok, err := m.rt.EvalBool(m.lookupJS(name))
	if err != nil {
		return fmt.Errorf("looking up %s: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoFunction, name)
	}

	argNames := make([]string, len(args))
	defer m.cleanup(len(args))
	for i, a := range args {
		argNames[i] = fmt.Sprintf("__fn_arg_%d", i)
		if err := m.setArg(argNames[i], a); err != nil {
			return fmt.Errorf("%s argument %d: %w", name, i, err)
		}
	}

	callJS := fmt.Sprintf("globalThis.__call_result = globalThis.%s[%q](%s);",
		moduleGlobal, name, strings.Join(argNames, ", "))
	if err := m.rt.Eval(callJS); err != nil {
		return fmt.Errorf("calling %s: %w", name, err)
	}

	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := jsengine.AwaitValue(m.rt, "__call_result", deadline, m.el); err != nil {
		return fmt.Errorf("awaiting %s: %w", name, err)
	}
	return nil
}

func (m *Module) setArg(global string, v any) error {
	switch v := v.(type) {
	case []byte:
		return jsengine.SetBytes(m.rt, global, v)
	case float32:
		return m.rt.SetGlobal(global, float64(v))
	case int32:
		return m.rt.SetGlobal(global, int(v))
	case int64:
		return m.rt.SetGlobal(global, float64(v))
	case int, float64, string, bool:
		return m.rt.SetGlobal(global, v)
	default:
		return fmt.Errorf("unsupported type %T", v)
	}
}

func (m *Module) cleanup(n int) {
	var b strings.Builder
	b.WriteString("delete globalThis.__call_result;")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "delete globalThis.__fn_arg_%d;", i)
	}
	_ = m.rt.Eval(b.String())
}

// Close releases the runtime. Later calls fail.
func (m *Module) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.el.Reset()
	m.rt.Close()
}

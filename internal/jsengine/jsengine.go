// Package jsengine abstracts the embedded JavaScript engines (QuickJS by
// default, V8 with -tags v8) that run script-backed native modules.
package jsengine

import (
	"encoding/hex"
	"fmt"
)

// Runtime is a single-threaded JS context. All methods must be called from
// the goroutine that owns it.
type Runtime interface {
	// Eval evaluates source and discards the result.
	Eval(src string) error

	// EvalString evaluates source and converts the result to a string.
	EvalString(src string) (string, error)

	// EvalBool evaluates source, which must produce a boolean.
	EvalBool(src string) (bool, error)

	// RegisterFunc exposes a Go function as a global. A function returning
	// (T, error) throws a TypeError in JS when the error is non-nil.
	RegisterFunc(name string, fn any) error

	// SetGlobal sets globalThis[name] to a string, int, float64 or bool.
	SetGlobal(name string, value any) error

	// RunMicrotasks runs queued promise jobs.
	RunMicrotasks()

	// Close releases the engine.
	Close()
}

// ByteSetter is implemented by runtimes that can place a byte slice in the
// context without encoding it as text.
type ByteSetter interface {
	// SetBytes sets globalThis[name] to a Uint8Array holding a copy of data.
	SetBytes(name string, data []byte) error
}

// Factory creates a fresh runtime.
type Factory func() (Runtime, error)

// SetBytes sets globalThis[name] to a Uint8Array copy of data, directly when
// rt is a ByteSetter and through a hex string otherwise.
func SetBytes(rt Runtime, name string, data []byte) error {
	if bs, ok := rt.(ByteSetter); ok {
		return bs.SetBytes(name, data)
	}
	return SetBytesText(rt, name, data)
}

// SetBytesText is the text path of SetBytes.
func SetBytesText(rt Runtime, name string, data []byte) error {
	if err := rt.SetGlobal(name, hex.EncodeToString(data)); err != nil {
		return err
	}
	return rt.Eval(fmt.Sprintf(`(function() {
		var h = globalThis[%[1]q], out = new Uint8Array(h.length >> 1);
		for (var i = 0; i < out.length; i++) out[i] = parseInt(h.substr(i * 2, 2), 16);
		globalThis[%[1]q] = out;
	})()`, name))
}

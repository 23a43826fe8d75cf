//go:build js && wasm

package browser

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/webigeo/inputbridge/internal/core"
)

// Ccall is a core.Native calling exported functions of an Emscripten
// module through Module.ccall in async mode.
type Ccall struct {
	module js.Value
}

var _ core.Native = (*Ccall)(nil)

// NewCcall returns a Ccall for the Emscripten module instance.
func NewCcall(module js.Value) *Ccall {
	return &Ccall{module: module}
}

// Call invokes name and waits for the returned promise.
func (c *Ccall) Call(ctx context.Context, name string, args ...any) error {
	types := make([]any, len(args))
	vals := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case int, int32, int64, float32, float64:
			types[i], vals[i] = "number", v
		case string:
			types[i], vals[i] = "string", v
		case []byte:
			arr := js.Global().Get("Uint8Array").New(len(v))
			js.CopyBytesToJS(arr, v)
			types[i], vals[i] = "array", arr
		default:
			return fmt.Errorf("%s argument %d: unsupported type %T", name, i, a)
		}
	}

	ret, err := call(func() js.Value {
		return c.module.Call("ccall", name, js.Null(), types, vals, map[string]any{"async": true})
	})
	if err != nil {
		return fmt.Errorf("ccall %s: %w", name, err)
	}
	if _, err := await(ctx, ret); err != nil {
		return fmt.Errorf("ccall %s: %w", name, err)
	}
	return nil
}

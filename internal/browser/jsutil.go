//go:build js && wasm

// Package browser installs the input bridge in a web page: DOM listeners,
// the module ccall target, WebGPU probing and the exported page API.
package browser

import (
	"context"
	"errors"
	"fmt"
	"syscall/js"
)

// call runs fn and converts a thrown JS exception into an error.
func call(fn func() js.Value) (v js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(js.Error); ok {
				err = errors.New(jsErr.Error())
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()
	return fn(), nil
}

func describe(v js.Value) string {
	if v.Type() == js.TypeObject {
		if msg := v.Get("message"); msg.Type() == js.TypeString {
			return msg.String()
		}
	}
	return js.Global().Get("String").Invoke(v).String()
}

func isThenable(v js.Value) bool {
	return v.Type() == js.TypeObject && v.Get("then").Type() == js.TypeFunction
}

// await blocks until v settles if it is a thenable. It must not be called
// from a JS callback: the callback goroutine is the one that settles it.
func await(ctx context.Context, v js.Value) (js.Value, error) {
	if !isThenable(v) {
		return v, nil
	}
	type result struct {
		v   js.Value
		err error
	}
	ch := make(chan result, 1)
	var onOK, onErr js.Func
	release := func() {
		onOK.Release()
		onErr.Release()
	}
	onOK = js.FuncOf(func(_ js.Value, args []js.Value) any {
		r := js.Undefined()
		if len(args) > 0 {
			r = args[0]
		}
		ch <- result{v: r}
		release()
		return nil
	})
	onErr = js.FuncOf(func(_ js.Value, args []js.Value) any {
		msg := "promise rejected"
		if len(args) > 0 {
			msg = describe(args[0])
		}
		ch <- result{err: errors.New(msg)}
		release()
		return nil
	})
	v.Call("then", onOK, onErr)

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		// The callbacks stay registered until the promise settles.
		return js.Undefined(), ctx.Err()
	}
}

// promise returns a JS Promise settled by fn, which runs on its own
// goroutine.
func promise(fn func() (any, error)) js.Value {
	var executor js.Func
	executor = js.FuncOf(func(_ js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			v, err := fn()
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(v)
		}()
		return nil
	})
	defer executor.Release()
	return js.Global().Get("Promise").New(executor)
}

func present(v js.Value) bool {
	return !v.IsUndefined() && !v.IsNull()
}

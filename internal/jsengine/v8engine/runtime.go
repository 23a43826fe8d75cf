//go:build v8 && !js

// Package v8engine runs script-backed native modules on V8.
package v8engine

import (
	"encoding/json"
	"fmt"
	"reflect"

	v8 "github.com/tommie/v8go"
	"github.com/webigeo/inputbridge/internal/jsengine"
)

// Runtime is a V8 isolate with a single context.
type Runtime struct {
	iso *v8.Isolate
	ctx *v8.Context
}

var (
	_ jsengine.Runtime    = (*Runtime)(nil)
	_ jsengine.ByteSetter = (*Runtime)(nil)
)

// New creates an isolate and context. memoryLimitMB <= 0 uses V8 defaults.
func New(memoryLimitMB int) (*Runtime, error) {
	var iso *v8.Isolate
	if memoryLimitMB > 0 {
		limit := uint64(memoryLimitMB) << 20
		iso = v8.NewIsolate(v8.WithResourceConstraints(limit/2, limit))
	} else {
		iso = v8.NewIsolate()
	}
	return &Runtime{iso: iso, ctx: v8.NewContext(iso)}, nil
}

// Factory returns a jsengine.Factory producing runtimes with the given limit.
func Factory(memoryLimitMB int) jsengine.Factory {
	return func() (jsengine.Runtime, error) {
		r, err := New(memoryLimitMB)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

func (r *Runtime) run(src string) (*v8.Value, error) {
	return r.ctx.RunScript(src, "native.js")
}

func (r *Runtime) Eval(src string) error {
	_, err := r.run(src)
	return err
}

func (r *Runtime) EvalString(src string) (string, error) {
	v, err := r.run(src)
	if err != nil || v == nil {
		return "", err
	}
	return v.String(), nil
}

func (r *Runtime) EvalBool(src string) (bool, error) {
	v, err := r.run(src)
	if err != nil {
		return false, err
	}
	if v == nil || !v.IsBoolean() {
		return false, fmt.Errorf("script did not produce a bool")
	}
	return v.Boolean(), nil
}

// RegisterFunc binds fn through a FunctionTemplate. Parameters and results
// may be string, int, int64, float64 or bool; a trailing error result is
// thrown as a TypeError.
func (r *Runtime) RegisterFunc(name string, fn any) error {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("registering %s: %T is not a function", name, fn)
	}
	returnsErr := ft.NumOut() > 0 && ft.Out(ft.NumOut()-1) == reflect.TypeFor[error]()

	tmpl := v8.NewFunctionTemplate(r.iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := info.Args()
		if len(args) < ft.NumIn() {
			return r.throw(fmt.Sprintf("%s: want %d arguments, got %d", name, ft.NumIn(), len(args)))
		}
		in := make([]reflect.Value, ft.NumIn())
		for i := range in {
			in[i] = fromJS(args[i], ft.In(i))
		}
		out := fv.Call(in)
		if returnsErr {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				return r.throw(fmt.Sprintf("calling %s: %v", name, err))
			}
			out = out[:len(out)-1]
		}
		if len(out) == 0 {
			return nil
		}
		v, _ := r.toJS(out[0].Interface())
		return v
	})
	return r.ctx.Global().Set(name, tmpl.GetFunction(r.ctx))
}

func (r *Runtime) throw(msg string) *v8.Value {
	quoted, _ := json.Marshal(msg)
	exc, err := r.run("new TypeError(" + string(quoted) + ")")
	if err != nil {
		exc, _ = v8.NewValue(r.iso, msg)
	}
	return r.iso.ThrowException(exc)
}

func (r *Runtime) SetGlobal(name string, value any) error {
	v, err := r.toJS(value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	return r.ctx.Global().Set(name, v)
}

// SetBytes fills a SharedArrayBuffer from Go and copies it into a plain
// Uint8Array at globalThis[name].
func (r *Runtime) SetBytes(name string, data []byte) error {
	const staging = "__bytes_staging"
	if _, err := r.run(fmt.Sprintf("globalThis.%s = new SharedArrayBuffer(%d);", staging, len(data))); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	if len(data) > 0 {
		sab, err := r.ctx.Global().Get(staging)
		if err != nil {
			return fmt.Errorf("setting %s: %w", name, err)
		}
		dst, release, err := sab.SharedArrayBufferGetContents()
		if err != nil {
			return fmt.Errorf("setting %s: %w", name, err)
		}
		copy(dst, data)
		release()
	}
	return r.Eval(fmt.Sprintf(`globalThis[%q] = new Uint8Array(globalThis.%[2]s).slice(); delete globalThis.%[2]s;`, name, staging))
}

func (r *Runtime) RunMicrotasks() {
	r.ctx.PerformMicrotaskCheckpoint()
}

func (r *Runtime) Close() {
	r.ctx.Close()
	r.iso.Dispose()
}

func fromJS(v *v8.Value, t reflect.Type) reflect.Value {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(v.String())
	case reflect.Int:
		return reflect.ValueOf(int(v.Integer()))
	case reflect.Int64:
		return reflect.ValueOf(v.Integer())
	case reflect.Float64:
		return reflect.ValueOf(v.Number())
	case reflect.Bool:
		return reflect.ValueOf(v.Boolean())
	}
	return reflect.Zero(t)
}

func (r *Runtime) toJS(value any) (*v8.Value, error) {
	switch v := value.(type) {
	case nil:
		return v8.Undefined(r.iso), nil
	case string, bool, float64, int32:
		return v8.NewValue(r.iso, v)
	case int:
		return v8.NewValue(r.iso, float64(v))
	case int64:
		return v8.NewValue(r.iso, float64(v))
	case *v8.Value:
		return v, nil
	}
	return nil, fmt.Errorf("unsupported value %T", value)
}

//go:build !v8 && !js

// Package quickjs runs script-backed native modules on modernc.org/quickjs.
package quickjs

import (
	"fmt"

	"github.com/webigeo/inputbridge/internal/jsengine"
	"modernc.org/quickjs"
)

// Runtime is a QuickJS context.
type Runtime struct {
	vm *quickjs.VM
	c  capi
	// direct is false when the C handles could not be located; byte
	// arguments then cross as text and promise jobs never run.
	direct bool
}

var (
	_ jsengine.Runtime    = (*Runtime)(nil)
	_ jsengine.ByteSetter = (*Runtime)(nil)
)

// New creates a QuickJS runtime. memoryLimitMB <= 0 leaves the heap unbounded.
func New(memoryLimitMB int) (*Runtime, error) {
	vm, err := quickjs.NewVM()
	if err != nil {
		return nil, fmt.Errorf("creating QuickJS VM: %w", err)
	}
	if memoryLimitMB > 0 {
		vm.SetMemoryLimit(uintptr(memoryLimitMB) << 20)
	}
	r := &Runtime{vm: vm}
	if c, err := capiOf(vm); err == nil {
		r.c, r.direct = c, true
	}
	return r, nil
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

func (r *Runtime) eval(src string) (any, error) {
	return r.vm.Eval(src, quickjs.EvalGlobal)
}

func (r *Runtime) Eval(src string) error {
	v, err := r.vm.EvalValue(src, quickjs.EvalGlobal)
	if err != nil {
		return err
	}
	v.Free()
	return nil
}

func (r *Runtime) EvalString(src string) (string, error) {
	v, err := r.eval(src)
	if err != nil || v == nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

func (r *Runtime) EvalBool(src string) (bool, error) {
	v, err := r.eval(src)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("script produced %T, not bool", v)
	}
	return b, nil
}

// RegisterFunc binds fn under a hidden name and installs a wrapper at name.
// The binding hands (T, error) results to JS as a [value, error] pair; the
// wrapper turns a set error into a thrown TypeError.
func (r *Runtime) RegisterFunc(name string, fn any) error {
	hidden := "__go_" + name
	if err := r.vm.RegisterFunc(hidden, fn, false); err != nil {
		return fmt.Errorf("registering %s: %w", name, err)
	}
	return r.Eval(fmt.Sprintf(`(function(bound) {
		delete globalThis[%[1]q];
		globalThis[%[2]q] = function() {
			var out = bound.apply(this, arguments);
			if (!Array.isArray(out)) return out;
			if (out[1] != null) throw new TypeError(%[3]q + out[1]);
			return out[0];
		};
	})(globalThis[%[1]q])`, hidden, name, "calling "+name+": "))
}

func (r *Runtime) SetGlobal(name string, value any) error {
	atom, err := r.vm.NewAtom(name)
	if err != nil {
		return fmt.Errorf("atom %q: %w", name, err)
	}
	glob := r.vm.GlobalObject()
	defer glob.Free()
	return glob.SetProperty(atom, value)
}

// SetBytes sets globalThis[name] to a Uint8Array copy of data.
func (r *Runtime) SetBytes(name string, data []byte) error {
	if !r.direct {
		return jsengine.SetBytesText(r, name, data)
	}
	if err := r.c.setArrayBuffer(name, data); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	return r.Eval(fmt.Sprintf("globalThis[%[1]q] = new Uint8Array(globalThis[%[1]q]);", name))
}

func (r *Runtime) RunMicrotasks() {
	if r.direct {
		r.c.pumpJobs()
	}
}

func (r *Runtime) Close() {
	r.vm.Close()
}

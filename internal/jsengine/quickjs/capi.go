//go:build !v8 && !js

package quickjs

import (
	"errors"
	"reflect"
	"unsafe"

	"modernc.org/libc"
	lib "modernc.org/libquickjs"
	"modernc.org/quickjs"
)

// capi holds the C-level handles behind a *quickjs.VM. The wrapper keeps
// them unexported; it never pumps the job queue and has no ArrayBuffer
// constructor, so both go through the C API.
//
//	type VM struct      { cContext uintptr; ...; runtime *runtime; ... }
//	type runtime struct { cRuntime uintptr; tls *libc.TLS; ... }
type capi struct {
	tls *libc.TLS
	ctx uintptr
	rt  uintptr
}

var errLayout = errors.New("unexpected quickjs.VM layout")

func capiOf(vm *quickjs.VM) (c capi, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errLayout
		}
	}()

	vmVal := reflect.ValueOf(vm).Elem()
	if f := vmVal.Field(0); f.Kind() == reflect.Uintptr {
		c.ctx = uintptr(f.Uint())
	}

	rtField := vmVal.FieldByName("runtime")
	if !rtField.IsValid() || rtField.IsNil() {
		return capi{}, errLayout
	}
	rtVal := reflect.NewAt(rtField.Type().Elem(), unsafe.Pointer(rtField.Pointer())).Elem()
	if f := rtVal.FieldByName("cRuntime"); f.IsValid() {
		c.rt = uintptr(f.Uint())
	}
	if f := rtVal.FieldByName("tls"); f.IsValid() && !f.IsNil() {
		c.tls = (*libc.TLS)(unsafe.Pointer(f.Pointer()))
	}
	if c.ctx == 0 || c.rt == 0 || c.tls == nil {
		return capi{}, errLayout
	}
	return c, nil
}

// pumpJobs runs pending promise jobs and returns how many ran.
func (c capi) pumpJobs() int {
	n := 0
	for lib.XJS_ExecutePendingJob(c.tls, c.rt, 0) > 0 {
		n++
	}
	return n
}

// setArrayBuffer stores a copy of data as an ArrayBuffer global.
func (c capi) setArrayBuffer(name string, data []byte) error {
	var ptr uintptr
	if len(data) > 0 {
		ptr = uintptr(unsafe.Pointer(&data[0]))
	}
	buf := lib.XJS_NewArrayBufferCopy(c.tls, c.ctx, ptr, lib.Tsize_t(len(data)))

	cName, err := libc.CString(name)
	if err != nil {
		lib.XFreeValue(c.tls, c.ctx, buf)
		return err
	}
	defer libc.Xfree(c.tls, cName)

	glob := lib.XJS_GetGlobalObject(c.tls, c.ctx)
	defer lib.XFreeValue(c.tls, c.ctx, glob)
	// The property takes ownership of buf.
	if lib.XJS_SetPropertyStr(c.tls, c.ctx, glob, cName, buf) < 0 {
		return errors.New("JS_SetPropertyStr failed")
	}
	return nil
}

//go:build js && wasm

package browser

import (
	"context"
	"syscall/js"

	"github.com/webigeo/inputbridge/internal/probe"
)

// GPU returns navigator.gpu, or nil when the page has no WebGPU.
func GPU() probe.GPU {
	nav := js.Global().Get("navigator")
	if !present(nav) {
		return nil
	}
	g := nav.Get("gpu")
	if !present(g) {
		return nil
	}
	return jsGPU{v: g}
}

type jsGPU struct{ v js.Value }

func (g jsGPU) RequestAdapter(ctx context.Context) (probe.Adapter, error) {
	p, err := call(func() js.Value { return g.v.Call("requestAdapter") })
	if err != nil {
		return nil, err
	}
	a, err := await(ctx, p)
	if err != nil || !present(a) {
		return nil, err
	}
	return jsAdapter{v: a}, nil
}

type jsAdapter struct{ v js.Value }

func (a jsAdapter) RequestDevice(ctx context.Context, features []string) (probe.Device, error) {
	list := make([]any, len(features))
	for i, f := range features {
		list[i] = f
	}
	p, err := call(func() js.Value {
		return a.v.Call("requestDevice", map[string]any{"requiredFeatures": list})
	})
	if err != nil {
		return nil, err
	}
	d, err := await(ctx, p)
	if err != nil || !present(d) {
		return nil, err
	}
	return jsDevice{v: d}, nil
}

type jsDevice struct{ v js.Value }

func (d jsDevice) HasFeature(name string) bool {
	f := d.v.Get("features")
	return present(f) && f.Call("has", name).Bool()
}

func (d jsDevice) CreateCommandEncoder() probe.CommandEncoder {
	enc, err := call(func() js.Value { return d.v.Call("createCommandEncoder") })
	if err != nil || !present(enc) {
		return nil
	}
	return jsEncoder{v: enc}
}

type jsEncoder struct{ v js.Value }

func (e jsEncoder) HasOperation(name string) bool {
	return e.v.Get(name).Type() == js.TypeFunction
}

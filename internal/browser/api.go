//go:build js && wasm

package browser

import (
	"context"
	"errors"
	"syscall/js"
	"time"

	inputbridge "github.com/webigeo/inputbridge"
	"github.com/webigeo/inputbridge/internal/wsbridge"
)

// DefaultGlobal is the name the page API is published under.
const DefaultGlobal = "inputbridge"

const probeTimeout = 10 * time.Second

// Export publishes the page API on globalThis[name]:
//
//	attach(module)                  use an Emscripten module as native target
//	connect(url)                    use a websocket bridge as native target (Promise)
//	detach()
//	log(text), showLog(), hideLog(), toggleLog(), clearLog()
//	probe()                         Promise of {webgpuAvailable, webgpuTimingsAvailable}
//	uploadFileWithDialog(filter, tag)
//
// The returned function unpublishes it and releases the callbacks.
func Export(b *inputbridge.Bridge, ref *ModuleRef, name string) (unexport func()) {
	var funcs []js.Func
	fn := func(f func(args []js.Value) any) js.Func {
		jf := js.FuncOf(func(_ js.Value, args []js.Value) any { return f(args) })
		funcs = append(funcs, jf)
		return jf
	}
	arg := func(args []js.Value, i int) js.Value {
		if i < len(args) {
			return args[i]
		}
		return js.Undefined()
	}
	str := func(v js.Value) string {
		if v.Type() == js.TypeString {
			return v.String()
		}
		return ""
	}

	api := js.Global().Get("Object").New()
	api.Set("attach", fn(func(args []js.Value) any {
		mod := arg(args, 0)
		if !present(mod) {
			return nil
		}
		ref.Set(mod)
		b.Attach(NewCcall(mod))
		return nil
	}))
	api.Set("connect", fn(func(args []js.Value) any {
		url := str(arg(args, 0))
		return promise(func() (any, error) {
			if url == "" {
				return nil, errors.New("connect: missing url")
			}
			c, err := wsbridge.Dial(context.Background(), url, b.Log)
			if err != nil {
				return nil, err
			}
			b.Attach(c)
			go func() {
				<-c.Done()
				b.Log("bridge connection closed")
			}()
			return true, nil
		})
	}))
	api.Set("detach", fn(func([]js.Value) any {
		b.Detach()
		return nil
	}))
	api.Set("log", fn(func(args []js.Value) any {
		b.Log(describe(arg(args, 0)))
		return nil
	}))
	api.Set("showLog", fn(func([]js.Value) any { b.Console().Show(); return nil }))
	api.Set("hideLog", fn(func([]js.Value) any { b.Console().Hide(); return nil }))
	api.Set("toggleLog", fn(func([]js.Value) any { b.Console().Toggle(); return nil }))
	api.Set("clearLog", fn(func([]js.Value) any { b.Console().Clear(); return nil }))
	api.Set("probe", fn(func([]js.Value) any {
		return promise(func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			defer cancel()
			caps := b.Probe(ctx)
			return map[string]any{
				"webgpuAvailable":        caps.GraphicsAvailable,
				"webgpuTimingsAvailable": caps.TimingAvailable,
			}, nil
		})
	}))
	api.Set("uploadFileWithDialog", fn(func(args []js.Value) any {
		openFileDialog(b, str(arg(args, 0)), str(arg(args, 1)))
		return nil
	}))

	js.Global().Set(name, api)
	return func() {
		js.Global().Delete(name)
		for _, f := range funcs {
			f.Release()
		}
	}
}

// openFileDialog lets the user pick one file and hands its bytes to the
// native module tagged with tag.
func openFileDialog(b *inputbridge.Bridge, filter, tag string) {
	doc := js.Global().Get("document")
	input := doc.Call("createElement", "input")
	input.Set("type", "file")
	if filter != "" {
		input.Set("accept", filter)
	}
	input.Get("style").Set("display", "none")

	var onChange js.Func
	onChange = js.FuncOf(func(js.Value, []js.Value) any {
		onChange.Release()
		files := input.Get("files")
		if !present(files) || files.Length() == 0 {
			input.Call("remove")
			return nil
		}
		file := files.Index(0)
		name := file.Get("name").String()
		go func() {
			defer input.Call("remove")
			buf, err := await(context.Background(), file.Call("arrayBuffer"))
			if err != nil {
				b.Log("upload " + name + ": " + err.Error())
				return
			}
			arr := js.Global().Get("Uint8Array").New(buf)
			data := make([]byte, arr.Length())
			js.CopyBytesToGo(data, arr)
			b.Upload(name, tag, data, func(path string, err error) {
				if err != nil {
					b.Log("upload " + name + ": " + err.Error())
					return
				}
				b.Log("uploaded " + path)
			})
		}()
		return nil
	})
	input.Call("addEventListener", "change", onChange)
	doc.Get("body").Call("appendChild", input)
	input.Call("click")
}

//go:build js && wasm

package browser

import (
	"errors"
	"fmt"
	"sync"
	"syscall/js"

	inputbridge "github.com/webigeo/inputbridge"
)

// Page holds the elements the bridge is attached to.
type Page struct {
	// Canvas receives touch and mouse input.
	Canvas js.Value
	// LogWrapper contains the log panel and its buttons.
	LogWrapper js.Value
	// LogElement receives the log markup.
	LogElement js.Value
}

// ModuleRef holds the Emscripten module instance once the page has one.
type ModuleRef struct {
	mu sync.Mutex
	v  js.Value
}

// Set records the module instance.
func (r *ModuleRef) Set(v js.Value) {
	r.mu.Lock()
	r.v = v
	r.mu.Unlock()
}

// Get returns the module instance, or undefined before Set.
func (r *ModuleRef) Get() js.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.v
}

// HostFor builds the bridge host for p. File hand-off goes to the file
// system of whatever module ref holds when the upload runs.
func HostFor(p Page, ref *ModuleRef) inputbridge.Host {
	h := inputbridge.Host{
		Surface:  surface{canvas: p.Canvas, wrapper: p.LogWrapper},
		Viewport: windowSize{},
		Emulator: emulatorPage{wrapper: p.LogWrapper},
	}
	if present(p.LogWrapper) && present(p.LogElement) {
		h.View = logView{wrapper: p.LogWrapper, element: p.LogElement}
	}
	if ref != nil {
		h.Files = moduleFS{ref: ref}
	}
	if g := GPU(); g != nil {
		h.GPU = g
	}
	return h
}

type surface struct {
	canvas, wrapper js.Value
}

func (s surface) SetSelectable(selectable bool) {
	if !present(s.wrapper) {
		return
	}
	if selectable {
		s.wrapper.Get("classList").Call("remove", "noselect")
	} else {
		s.wrapper.Get("classList").Call("add", "noselect")
	}
}

func (s surface) CapturePointer() {
	if present(s.canvas) && s.canvas.Get("setCapture").Type() == js.TypeFunction {
		s.canvas.Call("setCapture")
	}
}

func (s surface) ReleasePointer() {
	if present(s.canvas) && s.canvas.Get("releaseCapture").Type() == js.TypeFunction {
		s.canvas.Call("releaseCapture")
	}
}

type windowSize struct{}

func (windowSize) Size() (int, int) {
	w := js.Global()
	return w.Get("innerWidth").Int(), w.Get("innerHeight").Int()
}

type logView struct {
	wrapper, element js.Value
}

func (v logView) SetVisible(visible bool) {
	display := "none"
	if visible {
		display = "block"
	}
	v.wrapper.Get("style").Set("display", display)
}

func (v logView) AppendHTML(markup string) {
	v.element.Set("innerHTML", v.element.Get("innerHTML").String()+markup)
	v.element.Set("scrollTop", v.element.Get("scrollHeight"))
}

func (v logView) ClearHTML() {
	v.element.Set("innerHTML", "")
}

type emulatorPage struct {
	wrapper js.Value
}

func (p emulatorPage) InjectScript(src string, onLoad func()) error {
	doc := js.Global().Get("document")
	head := doc.Get("head")
	if !present(head) {
		return fmt.Errorf("document has no head")
	}
	script := doc.Call("createElement", "script")
	script.Set("src", src)
	var loaded js.Func
	loaded = js.FuncOf(func(js.Value, []js.Value) any {
		loaded.Release()
		onLoad()
		return nil
	})
	script.Set("onload", loaded)
	head.Call("appendChild", script)
	return nil
}

func (p emulatorPage) StartEmulator() error {
	fn := js.Global().Get("TouchEmulator")
	if fn.Type() != js.TypeFunction {
		return fmt.Errorf("TouchEmulator is not defined")
	}
	_, err := call(func() js.Value { return fn.Invoke() })
	return err
}

func (p emulatorPage) HideTrigger() {
	if !present(p.wrapper) {
		return
	}
	if btn := p.wrapper.Call("querySelector", "#buttouchemulator"); present(btn) {
		btn.Get("style").Set("display", "none")
	}
}

type moduleFS struct {
	ref *ModuleRef
}

var errNoModuleFS = errors.New("module file system not available")

func (m moduleFS) fs() (js.Value, error) {
	mod := m.ref.Get()
	if !present(mod) || !present(mod.Get("FS")) {
		return js.Undefined(), errNoModuleFS
	}
	return mod.Get("FS"), nil
}

func (m moduleFS) Mkdir(dir string) error {
	fs, err := m.fs()
	if err != nil {
		return err
	}
	_, err = call(func() js.Value { return fs.Call("mkdir", dir) })
	return err
}

func (m moduleFS) WriteFile(name string, data []byte) error {
	fs, err := m.fs()
	if err != nil {
		return err
	}
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	_, err = call(func() js.Value { return fs.Call("writeFile", name, arr) })
	return err
}

//go:build js && wasm

package browser

import (
	"log"
	"syscall/js"

	inputbridge "github.com/webigeo/inputbridge"
	"github.com/webigeo/inputbridge/internal/core"
	"github.com/webigeo/inputbridge/internal/mouse"
	"github.com/webigeo/inputbridge/internal/touch"
)

// listeners tracks registered DOM handlers so they can be removed.
type listeners struct {
	entries []listener
}

type listener struct {
	target js.Value
	event  string
	fn     js.Func
}

func (l *listeners) on(target js.Value, event string, fn func(ev js.Value)) {
	if !present(target) {
		return
	}
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			fn(args[0])
		}
		return nil
	})
	target.Call("addEventListener", event, f)
	l.entries = append(l.entries, listener{target: target, event: event, fn: f})
}

func (l *listeners) removeAll() {
	for _, e := range l.entries {
		e.target.Call("removeEventListener", e.event, e.fn)
		e.fn.Release()
	}
	l.entries = nil
}

func contacts(list js.Value) []core.Contact {
	if !present(list) {
		return nil
	}
	n := list.Length()
	out := make([]core.Contact, 0, n)
	for i := 0; i < n; i++ {
		t := list.Index(i)
		out = append(out, core.Contact{
			X:  t.Get("clientX").Float(),
			Y:  t.Get("clientY").Float(),
			ID: t.Get("identifier").Int(),
		})
	}
	return out
}

func mouseEvent(ev js.Value) mouse.Event {
	return mouse.Event{
		Button: ev.Get("button").Int(),
		X:      ev.Get("clientX").Float(),
		Y:      ev.Get("clientY").Float(),
	}
}

// Install registers the page listeners that feed b and returns a function
// removing them again.
func Install(b *inputbridge.Bridge, p Page) (remove func()) {
	l := &listeners{}
	win := js.Global()

	onTouch := func(ev js.Value) {
		ev.Call("preventDefault")
		b.Touch(touch.Batch{
			Changed: contacts(ev.Get("changedTouches")),
			Active:  contacts(ev.Get("touches")),
			Type:    ev.Get("type").String(),
		})
	}
	for _, name := range []string{"touchstart", "touchmove", "touchend", "touchcancel"} {
		l.on(p.Canvas, name, onTouch)
	}

	l.on(p.Canvas, "mousedown", func(ev js.Value) {
		b.MouseDown(mouseEvent(ev))
	})
	// Window-level moves and releases only matter to a gesture holding the
	// listener slot; the bridge routes them there or drops them.
	l.on(win, "mousemove", func(ev js.Value) {
		if ev.Get("buttons").Int() == 0 && !b.Capturing() {
			return
		}
		b.MouseMove(mouseEvent(ev))
	})
	l.on(win, "mouseup", func(ev js.Value) {
		b.MouseUp(mouseEvent(ev))
	})
	l.on(p.Canvas, "contextmenu", func(ev js.Value) {
		if b.ContextMenu() {
			ev.Call("preventDefault")
			ev.Call("stopPropagation")
		}
	})

	l.on(win, "keydown", func(ev js.Value) {
		if key := ev.Get("key"); key.Type() == js.TypeString {
			b.KeyDown(key.String())
		}
	})
	l.on(win, "resize", func(js.Value) {
		b.ViewportChanged()
	})

	if present(p.LogWrapper) {
		button := func(id string) js.Value {
			return p.LogWrapper.Call("querySelector", id)
		}
		l.on(button("#butclearlog"), "click", func(js.Value) {
			b.Console().Clear()
		})
		l.on(button("#buthidelog"), "click", func(js.Value) {
			b.Console().Hide()
		})
		l.on(button("#buttouchemulator"), "click", func(js.Value) {
			if _, err := b.LoadTouchEmulator(); err != nil {
				log.Printf("inputbridge: touch emulator: %v", err)
			}
		})
	}

	return l.removeAll
}

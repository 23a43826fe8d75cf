// Package inputbridge forwards browser input to a separately compiled
// native graphics module. Touch batches, mouse gestures and viewport sizes
// become fixed-arity calls; a log panel, a GPU capability probe, an on-demand
// touch emulator and file hand-off round out the page integration.
//
// Every call toward the native module runs on a single dispatch loop in
// arrival order. With no native module attached, input is dropped silently.
package inputbridge

import (
	"context"
	"fmt"

	"github.com/webigeo/inputbridge/internal/console"
	"github.com/webigeo/inputbridge/internal/core"
	"github.com/webigeo/inputbridge/internal/dispatch"
	"github.com/webigeo/inputbridge/internal/emulator"
	"github.com/webigeo/inputbridge/internal/mouse"
	"github.com/webigeo/inputbridge/internal/probe"
	"github.com/webigeo/inputbridge/internal/touch"
	"github.com/webigeo/inputbridge/internal/upload"
	"github.com/webigeo/inputbridge/internal/viewport"
)

// Host is the page the bridge is installed in. Nil members disable the
// features that need them.
type Host struct {
	Surface  mouse.Surface
	Viewport viewport.Source
	View     console.View
	Emulator emulator.Injector
	Files    upload.FS
	GPU      probe.GPU
}

// Bridge is the input/event bridge.
type Bridge struct {
	cfg  Config
	link core.Link
	loop *dispatch.Loop

	touch    *touch.Encoder
	slot     *mouse.Slot
	capture  *mouse.Capture
	viewport *viewport.Notifier
	panel    *console.Panel
	keys     *console.KeyToggle
	emulator *emulator.Loader
	uploader *upload.Uploader
	gpu      probe.GPU
}

// New returns a Bridge with nothing attached. Start its loop with Run.
func New(cfg Config, host Host) *Bridge {
	b := &Bridge{
		cfg:  cfg,
		loop: dispatch.New(),
		gpu:  host.GPU,
	}
	b.touch = touch.NewEncoder(&b.link)
	b.slot = &mouse.Slot{}
	b.capture = mouse.NewCapture(&b.link, b.slot, host.Surface)
	b.viewport = viewport.NewNotifier(&b.link, host.Viewport)
	b.panel = console.NewPanel(host.View, cfg.EchoLog)
	b.keys = console.NewKeyToggle(b.panel, cfg.ToggleKey)
	if host.Emulator != nil {
		b.emulator = emulator.NewLoader(host.Emulator, cfg.EmulatorScript)
	}
	if host.Files != nil {
		b.uploader = upload.New(host.Files, cfg.UploadDir, &b.link)
	}
	return b
}

// Run drains the dispatch loop until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	return b.loop.Run(ctx)
}

// Flush waits for all input posted so far to be handled.
func (b *Bridge) Flush(ctx context.Context) error {
	return b.loop.Flush(ctx)
}

// Attach makes n the native target and immediately reports the viewport
// size, ahead of any input posted after this call.
func (b *Bridge) Attach(n core.Native) {
	b.loop.Post("attach", func(ctx context.Context) error {
		b.link.Attach(n)
		return b.viewport.Notify(ctx)
	})
}

// Detach drops the native target once previously posted input is handled.
func (b *Bridge) Detach() {
	b.loop.Post("detach", func(context.Context) error {
		b.link.Detach()
		return nil
	})
}

// Attached reports whether a native target is currently attached.
func (b *Bridge) Attached() bool {
	return b.link.Attached()
}

// Touch forwards one touch batch. With CoalesceMoves, a queued move batch
// is merged into a newer one instead of being sent separately.
func (b *Bridge) Touch(batch touch.Batch) {
	if b.cfg.CoalesceMoves && touch.PhaseOf(batch.Type) == core.PhaseMove {
		dispatch.PostMerged(b.loop, "touchmove", batch, touch.Merge, b.touch.Handle)
		return
	}
	b.loop.Post("touch", func(ctx context.Context) error { return b.touch.Handle(ctx, batch) })
}

// MouseDown starts a capture gesture on the surface.
func (b *Bridge) MouseDown(ev mouse.Event) {
	b.loop.Post("mousedown", func(ctx context.Context) error {
		return b.capture.Down(ctx, ev)
	})
}

// MouseMove delivers a window-level pointer move to the gesture holding the
// listener slot.
func (b *Bridge) MouseMove(ev mouse.Event) {
	task := func(ctx context.Context) error { return b.slot.Move(ctx, ev) }
	if b.cfg.CoalesceMoves {
		b.loop.PostLatest("mousemove", task)
		return
	}
	b.loop.Post("mousemove", task)
}

// MouseUp delivers a window-level button release.
func (b *Bridge) MouseUp(ev mouse.Event) {
	b.loop.Post("mouseup", func(ctx context.Context) error {
		return b.slot.Up(ctx, ev)
	})
}

// ContextMenu reports whether the host's context menu must be suppressed.
func (b *Bridge) ContextMenu() bool {
	return b.capture.ContextMenu()
}

// Capturing reports whether a mouse gesture is in progress. Input posted
// before the call may not be reflected yet.
func (b *Bridge) Capturing() bool {
	return b.capture.State() == mouse.Captured
}

// KeyDown handles a key press and reports whether it was consumed.
func (b *Bridge) KeyDown(key string) bool {
	return b.keys.HandleKey(key)
}

// Resize forwards an explicit viewport size.
func (b *Bridge) Resize(width, height int) {
	task := func(ctx context.Context) error { return b.viewport.Resize(ctx, width, height) }
	if b.cfg.CoalesceResize {
		b.loop.PostLatest("resize", task)
		return
	}
	b.loop.Post("resize", task)
}

// ViewportChanged forwards the size the host viewport reports when the task
// runs.
func (b *Bridge) ViewportChanged() {
	task := func(ctx context.Context) error { return b.viewport.Notify(ctx) }
	if b.cfg.CoalesceResize {
		b.loop.PostLatest("resize", task)
		return
	}
	b.loop.Post("resize", task)
}

// Log appends a line to the log panel.
func (b *Bridge) Log(text string) {
	b.panel.Log(text)
}

// Console returns the log panel.
func (b *Bridge) Console() *console.Panel {
	return b.panel
}

// Probe checks the host's graphics and timing support. It never fails.
func (b *Bridge) Probe(ctx context.Context) probe.Capabilities {
	return probe.Probe(ctx, b.gpu)
}

// LoadTouchEmulator injects the touch emulator once. It reports whether this
// call did the injection.
func (b *Bridge) LoadTouchEmulator() (bool, error) {
	if b.emulator == nil {
		return false, fmt.Errorf("touch emulator not available")
	}
	return b.emulator.Load()
}

// Upload stores a file in the module file system and announces it. done,
// if not nil, receives the stored path and the outcome once the task ran.
func (b *Bridge) Upload(name, tag string, data []byte, done func(path string, err error)) {
	b.loop.Post("upload", func(ctx context.Context) error {
		if b.uploader == nil {
			err := fmt.Errorf("file upload not available")
			if done != nil {
				done("", err)
			}
			return err
		}
		path, err := b.uploader.Deliver(ctx, name, tag, data)
		if done != nil {
			done(path, err)
		}
		return err
	})
}

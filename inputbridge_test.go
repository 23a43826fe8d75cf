package inputbridge

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/webigeo/inputbridge/internal/core"
	"github.com/webigeo/inputbridge/internal/probe"
)

type fakeSurface struct {
	mu     sync.Mutex
	events []string
}

func (s *fakeSurface) record(e string) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *fakeSurface) SetSelectable(v bool) {
	if v {
		s.record("selectable")
	} else {
		s.record("unselectable")
	}
}
func (s *fakeSurface) CapturePointer() { s.record("capture") }
func (s *fakeSurface) ReleasePointer() { s.record("release") }

type fakeFS struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (f *fakeFS) Mkdir(string) error { return nil }
func (f *fakeFS) WriteFile(name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.files == nil {
		f.files = make(map[string][]byte)
	}
	f.files[name] = data
	return nil
}

type fakeInjector struct{ injected, hidden int }

func (i *fakeInjector) InjectScript(src string, onLoad func()) error {
	i.injected++
	onLoad()
	return nil
}
func (i *fakeInjector) StartEmulator() error { return nil }
func (i *fakeInjector) HideTrigger()         { i.hidden++ }

func startBridge(t *testing.T, cfg Config, host Host) *Bridge {
	t.Helper()
	b := New(cfg, host)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return b
}

func flushBridge(t *testing.T, b *Bridge) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func sizeSource(w, h int) Host {
	return Host{Viewport: sizeFunc(func() (int, int) { return w, h })}
}

type sizeFunc func() (int, int)

func (f sizeFunc) Size() (int, int) { return f() }

func TestBridge_AttachSendsInitialResizeFirst(t *testing.T) {
	b := startBridge(t, DefaultConfig(), sizeSource(1024, 768))
	rec := &core.Recorder{}
	b.Attach(rec)
	b.Touch(TouchBatch{Type: "touchstart", Changed: []Contact{{X: 1, Y: 1, ID: 1}}})
	flushBridge(t, b)

	calls := rec.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %v, want resize then touch", rec.Names())
	}
	if calls[0].Name != CallResize || !reflect.DeepEqual(calls[0].Args, []any{1024, 768}) {
		t.Errorf("first call = %+v, want %s(1024, 768)", calls[0], CallResize)
	}
	if calls[1].Name != CallTouch || len(calls[1].Args) != core.TouchArity {
		t.Errorf("second call = %+v", calls[1])
	}
	if !b.Attached() {
		t.Error("Attached() = false after attach")
	}
}

func TestBridge_UnattachedDropsInput(t *testing.T) {
	b := startBridge(t, DefaultConfig(), Host{})
	b.Touch(TouchBatch{
		Type:    "touchstart",
		Changed: []Contact{{X: 1, Y: 2, ID: 0}, {X: 3, Y: 4, ID: 1}},
		Active:  []Contact{{X: 1, Y: 2, ID: 0}, {X: 3, Y: 4, ID: 1}},
	})
	b.MouseDown(MouseEvent{Button: 0, X: 1, Y: 1})
	b.MouseMove(MouseEvent{X: 2, Y: 2})
	b.MouseUp(MouseEvent{X: 2, Y: 2})
	b.Resize(10, 10)
	flushBridge(t, b)

	// Attaching afterwards sees none of the earlier input.
	rec := &core.Recorder{}
	b.Attach(rec)
	flushBridge(t, b)
	if len(rec.Calls()) != 0 {
		t.Errorf("calls = %v, want none (no viewport source)", rec.Names())
	}
}

func TestBridge_MouseGesture(t *testing.T) {
	surface := &fakeSurface{}
	b := startBridge(t, DefaultConfig(), Host{Surface: surface})
	rec := &core.Recorder{}
	b.Attach(rec)

	b.MouseDown(MouseEvent{Button: 2, X: 10, Y: 10})
	for i := 1; i <= 3; i++ {
		b.MouseMove(MouseEvent{Button: 2, X: 10 + float64(i), Y: 10})
	}
	b.MouseUp(MouseEvent{Button: 2, X: 13, Y: 10})
	b.MouseMove(MouseEvent{X: 50, Y: 50})
	flushBridge(t, b)

	want := []string{CallMouseButton, CallMousePosition, CallMousePosition, CallMousePosition, CallMouseButton}
	if got := rec.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	calls := rec.Calls()
	if !reflect.DeepEqual(calls[0].Args, []any{1, 1, 0, 10.0, 10.0}) {
		t.Errorf("button down args = %v", calls[0].Args)
	}
	if calls[1].Args[0] != 1 {
		t.Errorf("position button = %v, want mapped 1", calls[1].Args[0])
	}
	if !reflect.DeepEqual(calls[4].Args, []any{1, 0, 0, 13.0, 10.0}) {
		t.Errorf("button up args = %v", calls[4].Args)
	}
	if b.Capturing() {
		t.Error("still capturing after release")
	}
	wantSurface := []string{"unselectable", "capture", "selectable", "release"}
	if !reflect.DeepEqual(surface.events, wantSurface) {
		t.Errorf("surface = %v, want %v", surface.events, wantSurface)
	}
	if !b.ContextMenu() {
		t.Error("context menu must always be suppressed")
	}
}

func TestBridge_CoalescesQueuedMoves(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CoalesceMoves = true
	cfg.CoalesceResize = true
	b := New(cfg, Host{})
	rec := &core.Recorder{}

	// Queue everything before the loop runs.
	b.Attach(rec)
	b.MouseDown(MouseEvent{X: 0, Y: 0})
	b.MouseMove(MouseEvent{X: 1, Y: 1})
	b.MouseMove(MouseEvent{X: 2, Y: 2})
	b.MouseMove(MouseEvent{X: 3, Y: 3})
	b.Resize(100, 100)
	b.Resize(200, 100)
	b.MouseUp(MouseEvent{X: 3, Y: 3})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)
	flushBridge(t, b)

	want := []string{CallMouseButton, CallMousePosition, CallResize, CallMouseButton}
	if got := rec.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	calls := rec.Calls()
	if calls[1].Args[1] != 3.0 {
		t.Errorf("coalesced move x = %v, want latest (3)", calls[1].Args[1])
	}
	if calls[2].Args[0] != 200 {
		t.Errorf("coalesced resize width = %v, want 200", calls[2].Args[0])
	}
}

func TestBridge_CoalescedTouchMovesKeepChangedContacts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CoalesceMoves = true
	b := New(cfg, Host{})
	rec := &core.Recorder{}

	both := func(x1, x2 float64) []Contact {
		return []Contact{{X: x1, Y: 0, ID: 1}, {X: x2, Y: 0, ID: 2}}
	}
	b.Attach(rec)
	b.Touch(TouchBatch{Changed: []Contact{{X: 10, Y: 0, ID: 1}}, Active: both(10, 20), Type: "touchmove"})
	b.Touch(TouchBatch{Changed: []Contact{{X: 21, Y: 0, ID: 2}}, Active: both(10, 21), Type: "touchmove"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)
	flushBridge(t, b)

	calls := rec.Calls()
	if len(calls) != 1 || calls[0].Name != CallTouch {
		t.Fatalf("calls = %v, want one %s", rec.Names(), CallTouch)
	}
	args := calls[0].Args
	// changed slots: x,y,id triples at 0..8
	if args[2] != 1 || args[5] != 2 || args[8] != -1 {
		t.Errorf("changed ids = %v %v %v, want 1 2 -1", args[2], args[5], args[8])
	}
	if args[3] != 21.0 {
		t.Errorf("contact 2 x = %v, want 21", args[3])
	}
}

func TestBridge_NativeErrorsDoNotStopInput(t *testing.T) {
	b := startBridge(t, DefaultConfig(), Host{})
	rec := &core.Recorder{}
	rec.FailWith(errors.New("module busy"))
	b.Attach(rec)
	b.MouseDown(MouseEvent{X: 1, Y: 1})
	b.MouseUp(MouseEvent{X: 1, Y: 1})
	b.MouseDown(MouseEvent{X: 2, Y: 2})
	flushBridge(t, b)
	if got := len(rec.Calls()); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
	if !b.Capturing() {
		t.Error("second gesture should have started")
	}
}

func TestBridge_DetachAfterQueuedInput(t *testing.T) {
	b := startBridge(t, DefaultConfig(), Host{})
	rec := &core.Recorder{}
	b.Attach(rec)
	b.Resize(1, 1)
	b.Detach()
	b.Resize(2, 2)
	flushBridge(t, b)
	if got := len(rec.Calls()); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
	if b.Attached() {
		t.Error("still attached")
	}
}

func TestBridge_KeyToggleAndLog(t *testing.T) {
	b := New(DefaultConfig(), Host{})
	if b.Console().Visible() {
		t.Fatal("panel should start hidden")
	}
	if b.KeyDown("a") {
		t.Error("unrelated key consumed")
	}
	if !b.KeyDown("Dead") || !b.Console().Visible() {
		t.Error("toggle key should show the panel")
	}
	b.Log("\x1b[31merror\x1b[0m")
	if html := b.Console().HTML(); !strings.Contains(html, `<font color="#ed4e4c">error</font>`) {
		t.Errorf("panel html = %q", html)
	}
}

func TestBridge_Upload(t *testing.T) {
	fs := &fakeFS{}
	b := startBridge(t, DefaultConfig(), Host{Files: fs})
	rec := &core.Recorder{}
	b.Attach(rec)

	var gotPath string
	var gotErr error
	b.Upload("scene.json", "scene", []byte("{}"), func(p string, err error) {
		gotPath, gotErr = p, err
	})
	flushBridge(t, b)

	if gotErr != nil || gotPath != "/upload/scene.json" {
		t.Errorf("Upload = %q, %v", gotPath, gotErr)
	}
	calls := rec.Calls()
	if len(calls) != 1 || !reflect.DeepEqual(calls[0].Args, []any{"/upload/scene.json", "scene"}) {
		t.Errorf("calls = %+v", calls)
	}
}

func TestBridge_UploadUnavailable(t *testing.T) {
	b := startBridge(t, DefaultConfig(), Host{})
	var gotErr error
	b.Upload("a", "b", nil, func(_ string, err error) { gotErr = err })
	flushBridge(t, b)
	if gotErr == nil {
		t.Error("expected an error without a file system")
	}
}

func TestBridge_TouchEmulator(t *testing.T) {
	b := New(DefaultConfig(), Host{})
	if _, err := b.LoadTouchEmulator(); err == nil {
		t.Error("expected error without an injector")
	}

	inj := &fakeInjector{}
	b = New(DefaultConfig(), Host{Emulator: inj})
	for i := 0; i < 3; i++ {
		if _, err := b.LoadTouchEmulator(); err != nil {
			t.Fatal(err)
		}
	}
	if inj.injected != 1 || inj.hidden != 1 {
		t.Errorf("injected=%d hidden=%d", inj.injected, inj.hidden)
	}
}

func TestBridge_ProbeWithoutGPU(t *testing.T) {
	b := New(DefaultConfig(), Host{})
	if got := b.Probe(context.Background()); got != (probe.Capabilities{}) {
		t.Errorf("Probe = %+v, want all false", got)
	}
}

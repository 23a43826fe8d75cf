//go:build !js

package scriptnative

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/webigeo/inputbridge/internal/core"
	"github.com/webigeo/inputbridge/internal/touch"
)

const testModule = `
export function global_touch_event(...a) {
	console.log('touch', a.length, a[0], a[2], a[3], a[18]);
}
export async function global_mouse_button_event(button, action, mods, x, y) {
	await new Promise(function(r) { setTimeout(r, 1); });
	console.log('button', button, action, mods, x, y);
}
export function global_viewport_resize(w, h) {
	console.log('resize', w, h);
}
export function global_file_uploaded(path, tag) {
	console.log('file', path, tag);
}
export function bytes(b) {
	console.log('bytes', b.length, b[1]);
}
export function fails() {
	throw new Error('bad input');
}
export function rejects() {
	return Promise.reject(new Error('async bad'));
}
`

type logSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *logSink) log(level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, msg)
}

func (s *logSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func loadTestModule(t *testing.T) (*Module, *logSink) {
	t.Helper()
	sink := &logSink{}
	m, err := Load(testModule, Options{Factory: testFactory, Log: sink.log, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(m.Close)
	return m, sink
}

func TestModule_TouchBatch(t *testing.T) {
	m, sink := loadTestModule(t)
	enc := touch.Encode(touch.Batch{
		Type:    "touchstart",
		Changed: []core.Contact{{X: 10, Y: 20, ID: 7}},
		Active:  []core.Contact{{X: 10, Y: 20, ID: 7}},
	})
	if err := m.Call(context.Background(), core.CallTouch, enc.Args()...); err != nil {
		t.Fatalf("Call: %v", err)
	}
	lines := sink.all()
	if len(lines) != 1 || lines[0] != "touch 19 10 7 -1 0" {
		t.Errorf("log = %q", lines)
	}
}

func TestModule_AwaitsAsyncExport(t *testing.T) {
	m, sink := loadTestModule(t)
	err := m.Call(context.Background(), core.CallMouseButton, 1, 1, 0, 3.5, 4)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	lines := sink.all()
	if len(lines) != 1 || lines[0] != "button 1 1 0 3.5 4" {
		t.Errorf("log = %q, want the call to finish before Call returns", lines)
	}
}

func TestModule_StringsAndBytes(t *testing.T) {
	m, sink := loadTestModule(t)
	ctx := context.Background()
	if err := m.Call(ctx, core.CallFileUploaded, "/upload/a.txt", "scene"); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if err := m.Call(ctx, "bytes", []byte{9, 8, 7}); err != nil {
		t.Fatalf("Call bytes: %v", err)
	}
	want := []string{"file /upload/a.txt scene", "bytes 3 8"}
	got := sink.all()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestModule_MissingFunction(t *testing.T) {
	m, _ := loadTestModule(t)
	err := m.Call(context.Background(), "global_nope")
	if !errors.Is(err, ErrNoFunction) {
		t.Errorf("err = %v, want ErrNoFunction", err)
	}
	if m.Has("global_nope") || !m.Has(core.CallResize) {
		t.Error("Has reports wrong exports")
	}
}

func TestModule_Errors(t *testing.T) {
	m, _ := loadTestModule(t)
	ctx := context.Background()
	if err := m.Call(ctx, "fails"); err == nil || !strings.Contains(err.Error(), "bad input") {
		t.Errorf("sync throw err = %v", err)
	}
	if err := m.Call(ctx, "rejects"); err == nil || !strings.Contains(err.Error(), "async bad") {
		t.Errorf("rejection err = %v", err)
	}
	if err := m.Call(ctx, core.CallResize, true, struct{}{}); err == nil {
		t.Error("expected unsupported argument type error")
	}
	// The runtime stays usable after failures.
	if err := m.Call(ctx, core.CallResize, 800, 600); err != nil {
		t.Errorf("Call after failures: %v", err)
	}
}

func TestModule_CanceledContext(t *testing.T) {
	m, sink := loadTestModule(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Call(ctx, core.CallResize, 1, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(sink.all()) != 0 {
		t.Error("canceled call reached the module")
	}
}

func TestModule_DefaultExport(t *testing.T) {
	src := `export default { global_viewport_resize(w, h) { console.log(w * h); } };`
	sink := &logSink{}
	m, err := Load(src, Options{Factory: testFactory, Log: sink.log})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer m.Close()
	if err := m.Call(context.Background(), core.CallResize, 4, 5); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got := sink.all(); len(got) != 1 || got[0] != "20" {
		t.Errorf("log = %q", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load("export const x = 1;", Options{}); err == nil {
		t.Error("expected error without a factory")
	}
	if _, err := Load("export function (", Options{Factory: testFactory}); err == nil {
		t.Error("expected compile error")
	}
	if _, err := Load("throw new Error('init')", Options{Factory: testFactory}); err == nil {
		t.Error("expected evaluation error")
	}
}

func TestModule_Closed(t *testing.T) {
	m, err := Load(testModule, Options{Factory: testFactory})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m.Close()
	m.Close()
	if err := m.Call(context.Background(), core.CallResize, 1, 1); err == nil {
		t.Error("expected error after Close")
	}
}

package shell

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/webigeo/inputbridge/internal/core"
	"github.com/webigeo/inputbridge/internal/upload"
)

const page = `<!DOCTYPE html><html><head><title>app</title><script src="wasm_exec.js"></script></head><body><canvas id="canvas"></canvas></body></html>`

func writeAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":        page,
		"app.wasm":          strings.Repeat("\x00asm", 256),
		"wasm_exec.js":      "// runtime\n",
		"touch-emulator.js": "function TouchEmulator() {\n    var   enabled = true;\n    return enabled;\n}\n",
		"logo.png":          "\x89PNG",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func get(t *testing.T, h http.Handler, path, accept string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept-Encoding", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	var r io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			t.Fatalf("gzip: %v", err)
		}
		r = gz
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return data
}

func TestServer_Negotiation(t *testing.T) {
	s := New(Options{Dir: writeAssets(t)})
	tests := []struct {
		accept, want string
	}{
		{"gzip, deflate, br", "br"},
		{"gzip", "gzip"},
		{"br;q=0, gzip", "gzip"},
		{"", ""},
		{"identity", ""},
	}
	for _, tt := range tests {
		resp := get(t, s, "/app.wasm", tt.accept)
		if got := resp.Header.Get("Content-Encoding"); got != tt.want {
			t.Errorf("Accept-Encoding %q: got %q, want %q", tt.accept, got, tt.want)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/wasm" {
			t.Errorf("Content-Type = %q", ct)
		}
		if body := readBody(t, resp); !bytes.Equal(body, []byte(strings.Repeat("\x00asm", 256))) {
			t.Errorf("Accept-Encoding %q: body mismatch (%d bytes)", tt.accept, len(body))
		}
	}
}

func TestServer_BinaryNotCompressed(t *testing.T) {
	s := New(Options{Dir: writeAssets(t)})
	resp := get(t, s, "/logo.png", "br")
	if resp.Header.Get("Content-Encoding") != "" {
		t.Error("png should be served as is")
	}
}

func TestServer_IndexInjection(t *testing.T) {
	s := New(Options{Dir: writeAssets(t), Scripts: []string{"wasm_exec.js", "bridge.js"}})
	resp := get(t, s, "/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := string(readBody(t, resp))
	if strings.Count(body, `src="wasm_exec.js"`) != 1 {
		t.Errorf("existing script duplicated:\n%s", body)
	}
	if !strings.Contains(body, `<script src="bridge.js"></script></head>`) {
		t.Errorf("script not appended to head:\n%s", body)
	}
}

func TestServer_EmulatorMinified(t *testing.T) {
	s := New(Options{Dir: writeAssets(t)})
	body := string(readBody(t, get(t, s, "/touch-emulator.js", "")))
	if strings.Contains(body, "   ") || !strings.Contains(body, "TouchEmulator") {
		t.Errorf("emulator not minified: %q", body)
	}
}

func TestServer_NotFoundAndMethod(t *testing.T) {
	s := New(Options{Dir: writeAssets(t)})
	if resp := get(t, s, "/missing.js", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing file status = %d", resp.StatusCode)
	}
	if resp := get(t, s, "/../../etc/passwd", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("traversal status = %d", resp.StatusCode)
	}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d", rec.Code)
	}
}

func TestServer_CrossOriginIsolation(t *testing.T) {
	s := New(Options{Dir: writeAssets(t), CrossOriginIsolated: true})
	resp := get(t, s, "/", "")
	if resp.Header.Get("Cross-Origin-Opener-Policy") != "same-origin" ||
		resp.Header.Get("Cross-Origin-Embedder-Policy") != "require-corp" {
		t.Errorf("isolation headers missing: %v", resp.Header)
	}
}

func TestServer_CacheInvalidatedOnChange(t *testing.T) {
	dir := writeAssets(t)
	s := New(Options{Dir: dir})
	if got := string(readBody(t, get(t, s, "/wasm_exec.js", "br"))); got != "// runtime\n" {
		t.Fatalf("body = %q", got)
	}
	p := filepath.Join(dir, "wasm_exec.js")
	if err := os.WriteFile(p, []byte("// v2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fi, _ := os.Stat(p)
	later := fi.ModTime().Add(2e9)
	_ = os.Chtimes(p, later, later)
	if got := string(readBody(t, get(t, s, "/wasm_exec.js", "br"))); got != "// v2\n" {
		t.Errorf("stale body = %q", got)
	}
}

func TestInjectScripts_NoHead(t *testing.T) {
	// The parser synthesizes a head for fragments.
	out, err := InjectScripts([]byte("<p>hi</p>"), "a.js")
	if err != nil {
		t.Fatalf("InjectScripts: %v", err)
	}
	if !strings.Contains(string(out), `<head><script src="a.js"></script></head>`) {
		t.Errorf("out = %s", out)
	}
}

func TestUploadHandler(t *testing.T) {
	root := t.TempDir()
	rec := &core.Recorder{}
	link := &core.Link{}
	link.Attach(rec)
	h := UploadHandler(upload.New(upload.DirFS(root), "", link), 16)

	req := httptest.NewRequest(http.MethodPost, "/upload?name=scene.json&tag=scene", strings.NewReader(`{"a":1}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"/upload/scene.json"`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if names := rec.Names(); len(names) != 1 || names[0] != core.CallFileUploaded {
		t.Errorf("calls = %v", names)
	}

	big := httptest.NewRequest(http.MethodPost, "/upload?name=b.bin", strings.NewReader(strings.Repeat("x", 64)))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized status = %d", w.Code)
	}

	bad := httptest.NewRequest(http.MethodPost, "/upload?name=..", strings.NewReader("x"))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, bad)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad name status = %d", w.Code)
	}
}

func TestServer_HiddenUploadDir(t *testing.T) {
	dir := writeAssets(t)
	link := &core.Link{}
	link.Attach(&core.Recorder{})
	up := UploadHandler(upload.New(upload.DirFS(dir), upload.DefaultDir, link), 0)

	req := httptest.NewRequest(http.MethodPost, "/upload?name=evil.html", strings.NewReader("<script>alert(1)</script>"))
	w := httptest.NewRecorder()
	up.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", w.Code, w.Body.String())
	}

	s := New(Options{Dir: dir, Hidden: []string{upload.DefaultDir}})
	for _, p := range []string{"/upload/evil.html", "/upload/../upload/evil.html", "/upload"} {
		if resp := get(t, s, p, ""); resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", p, resp.StatusCode)
		}
	}
	if resp := get(t, s, "/wasm_exec.js", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("regular asset status = %d", resp.StatusCode)
	}
}

func TestUploadHandler_Origin(t *testing.T) {
	tests := []struct {
		origin   string
		patterns []string
		want     int
	}{
		{"", nil, http.StatusOK},
		{"http://example.com", nil, http.StatusOK},
		{"http://evil.test", nil, http.StatusForbidden},
		{"http://localhost:3000", []string{"localhost:*"}, http.StatusOK},
		{"http://evil.test", []string{"localhost:*"}, http.StatusForbidden},
		{"::bad", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		link := &core.Link{}
		rec := &core.Recorder{}
		link.Attach(rec)
		h := UploadHandler(upload.New(upload.DirFS(t.TempDir()), "", link), 0, tt.patterns...)

		// httptest requests target example.com.
		req := httptest.NewRequest(http.MethodPost, "/upload?name=a.txt", strings.NewReader("x"))
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("origin %q patterns %v: status = %d, want %d", tt.origin, tt.patterns, w.Code, tt.want)
		}
		if tt.want == http.StatusForbidden && len(rec.Calls()) != 0 {
			t.Errorf("origin %q: refused upload still announced", tt.origin)
		}
	}
}

// Package shell serves the browser page: the HTML shell, the wasm binary and
// its scripts, compressed with brotli or gzip when the client accepts it.
package shell

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/webigeo/inputbridge/internal/emulator"
)

// Options configures a Server.
type Options struct {
	// Dir is the asset root.
	Dir string
	// Index is served for "/". Defaults to index.html.
	Index string
	// Scripts are injected into every served HTML page.
	Scripts []string
	// EmulatorScript is minified before serving. Defaults to
	// emulator.DefaultScript.
	EmulatorScript string
	// BrotliLevel is the brotli quality, 0 to 11. Zero means brotli.DefaultCompression.
	BrotliLevel int
	// CrossOriginIsolated adds COOP/COEP headers so the page may use
	// SharedArrayBuffer.
	CrossOriginIsolated bool
	// Hidden lists directories under Dir that are never served, such as an
	// upload directory sharing the asset root.
	Hidden []string
}

type cacheKey struct {
	name     string
	encoding string
	modTime  time.Time
}

// Server is an http.Handler for the shell assets. Prepared responses are
// cached in memory until the file changes.
type Server struct {
	opts Options
	fsys fs.FS

	mu    sync.Mutex
	cache map[cacheKey][]byte
}

// New returns a Server for opts.
func New(opts Options) *Server {
	if opts.Index == "" {
		opts.Index = "index.html"
	}
	if opts.EmulatorScript == "" {
		opts.EmulatorScript = emulator.DefaultScript
	}
	if opts.BrotliLevel <= 0 || opts.BrotliLevel > brotli.BestCompression {
		opts.BrotliLevel = brotli.DefaultCompression
	}
	return &Server{
		opts:  opts,
		fsys:  os.DirFS(opts.Dir),
		cache: make(map[cacheKey][]byte),
	}
}

// compressible lists the extensions worth compressing.
var compressible = map[string]bool{
	".html": true, ".js": true, ".mjs": true, ".css": true,
	".json": true, ".wasm": true, ".svg": true, ".txt": true,
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = s.opts.Index
	}
	if s.hidden(name) {
		http.NotFound(w, r)
		return
	}
	info, err := fs.Stat(s.fsys, name)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	ext := path.Ext(name)
	encoding := ""
	if compressible[ext] {
		encoding = negotiate(r.Header.Get("Accept-Encoding"))
	}

	body, err := s.prepared(name, encoding, info.ModTime())
	if err != nil {
		log.Printf("inputbridge: serving %s: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentType(ext))
	if compressible[ext] {
		h.Add("Vary", "Accept-Encoding")
	}
	if encoding != "" {
		h.Set("Content-Encoding", encoding)
	}
	if s.opts.CrossOriginIsolated {
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Embedder-Policy", "require-corp")
	}
	h.Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "", info.ModTime(), bytes.NewReader(body))
}

func (s *Server) hidden(name string) bool {
	for _, h := range s.opts.Hidden {
		dir := strings.TrimPrefix(path.Clean("/"+h), "/")
		if dir == "" {
			continue
		}
		if name == dir || strings.HasPrefix(name, dir+"/") {
			return true
		}
	}
	return false
}

func (s *Server) prepared(name, encoding string, mod time.Time) ([]byte, error) {
	key := cacheKey{name: name, encoding: encoding, modTime: mod}
	s.mu.Lock()
	body, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return body, nil
	}

	raw, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, err
	}
	if raw, err = s.transform(name, raw); err != nil {
		return nil, err
	}
	if body, err = compress(raw, encoding, s.opts.BrotliLevel); err != nil {
		return nil, fmt.Errorf("compressing: %w", err)
	}

	s.mu.Lock()
	for k := range s.cache {
		if k.name == name && !k.modTime.Equal(mod) {
			delete(s.cache, k)
		}
	}
	s.cache[key] = body
	s.mu.Unlock()
	return body, nil
}

func (s *Server) transform(name string, raw []byte) ([]byte, error) {
	switch {
	case path.Ext(name) == ".html" && len(s.opts.Scripts) > 0:
		return InjectScripts(raw, s.opts.Scripts...)
	case name == s.opts.EmulatorScript:
		return emulator.Prepare(raw)
	}
	return raw, nil
}

// negotiate picks br over gzip; it ignores q-values other than q=0.
func negotiate(accept string) string {
	offered := make(map[string]bool)
	for _, part := range strings.Split(accept, ",") {
		fields := strings.Split(part, ";")
		coding := strings.ToLower(strings.TrimSpace(fields[0]))
		refused := false
		for _, p := range fields[1:] {
			p = strings.ReplaceAll(strings.TrimSpace(p), " ", "")
			if p == "q=0" || p == "q=0.0" || p == "q=0.00" || p == "q=0.000" {
				refused = true
			}
		}
		if coding != "" && !refused {
			offered[coding] = true
		}
	}
	switch {
	case offered["br"]:
		return "br"
	case offered["gzip"]:
		return "gzip"
	}
	return ""
}

func compress(data []byte, encoding string, level int) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch encoding {
	case "":
		return data, nil
	case "br":
		w = brotli.NewWriterLevel(&buf, level)
	case "gzip":
		w = gzip.NewWriter(&buf)
	default:
		return nil, errors.New("unsupported encoding " + encoding)
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func contentType(ext string) string {
	switch ext {
	case ".wasm":
		return "application/wasm"
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

package shell

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/webigeo/inputbridge/internal/upload"
)

// DefaultMaxUpload bounds an uploaded file.
const DefaultMaxUpload = 256 << 20

// UploadHandler accepts a file as the raw body of a POST with name and tag
// query parameters and delivers it through u. It answers with the stored
// path as JSON. Browser requests from another origin are refused unless
// the origin's host matches one of originPatterns (path.Match syntax, as
// for the websocket bridge).
func UploadHandler(u *upload.Uploader, maxBytes int64, originPatterns ...string) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUpload
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !originAllowed(r, originPatterns) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		name := r.URL.Query().Get("name")
		tag := r.URL.Query().Get("tag")
		if _, err := u.Path(name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
		if err != nil {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		dst, err := u.Deliver(r.Context(), name, tag, data)
		if err != nil {
			log.Printf("inputbridge: upload %s: %v", name, err)
			if dst == "" {
				http.Error(w, "upload failed", http.StatusInternalServerError)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"path": dst})
	})
}

// originAllowed accepts requests without an Origin header (non-browser
// clients), same-host origins and hosts matching patterns.
func originAllowed(r *http.Request, patterns []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	host := strings.ToLower(u.Host)
	for _, p := range patterns {
		if ok, err := path.Match(strings.ToLower(p), host); err == nil && ok {
			return true
		}
	}
	return false
}

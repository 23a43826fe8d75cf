// Package upload hands user-selected files to the native module: the bytes
// go into the module's file system, then the module is told where they are.
package upload

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/webigeo/inputbridge/internal/core"
)

// DefaultDir is where uploads land in the module file system.
const DefaultDir = "/upload"

// FS is the module file system. Paths are slash-separated.
type FS interface {
	Mkdir(dir string) error
	WriteFile(name string, data []byte) error
}

// Uploader writes files into an FS and announces them over a link.
type Uploader struct {
	fs   FS
	dir  string
	link core.Invoker
}

// New returns an Uploader writing into dir (DefaultDir when empty).
func New(fs FS, dir string, link core.Invoker) *Uploader {
	if dir == "" {
		dir = DefaultDir
	}
	return &Uploader{fs: fs, dir: dir, link: link}
}

// Path returns the destination of a file called name. Only the base name
// is kept.
func (u *Uploader) Path(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return path.Join(u.dir, base), nil
}

// Deliver stores data under the upload directory and issues the
// file-uploaded call with the stored path and tag. It returns the path.
func (u *Uploader) Deliver(ctx context.Context, name, tag string, data []byte) (string, error) {
	dst, err := u.Path(name)
	if err != nil {
		return "", err
	}
	// The directory usually exists already.
	_ = u.fs.Mkdir(u.dir)
	if err := u.fs.WriteFile(dst, data); err != nil {
		return "", fmt.Errorf("writing %s: %w", dst, err)
	}
	if err := u.link.Invoke(ctx, core.CallFileUploaded, dst, tag); err != nil {
		return dst, fmt.Errorf("announcing %s: %w", dst, err)
	}
	return dst, nil
}

// DirFS is an FS rooted at a host directory.
type DirFS string

func (d DirFS) full(name string) string {
	return filepath.Join(string(d), filepath.FromSlash(name))
}

func (d DirFS) Mkdir(dir string) error {
	return os.MkdirAll(d.full(dir), 0o755)
}

func (d DirFS) WriteFile(name string, data []byte) error {
	return os.WriteFile(d.full(name), data, 0o644)
}

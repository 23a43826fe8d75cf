// Package emulator loads the mouse-to-touch emulator script into the page on
// demand and prepares that script for serving.
package emulator

import (
	"fmt"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
)

// DefaultScript is the emulator script path relative to the page.
const DefaultScript = "touch-emulator.js"

// Injector is the page the emulator is loaded into.
type Injector interface {
	// InjectScript appends a script element for src. onLoad runs once the
	// script has executed.
	InjectScript(src string, onLoad func()) error
	// StartEmulator runs the loaded script's entry point.
	StartEmulator() error
	// HideTrigger hides the control that requested the emulator.
	HideTrigger()
}

// Loader injects the emulator at most once per page.
type Loader struct {
	inj Injector
	src string

	mu        sync.Mutex
	requested bool
	started   bool
	startErr  error
}

// NewLoader returns a Loader for src; an empty src means DefaultScript.
func NewLoader(inj Injector, src string) *Loader {
	if src == "" {
		src = DefaultScript
	}
	return &Loader{inj: inj, src: src}
}

// Load injects the emulator script and hides the trigger. Only the first
// successful call has any effect; it reports whether this call injected.
func (l *Loader) Load() (bool, error) {
	l.mu.Lock()
	if l.requested {
		l.mu.Unlock()
		return false, nil
	}
	l.requested = true
	l.mu.Unlock()

	err := l.inj.InjectScript(l.src, func() {
		err := l.inj.StartEmulator()
		l.mu.Lock()
		l.started = err == nil
		l.startErr = err
		l.mu.Unlock()
	})
	if err != nil {
		l.mu.Lock()
		l.requested = false
		l.mu.Unlock()
		return false, fmt.Errorf("injecting %s: %w", l.src, err)
	}
	l.inj.HideTrigger()
	return true, nil
}

// Started reports whether the emulator entry point ran, and its error if
// it failed.
func (l *Loader) Started() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started, l.startErr
}

// Prepare minifies the emulator script for serving to browsers.
func Prepare(src []byte) ([]byte, error) {
	result := api.Transform(string(src), api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: false,
		Target:            api.ES2017,
		Sourcefile:        DefaultScript,
	})
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		if msg.Location != nil {
			return nil, fmt.Errorf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
		}
		return nil, fmt.Errorf("preparing emulator: %s", msg.Text)
	}
	return result.Code, nil
}

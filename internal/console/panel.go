// Package console implements the in-page log panel and its keyboard toggle.
package console

import (
	"log"
	"strings"
	"sync"
)

// View is the host element the panel is mirrored to.
type View interface {
	SetVisible(visible bool)
	// AppendHTML appends markup and keeps the newest line in view.
	AppendHTML(markup string)
	ClearHTML()
}

// Panel accumulates log markup. Text is only ever appended until Clear.
// The panel starts hidden.
type Panel struct {
	mu      sync.Mutex
	visible bool
	buf     strings.Builder
	view    View
	echo    bool
}

// NewPanel returns a hidden panel mirrored to view (which may be nil). With
// echo set, every logged line is also written to the process log.
func NewPanel(view View, echo bool) *Panel {
	p := &Panel{view: view, echo: echo}
	if view != nil {
		view.SetVisible(false)
	}
	return p
}

// Log appends one line.
func (p *Panel) Log(text string) {
	if p.echo {
		log.Print(text)
	}
	frag := Markup(text + "\n")
	p.mu.Lock()
	p.buf.WriteString(frag)
	p.mu.Unlock()
	if p.view != nil {
		p.view.AppendHTML(frag)
	}
}

// Show makes the panel visible.
func (p *Panel) Show() { p.setVisible(true) }

// Hide hides the panel.
func (p *Panel) Hide() { p.setVisible(false) }

// Toggle flips visibility.
func (p *Panel) Toggle() {
	p.mu.Lock()
	v := !p.visible
	p.mu.Unlock()
	p.setVisible(v)
}

func (p *Panel) setVisible(v bool) {
	p.mu.Lock()
	p.visible = v
	p.mu.Unlock()
	if p.view != nil {
		p.view.SetVisible(v)
	}
}

// Clear drops all accumulated markup.
func (p *Panel) Clear() {
	p.mu.Lock()
	p.buf.Reset()
	p.mu.Unlock()
	if p.view != nil {
		p.view.ClearHTML()
	}
}

// Visible reports whether the panel is shown.
func (p *Panel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// HTML returns the accumulated markup.
func (p *Panel) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

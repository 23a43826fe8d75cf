// Package mouse turns press/drag/release gestures into native button and
// pointer calls, holding the window listener slot for the gesture.
package mouse

import (
	"context"
	"fmt"
	"sync"

	"github.com/webigeo/inputbridge/internal/core"
)

// Event is a mouse notification with the host button index and viewport
// coordinates.
type Event struct {
	Button int
	X      float64
	Y      float64
}

// State of the capture state machine.
type State int

const (
	Idle State = iota
	Captured
)

func (s State) String() string {
	if s == Captured {
		return "captured"
	}
	return "idle"
}

// Surface is the host element a gesture starts on. Its methods are cosmetic
// or best-effort and cannot fail.
type Surface interface {
	// SetSelectable toggles text selection on the surrounding UI.
	SetSelectable(selectable bool)
	// CapturePointer asks the host to keep routing the pointer to the surface.
	CapturePointer()
	// ReleasePointer drops a grant taken by CapturePointer.
	ReleasePointer()
}

// Capture is the mouse capture state machine. Its methods must be called
// from a single goroutine (the dispatch loop); the mutex only guards reads
// of the state from elsewhere.
type Capture struct {
	link    core.Invoker
	slot    *Slot
	surface Surface

	mu     sync.Mutex
	state  State
	lease  *Lease
	button int
}

var _ Owner = (*Capture)(nil)

// NewCapture returns an idle Capture. surface may be nil.
func NewCapture(link core.Invoker, slot *Slot, surface Surface) *Capture {
	return &Capture{link: link, slot: slot, surface: surface}
}

// State returns the current state.
func (c *Capture) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Down starts a gesture. A press while a gesture is already captured is
// ignored.
func (c *Capture) Down(ctx context.Context, ev Event) error {
	c.mu.Lock()
	if c.state == Captured {
		c.mu.Unlock()
		return nil
	}
	lease, err := c.slot.Acquire(c)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = Captured
	c.lease = lease
	c.button = MapButton(ev.Button)
	button := c.button
	c.mu.Unlock()

	if c.surface != nil {
		c.surface.SetSelectable(false)
		c.surface.CapturePointer()
	}
	if err := c.link.Invoke(ctx, core.CallMouseButton, button, ActionPress, 0, ev.X, ev.Y); err != nil {
		return fmt.Errorf("forwarding button down: %w", err)
	}
	return nil
}

// Move forwards the pointer position while captured and is a no-op otherwise.
func (c *Capture) Move(ctx context.Context, ev Event) error {
	c.mu.Lock()
	if c.state != Captured {
		c.mu.Unlock()
		return nil
	}
	button := c.button
	c.mu.Unlock()

	if err := c.link.Invoke(ctx, core.CallMousePosition, button, ev.X, ev.Y); err != nil {
		return fmt.Errorf("forwarding pointer position: %w", err)
	}
	return nil
}

// Up ends the gesture: the slot and pointer grant are released before the
// button-up call so a failing native cannot leave the slot held.
func (c *Capture) Up(ctx context.Context, ev Event) error {
	c.mu.Lock()
	if c.state != Captured {
		c.mu.Unlock()
		return nil
	}
	button := c.button
	c.lease.Release()
	c.lease = nil
	c.state = Idle
	c.mu.Unlock()

	if c.surface != nil {
		c.surface.SetSelectable(true)
		c.surface.ReleasePointer()
	}
	if err := c.link.Invoke(ctx, core.CallMouseButton, button, ActionRelease, 0, ev.X, ev.Y); err != nil {
		return fmt.Errorf("forwarding button up: %w", err)
	}
	return nil
}

// ContextMenu reports whether the host should suppress its context menu.
// It always does, so the secondary button is an ordinary input.
func (c *Capture) ContextMenu() bool {
	return true
}

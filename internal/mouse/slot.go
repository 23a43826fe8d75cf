package mouse

import (
	"context"
	"errors"
	"sync"
)

// ErrSlotHeld is returned by Acquire while another lease is outstanding.
var ErrSlotHeld = errors.New("mouse: window listener slot already held")

// Owner receives window-level pointer notifications while it holds a Lease.
type Owner interface {
	Move(ctx context.Context, ev Event) error
	Up(ctx context.Context, ev Event) error
}

// Slot is the single window-level mouse-move/mouse-up listener. The host
// routes every such notification through the Slot; only the current lease
// holder sees them, whatever element the pointer is over.
type Slot struct {
	mu    sync.Mutex
	lease *Lease
}

// Lease is exclusive ownership of a Slot. It is released exactly once.
type Lease struct {
	slot  *Slot
	owner Owner
}

// Acquire hands the slot to o. It fails with ErrSlotHeld if another lease
// has not been released.
func (s *Slot) Acquire(o Owner) (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease != nil {
		return nil, ErrSlotHeld
	}
	s.lease = &Lease{slot: s, owner: o}
	return s.lease, nil
}

// Release returns the slot. Releasing a stale or nil lease does nothing.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	l.slot.mu.Lock()
	if l.slot.lease == l {
		l.slot.lease = nil
	}
	l.slot.mu.Unlock()
}

// Held reports whether a lease is outstanding.
func (s *Slot) Held() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lease != nil
}

func (s *Slot) owner() Owner {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease == nil {
		return nil
	}
	return s.lease.owner
}

// Move delivers a window mouse-move to the lease holder, if any.
func (s *Slot) Move(ctx context.Context, ev Event) error {
	if o := s.owner(); o != nil {
		return o.Move(ctx, ev)
	}
	return nil
}

// Up delivers a window mouse-up to the lease holder, if any.
func (s *Slot) Up(ctx context.Context, ev Event) error {
	if o := s.owner(); o != nil {
		return o.Up(ctx, ev)
	}
	return nil
}

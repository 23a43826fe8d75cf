// Package touch encodes multi-touch batches into the fixed-arity native
// touch call.
package touch

import (
	"context"
	"fmt"
	"strings"

	"github.com/webigeo/inputbridge/internal/core"
)

// Batch is one touch notification as reported by the host: the contacts that
// changed in this event, every contact still on the surface, and the event
// type (for example "touchstart").
type Batch struct {
	Changed []core.Contact
	Active  []core.Contact
	Type    string
}

// Encoded is a batch reduced to the shape the native side accepts.
type Encoded struct {
	Changed core.SlotArray
	Active  core.SlotArray
	Phase   core.Phase
}

// PhaseOf maps an event type to its phase tag. Both DOM names
// ("touchmove") and bare names ("move") are accepted; anything else,
// including "touchcancel", is PhaseCancel.
func PhaseOf(eventType string) core.Phase {
	switch strings.TrimPrefix(strings.ToLower(eventType), "touch") {
	case "start":
		return core.PhaseStart
	case "move":
		return core.PhaseMove
	case "end":
		return core.PhaseEnd
	default:
		return core.PhaseCancel
	}
}

// Encode builds the changed and active slot arrays for b.
func Encode(b Batch) Encoded {
	return Encoded{
		Changed: core.NewSlotArray(b.Changed),
		Active:  core.NewSlotArray(b.Active),
		Phase:   PhaseOf(b.Type),
	}
}

// Args flattens e into x,y,id triples, changed slots first, then active,
// followed by the phase tag.
func (e Encoded) Args() []any {
	args := make([]any, 0, core.TouchArity)
	for _, s := range [2]core.SlotArray{e.Changed, e.Active} {
		for _, c := range s {
			args = append(args, c.X, c.Y, c.ID)
		}
	}
	return append(args, int(e.Phase))
}

// Merge folds a queued move batch into the one replacing it. Contacts
// changed in either batch stay changed, at their positions in next; the
// active set and event type come from next.
func Merge(prev, next Batch) Batch {
	latest := func(c core.Contact) core.Contact {
		for _, n := range next.Changed {
			if n.ID == c.ID {
				return n
			}
		}
		for _, a := range next.Active {
			if a.ID == c.ID {
				return a
			}
		}
		return c
	}

	out := Batch{Active: next.Active, Type: next.Type}
	seen := make(map[int]bool, len(prev.Changed)+len(next.Changed))
	for _, src := range [2][]core.Contact{prev.Changed, next.Changed} {
		for _, c := range src {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out.Changed = append(out.Changed, latest(c))
		}
	}
	return out
}

// Encoder forwards touch batches. It keeps no state between batches.
type Encoder struct {
	link core.Invoker
}

// NewEncoder returns an Encoder issuing calls through link.
func NewEncoder(link core.Invoker) *Encoder {
	return &Encoder{link: link}
}

// Handle issues exactly one touch call for b.
func (e *Encoder) Handle(ctx context.Context, b Batch) error {
	enc := Encode(b)
	if err := e.link.Invoke(ctx, core.CallTouch, enc.Args()...); err != nil {
		return fmt.Errorf("forwarding %s batch: %w", enc.Phase, err)
	}
	return nil
}

// Package viewport forwards window size changes to the native module.
package viewport

import (
	"context"
	"fmt"

	"github.com/webigeo/inputbridge/internal/core"
)

// Source reports the current viewport size.
type Source interface {
	Size() (width, height int)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (int, int)

// Size implements Source.
func (f SourceFunc) Size() (int, int) { return f() }

// Notifier issues one resize call per notification. Sizes are absolute,
// never deltas, and nothing is debounced here.
type Notifier struct {
	link   core.Invoker
	source Source
}

// NewNotifier returns a Notifier reading sizes from source. source may be
// nil if only Resize is used.
func NewNotifier(link core.Invoker, source Source) *Notifier {
	return &Notifier{link: link, source: source}
}

// Notify forwards the size the source reports right now.
func (n *Notifier) Notify(ctx context.Context) error {
	if n.source == nil {
		return nil
	}
	w, h := n.source.Size()
	return n.Resize(ctx, w, h)
}

// Resize forwards an explicit size.
func (n *Notifier) Resize(ctx context.Context, width, height int) error {
	if err := n.link.Invoke(ctx, core.CallResize, width, height); err != nil {
		return fmt.Errorf("forwarding resize %dx%d: %w", width, height, err)
	}
	return nil
}

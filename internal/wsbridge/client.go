package wsbridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/webigeo/inputbridge/internal/core"
)

// Client is a core.Native backed by a remote Server.
type Client struct {
	conn *websocket.Conn

	// onLog receives log frames pushed by the server; nil drops them.
	onLog func(text string)

	mu      sync.Mutex
	seq     uint64
	pending map[uint64]chan Frame
	closed  bool
	done    chan struct{}
}

var _ core.Native = (*Client)(nil)

// Dial connects to a Server at url. onLog may be nil.
func Dial(ctx context.Context, url string, onLog func(text string)) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	conn.SetReadLimit(maxFrameBytes)
	c := &Client{
		conn:    conn,
		onLog:   onLog,
		pending: make(map[uint64]chan Frame),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer c.shutdown()
	ctx := context.Background()
	for {
		var f Frame
		if err := wsjson.Read(ctx, c.conn, &f); err != nil {
			return
		}
		switch f.Type {
		case FrameAck:
			c.mu.Lock()
			ch, ok := c.pending[f.Seq]
			delete(c.pending, f.Seq)
			c.mu.Unlock()
			if ok {
				ch <- f
			}
		case FrameLog:
			if c.onLog != nil {
				c.onLog(f.Text)
			}
		}
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for seq, ch := range c.pending {
		close(ch)
		delete(c.pending, seq)
	}
	close(c.done)
}

// Call sends one call frame and waits for its acknowledgement.
func (c *Client) Call(ctx context.Context, name string, args ...any) error {
	wire, err := core.EncodeArgs(args)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.seq++
	seq := c.seq
	ch := make(chan Frame, 1)
	c.pending[seq] = ch
	c.mu.Unlock()

	if err := wsjson.Write(ctx, c.conn, Frame{Type: FrameCall, Seq: seq, Name: name, Args: wire}); err != nil {
		c.forget(seq)
		return fmt.Errorf("sending %s: %w", name, err)
	}

	select {
	case ack, ok := <-ch:
		if !ok {
			return ErrClosed
		}
		if ack.Error != "" {
			return &RemoteError{Name: name, Msg: ack.Error}
		}
		return nil
	case <-ctx.Done():
		c.forget(seq)
		return ctx.Err()
	}
}

func (c *Client) forget(seq uint64) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close closes the connection. Pending calls fail with ErrClosed.
func (c *Client) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.shutdown()
	return err
}

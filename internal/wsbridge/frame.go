// Package wsbridge carries native calls over a WebSocket. The Client side is
// a core.Native that forwards calls to a remote Server, which executes them
// against its own Native and acknowledges each one. The server can also push
// log lines back to every connected client.
package wsbridge

import (
	"errors"

	"github.com/webigeo/inputbridge/internal/core"
)

// Frame types.
const (
	FrameCall = "call"
	FrameAck  = "ack"
	FrameLog  = "log"
)

// Path is the conventional mount point of the server.
const Path = "/bridge"

// maxFrameBytes limits a single frame. Uploaded files travel inside frames.
const maxFrameBytes = 64 << 20

// ErrClosed is returned for calls on, or pending on, a closed connection.
var ErrClosed = errors.New("wsbridge: connection closed")

// Frame is one JSON message on the wire.
type Frame struct {
	Type  string     `json:"type"`
	Seq   uint64     `json:"seq,omitempty"`
	Name  string     `json:"name,omitempty"`
	Args  []core.Arg `json:"args,omitempty"`
	Error string     `json:"error,omitempty"`
	Text  string     `json:"text,omitempty"`
}

// RemoteError is a failure reported by the serving side.
type RemoteError struct {
	Name string
	Msg  string
}

func (e *RemoteError) Error() string {
	return "remote " + e.Name + ": " + e.Msg
}

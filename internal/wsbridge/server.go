package wsbridge

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/webigeo/inputbridge/internal/core"
)

// pingInterval keeps idle connections alive through proxies.
const pingInterval = 30 * time.Second

// Server executes call frames against a Native. Calls on one connection are
// executed in order, each acknowledged before the next one starts.
type Server struct {
	native core.Native
	opts   *websocket.AcceptOptions

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewServer returns a Server forwarding to native. A nil native acknowledges
// every call without doing anything. originPatterns is passed to
// websocket.Accept; empty means same-origin only.
func NewServer(native core.Native, originPatterns ...string) *Server {
	return &Server{
		native: native,
		opts:   &websocket.AcceptOptions{OriginPatterns: originPatterns},
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and serves frames until the peer leaves.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, s.opts)
	if err != nil {
		log.Printf("inputbridge: websocket accept: %v", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)
	s.track(conn, true)
	defer s.track(conn, false)
	defer conn.CloseNow()

	s.serve(r.Context(), conn)
}

func (s *Server) track(conn *websocket.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	incoming := make(chan Frame, 64)
	go func() {
		defer close(incoming)
		for {
			var f Frame
			if err := wsjson.Read(ctx, conn, &f); err != nil {
				return
			}
			select {
			case incoming <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case f, ok := <-incoming:
			if !ok {
				return
			}
			if f.Type != FrameCall {
				continue
			}
			ack := Frame{Type: FrameAck, Seq: f.Seq}
			if err := s.execute(ctx, f); err != nil {
				ack.Error = err.Error()
			}
			if err := wsjson.Write(ctx, conn, ack); err != nil {
				return
			}

		case <-ping.C:
			pingCtx, pcancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			pcancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) execute(ctx context.Context, f Frame) error {
	args, err := core.DecodeArgs(f.Args)
	if err != nil {
		return err
	}
	if s.native == nil {
		return nil
	}
	return s.native.Call(ctx, f.Name, args...)
}

// Log pushes text to every connected client.
func (s *Server) Log(text string) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := wsjson.Write(ctx, c, Frame{Type: FrameLog, Text: text}); err != nil {
			log.Printf("inputbridge: pushing log line: %v", err)
		}
		cancel()
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

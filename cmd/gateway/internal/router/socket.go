package router

import (
	"context"
	"errors"
	"sync"
	"time"

	"anarchy.ttfm/straight/gateway"
	"anarchy.ttfm/straight/orders"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	SocketBuffer       = 16
	SocketWriteTimeout = 5 * time.Second
)

var (
	ErrSocketClosed = errors.New("socket closed")
	ErrSocketFull   = errors.New("socket is not keeping up")
)

// Socket buffers the updates of one order until a websocket writes them
type Socket struct {
	mu      sync.Mutex
	updates chan orders.Order
	closed  bool

	done   chan struct{}
	finish sync.Once
}

var _ gateway.Subscriber = (*Socket)(nil)

func NewSocket() (s *Socket) {
	return &Socket{
		updates: make(chan orders.Order, SocketBuffer),
		done:    make(chan struct{}),
	}
}

func (s *Socket) Notify(order orders.Order) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSocketClosed
	}
	select {
	case s.updates <- order:
		return nil
	default:
		return ErrSocketFull
	}
}

// Close stops accepting updates. Buffered ones are still written
func (s *Socket) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.updates)
}

func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// Leave marks the socket as gone so the order can be observed again
func (s *Socket) Leave() {
	s.finish.Do(func() { close(s.done) })
}

// Serve writes updates to conn until the order settles or the peer leaves
func (s *Socket) Serve(ctx context.Context, conn *websocket.Conn) {
	defer s.Leave()

	// Nothing is expected from the peer. Reading only detects it leaving
	ctx = conn.CloseRead(ctx)
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case order, ok := <-s.updates:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "order completed")
				return
			}

			update := UpdateFromOrder(&order)
			writeCtx, cancel := context.WithTimeout(ctx, SocketWriteTimeout)
			err := wsjson.Write(writeCtx, conn, &update)
			cancel()
			if err != nil {
				conn.Close(websocket.StatusInternalError, "write_failed")
				return
			}
		}
	}
}

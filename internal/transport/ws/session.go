package ws

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"cat-tagline-go/internal/utils"
)

const sendBuffer = 32

// Session is one progress subscriber. Inbound frames are read only to notice
// the client going away.
type Session struct {
	id     string
	conn   *Connection
	logger *utils.Logger
	send   chan []byte

	ctx    context.Context
	cancel context.CancelCauseFunc

	closed  atomic.Bool
	dropped atomic.Int64
}

// NewSession constructs a managed websocket session.
func NewSession(parent context.Context, conn *Connection, logger *utils.Logger) *Session {
	sessionCtx, cancel := context.WithCancelCause(parent)
	return &Session{
		id:     conn.GetID(),
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, sendBuffer),
		ctx:    sessionCtx,
		cancel: cancel,
	}
}

// Context returns the session context.
func (s *Session) Context() context.Context {
	return s.ctx
}

// ID exposes the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Enqueue queues an encoded frame without blocking; frames are dropped when
// the client is not keeping up.
func (s *Session) Enqueue(frame []byte) bool {
	if s.closed.Load() {
		return false
	}
	select {
	case s.send <- frame:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Run pumps queued frames until the client disconnects or Close is called,
// then invokes onDone once.
func (s *Session) Run(onDone func(error)) {
	go s.writeLoop()

	runErr := s.readLoop()
	s.Close(runErr)
	if onDone != nil {
		onDone(runErr)
	}
}

func (s *Session) readLoop() error {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case frame := <-s.send:
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.Close(err)
				return
			}
		}
	}
}

// Close attempts to gracefully terminate the session.
func (s *Session) Close(reason error) {
	if reason == nil {
		reason = ErrSessionShutdown
	}

	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.cancel(reason)

	if err := s.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		s.logger.Warn("session %s connection close failed: %v", s.id, err)
	}
	if n := s.dropped.Load(); n > 0 {
		s.logger.WarnTag("WebSocket", "session %s dropped %d frames", s.id, n)
	}
}

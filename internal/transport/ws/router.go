package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cat-tagline-go/internal/platform/observability"
	"cat-tagline-go/internal/utils"
)

// Router upgrades HTTP requests into progress sessions.
type Router struct {
	hub    *Hub
	logger *utils.Logger

	upgrader         *websocket.Upgrader
	handshakeTimeout time.Duration
	baseCtx          context.Context
}

// RouterOptions configures the websocket router.
type RouterOptions struct {
	HandshakeTimeout time.Duration
	CheckOrigin      func(r *http.Request) bool
	// BaseContext bounds every session; cancelling it closes them.
	BaseContext context.Context
}

// NewRouter constructs a websocket router.
func NewRouter(hub *Hub, logger *utils.Logger, opts RouterOptions) *Router {
	upgrader := &websocket.Upgrader{
		CheckOrigin:     opts.CheckOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}

	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := opts.BaseContext
	if base == nil {
		base = context.Background()
	}

	return &Router{
		hub:              hub,
		logger:           logger,
		upgrader:         upgrader,
		handshakeTimeout: timeout,
		baseCtx:          base,
	}
}

// Handle upgrades the HTTP connection and launches a new progress session.
func (r *Router) Handle(w http.ResponseWriter, req *http.Request) {
	handshakeCtx, cancel := context.WithTimeoutCause(req.Context(), r.handshakeTimeout, ErrHandshakeTimeout)
	defer cancel()
	req = req.WithContext(handshakeCtx)

	spanCtx, spanEnd := observability.StartSpan(handshakeCtx, "transport.websocket", "handle")
	var spanErr error
	defer func() {
		spanEnd(spanErr)
	}()

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		spanErr = err
		observability.RecordMetric(
			spanCtx,
			"websocket.upgrade.error",
			1,
			map[string]string{
				"component": "transport.websocket",
			},
		)
		r.logger.ErrorTag("WebSocket", "握手失败: %v", err)
		return
	}

	// 会话 ID 由服务端生成，Client-Id 仅用于日志
	clientID := uuid.NewString()
	r.logger.InfoTag("WebSocket", "建立连接 session=%s client=%q", clientID, req.Header.Get("Client-Id"))

	// The session outlives the handshake request.
	session := NewSession(r.baseCtx, NewConnection(clientID, conn), r.logger)
	r.hub.Register(session)

	observability.RecordMetric(
		spanCtx,
		"websocket.connection.opened",
		1,
		map[string]string{
			"component": "transport.websocket",
		},
	)

	go func() {
		select {
		case <-r.baseCtx.Done():
			session.Close(context.Cause(r.baseCtx))
		case <-session.Context().Done():
		}
	}()

	go session.Run(func(runErr error) {
		r.hub.Unregister(session.ID())
		if runErr != nil {
			r.logger.WarnTag("WebSocket", "会话 %s 异常结束: %v", session.ID(), runErr)
		}
		observability.RecordMetric(
			context.Background(),
			"websocket.connection.closed",
			1,
			map[string]string{
				"component": "transport.websocket",
			},
		)
	})
}

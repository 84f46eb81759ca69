package ws

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
	"github.com/bytedance/sonic"

	"cat-tagline-go/internal/domain/eventbus"
	"cat-tagline-go/internal/utils"
)

// progressFrame is what the page receives for every step transition.
type progressFrame struct {
	Type string `json:"type"`
	eventbus.StepEvent
	Label string `json:"label"`
}

// Hub tracks the active progress sessions and fans step events out to them.
type Hub struct {
	logger   *utils.Logger
	sessions sync.Map // map[string]*Session
}

// NewHub builds a fresh session hub.
func NewHub(logger *utils.Logger) *Hub {
	return &Hub{
		logger: logger,
	}
}

// Register adds a new session to the hub.
func (h *Hub) Register(session *Session) {
	if session == nil {
		return
	}
	h.sessions.Store(session.ID(), session)
}

// Unregister removes the session from the hub.
func (h *Hub) Unregister(id string) {
	if id == "" {
		return
	}
	h.sessions.Delete(id)
}

// Attach subscribes the hub to step events on bus.
func (h *Hub) Attach(bus evbus.Bus) error {
	return bus.Subscribe(eventbus.TopicPipelineStep, h.Broadcast)
}

// Detach undoes Attach.
func (h *Hub) Detach(bus evbus.Bus) error {
	return bus.Unsubscribe(eventbus.TopicPipelineStep, h.Broadcast)
}

// Broadcast encodes event once and queues it on every session.
func (h *Hub) Broadcast(event eventbus.StepEvent) {
	frame, err := sonic.Marshal(progressFrame{Type: "step", StepEvent: event, Label: event.Label()})
	if err != nil {
		h.logger.ErrorTag("WebSocket", "encode step event: %v", err)
		return
	}

	h.sessions.Range(func(_, value any) bool {
		if session, ok := value.(*Session); ok {
			session.Enqueue(frame)
		}
		return true
	})
}

// CloseAll terminates all active sessions.
func (h *Hub) CloseAll(reason error) {
	if reason == nil {
		reason = ErrSessionShutdown
	}

	h.sessions.Range(func(key, value any) bool {
		if session, ok := value.(*Session); ok {
			session.Close(reason)
		}
		h.sessions.Delete(key)
		return true
	})
}

// Count exposes the number of active websocket connections.
func (h *Hub) Count() int {
	count := 0
	h.sessions.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

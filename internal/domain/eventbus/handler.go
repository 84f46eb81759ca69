package eventbus

import (
	evbus "github.com/asaskevich/EventBus"

	"cat-tagline-go/internal/utils"
)

// LogHandler writes every step event to the tagged logger.
type LogHandler struct {
	logger *utils.Logger
}

// NewLogHandler 创建日志事件处理器
func NewLogHandler(logger *utils.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

// Attach subscribes the handler to bus.
func (h *LogHandler) Attach(bus evbus.Bus) error {
	return bus.Subscribe(TopicPipelineStep, h.Handle)
}

// Detach removes the subscription added by Attach.
func (h *LogHandler) Detach(bus evbus.Bus) error {
	return bus.Unsubscribe(TopicPipelineStep, h.Handle)
}

// Handle 处理步骤事件
func (h *LogHandler) Handle(event StepEvent) {
	switch event.Status {
	case StatusFailed:
		h.logger.WarnTag("PIPELINE", "run=%s step=%s failed: %s", event.RunID, event.Step, event.Message)
	case StatusCompleted:
		h.logger.InfoTag("PIPELINE", "run=%s step=%s completed", event.RunID, event.Step)
	default:
		h.logger.DebugTag("PIPELINE", "run=%s step=%s %s", event.RunID, event.Step, event.Status)
	}
}

package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

var (
	instance evbus.Bus
	once     sync.Once
)

// Publisher is the narrow side handed to producers.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

// Get 获取进程级事件总线实例
func Get() evbus.Bus {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New 创建新的同步事件总线
func New() evbus.Bus {
	return evbus.New()
}

// PublishStep publishes a step event on bus; a nil bus is a no-op.
func PublishStep(bus Publisher, event StepEvent) {
	if bus == nil {
		return
	}
	bus.Publish(TopicPipelineStep, event)
}

package eventbus

import "time"

// 事件类型定义
const (
	TopicPipelineStep = "pipeline:step"
)

// Pipeline steps, in execution order.
const (
	StepFetch    = "fetch"
	StepPersist  = "persist"
	StepDescribe = "describe"
	StepCaption  = "caption"
)

type StepStatus string

const (
	StatusStarted   StepStatus = "started"
	StatusCompleted StepStatus = "completed"
	StatusFailed    StepStatus = "failed"
)

// StepEvent is published on TopicPipelineStep for every step transition.
type StepEvent struct {
	RunID   string     `json:"run_id"`
	Step    string     `json:"step"`
	Status  StepStatus `json:"status"`
	Message string     `json:"message,omitempty"`
	At      time.Time  `json:"at"`
}

// Label is the human text the UI shows while a step runs.
func (e StepEvent) Label() string {
	switch e.Step {
	case StepFetch:
		return "Fetching a random cat"
	case StepPersist:
		return "Saving the image"
	case StepDescribe:
		return "Describing the cat"
	case StepCaption:
		return "Writing a tagline"
	default:
		return e.Step
	}
}

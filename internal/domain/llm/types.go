// Package llm holds the provider-neutral request shapes used by the pipeline.
package llm

import "errors"

// ErrEmptyOutput is returned when the model answers with no usable text.
var ErrEmptyOutput = errors.New("model returned empty output")

// VisionRequest asks a multimodal model about one image.
type VisionRequest struct {
	Model     string
	Prompt    string
	ImageURL  string // data URL or https URL
	MaxTokens int
}

// ChatRequest is a single-turn system + user exchange.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

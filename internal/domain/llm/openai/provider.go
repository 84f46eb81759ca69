package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"cat-tagline-go/internal/domain/llm"
	"cat-tagline-go/internal/platform/config"
	"cat-tagline-go/internal/utils"
)

// Provider implements the vision and chat calls over the OpenAI API.
// The credential is held by the client only and never logged.
type Provider struct {
	client  *openai.Client
	timeout time.Duration
	logger  *utils.Logger
}

// New builds a provider for the given credential.
func New(cfg config.OpenAIConfig, credential config.Credential, logger *utils.Logger) (*Provider, error) {
	if strings.TrimSpace(credential.Key) == "" {
		return nil, config.ErrMissingCredential
	}

	clientConfig := openai.DefaultConfig(credential.Key)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	logger.DebugTag("VISION", "openai provider ready: base_url=%s key_source=%s", clientConfig.BaseURL, credential.Source)
	return &Provider{
		client:  openai.NewClientWithConfig(clientConfig),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Vision sends one user message carrying the prompt and the image.
func (p *Provider) Vision(ctx context.Context, req llm.VisionRequest) (string, error) {
	message := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: req.Prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    req.ImageURL,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	}

	return p.complete(ctx, "vision", openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  []openai.ChatCompletionMessage{message},
		MaxTokens: req.MaxTokens,
	})
}

// Chat sends a system persona and a user instruction.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	return p.complete(ctx, "chat", openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
}

func (p *Provider) complete(ctx context.Context, op string, request openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, request)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai %s: status %d: %w", op, apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("openai %s: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai %s: no choices: %w", op, llm.ErrEmptyOutput)
	}

	p.logger.DebugTag("VISION", "openai %s done: model=%s tokens=%d elapsed=%s",
		op, request.Model, resp.Usage.TotalTokens, time.Since(start).Round(time.Millisecond))
	return resp.Choices[0].Message.Content, nil
}

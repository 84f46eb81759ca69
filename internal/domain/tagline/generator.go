// Package tagline runs the fetch → persist → describe → caption pipeline.
package tagline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cat-tagline-go/internal/domain/catsource"
	"cat-tagline-go/internal/domain/eventbus"
	"cat-tagline-go/internal/domain/image"
	"cat-tagline-go/internal/domain/llm"
	"cat-tagline-go/internal/domain/llm/openai"
	"cat-tagline-go/internal/platform/config"
	platformerrors "cat-tagline-go/internal/platform/errors"
	"cat-tagline-go/internal/platform/observability"
	"cat-tagline-go/internal/utils"
)

// ErrEmptyDescription is returned when a caption is requested for blank text.
var ErrEmptyDescription = errors.New("description is empty")

// ImageSource yields one random image per call.
type ImageSource interface {
	FetchRandom(ctx context.Context) ([]byte, error)
}

// Describer turns an image into text.
type Describer interface {
	Vision(ctx context.Context, req llm.VisionRequest) (string, error)
}

// Captioner turns a description into a tagline.
type Captioner interface {
	Chat(ctx context.Context, req llm.ChatRequest) (string, error)
}

// Options configures a Generator. Zero-valued collaborators are built from Config.
type Options struct {
	// Credential is the explicit key; it wins over every other source.
	Credential string
	// Chain replaces the default explicit → environment chain.
	Chain     config.CredentialChain
	LookupEnv func(string) (string, bool)

	Config    *config.Config
	Logger    *utils.Logger
	Source    ImageSource
	Describer Describer
	Captioner Captioner
	Events    eventbus.Publisher
}

// Generator owns the credential and the collaborators for one pipeline.
// It is not safe for concurrent Runs against the same output path.
type Generator struct {
	credential config.Credential
	cfg        *config.Config
	logger     *utils.Logger

	source    ImageSource
	describer Describer
	captioner Captioner
	store     *image.Store
	encoder   *image.Pipeline
	events    eventbus.Publisher
}

// NewGenerator resolves the credential and wires the collaborators.
// A missing credential fails here, before any network call.
func NewGenerator(opts Options) (*Generator, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.DefaultLogger
	}

	chain := opts.Chain
	if chain == nil {
		chain = config.LocalChain(opts.Credential, opts.LookupEnv)
	}
	credential, err := chain.Resolve()
	if err != nil {
		logger.ErrorTag("CONFIG", "credential resolution failed: %v", err)
		return nil, err
	}
	logger.DebugTag("CONFIG", "credential source: %s", credential.Source)

	g := &Generator{
		credential: credential,
		cfg:        cfg,
		logger:     logger,
		source:     opts.Source,
		describer:  opts.Describer,
		captioner:  opts.Captioner,
		store:      image.NewStore(&cfg.Image, logger),
		encoder:    image.NewPipeline(image.Options{MaxSize: cfg.Image.MaxFileSize, Logger: logger}),
		events:     opts.Events,
	}

	if g.source == nil {
		client := catsource.NewClient(cfg.CatAPI, cfg.Image.MaxFileSize, logger)
		logger.DebugTag("CAT", "image source: %s", client.URL())
		g.source = client
	}
	if g.describer == nil || g.captioner == nil {
		provider, err := openai.New(cfg.OpenAI, credential, logger)
		if err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "tagline.new", "create generation client", err)
		}
		if g.describer == nil {
			g.describer = provider
		}
		if g.captioner == nil {
			g.captioner = provider
		}
	}

	return g, nil
}

// CredentialSource reports which source supplied the key.
func (g *Generator) CredentialSource() string {
	return g.credential.Source
}

// FetchImage downloads one random cat image.
func (g *Generator) FetchImage(ctx context.Context) (*ImagePayload, error) {
	g.logger.InfoTag("CAT", "fetching random cat image")

	data, err := g.source.FetchRandom(ctx)
	if err != nil {
		g.logger.ErrorTag("CAT", "error fetching cat image: %v", err)
		return nil, platformerrors.Wrap(platformerrors.KindUpstream, "tagline.fetch", "fetch cat image", err)
	}
	if len(data) == 0 {
		g.logger.ErrorTag("CAT", "error fetching cat image: empty body")
		return nil, platformerrors.Wrap(platformerrors.KindUpstream, "tagline.fetch", "fetch cat image", catsource.ErrEmptyBody)
	}

	payload := &ImagePayload{Data: data, Format: image.DetectFormat(data)}
	observability.RecordMetric(ctx, "cat.image.bytes", float64(payload.Len()), nil)
	g.logger.InfoTag("CAT", "successfully fetched cat image (%d bytes)", payload.Len())
	return payload, nil
}

// SaveImage persists payload to dest, or the configured default when dest is empty.
func (g *Generator) SaveImage(payload *ImagePayload, dest string) (string, error) {
	if payload.Len() == 0 {
		err := platformerrors.New(platformerrors.KindValidation, "tagline.save", "no image data")
		g.logger.ErrorTag("IMAGE", "error saving image: %v", err)
		return "", err
	}

	path, err := g.store.Save(payload.Data, dest)
	if err != nil {
		g.logger.ErrorTag("IMAGE", "error saving image: %v", err)
		return "", err
	}
	return path, nil
}

// DescribeImage asks the vision model for a description of payload.
func (g *Generator) DescribeImage(ctx context.Context, payload *ImagePayload) (string, error) {
	if payload.Len() == 0 {
		return "", platformerrors.New(platformerrors.KindValidation, "tagline.describe", "no image data")
	}

	encoded, err := g.encoder.Process(ctx, image.Input{
		Reader:         bytes.NewReader(payload.Data),
		DeclaredFormat: payload.Format,
	})
	if err != nil {
		g.logger.ErrorTag("VISION", "error encoding image: %v", err)
		return "", platformerrors.Wrap(platformerrors.KindValidation, "tagline.describe", "encode image", err)
	}

	g.logger.InfoTag("VISION", "analyzing image: model=%s format=%s", g.cfg.OpenAI.VisionModel, encoded.Format)
	description, err := g.describer.Vision(ctx, llm.VisionRequest{
		Model:     g.cfg.OpenAI.VisionModel,
		Prompt:    describePrompt,
		ImageURL:  encoded.DataURL,
		MaxTokens: g.cfg.OpenAI.DescribeMaxTokens,
	})
	if err != nil {
		g.logger.ErrorTag("VISION", "error describing image: %v", err)
		return "", platformerrors.Wrap(platformerrors.KindUpstream, "tagline.describe", "vision request", err)
	}

	description = strings.TrimSpace(utils.RemoveControlCharacters(description))
	if description == "" {
		g.logger.ErrorTag("VISION", "error describing image: empty output")
		return "", platformerrors.Wrap(platformerrors.KindUpstream, "tagline.describe", "vision request", llm.ErrEmptyOutput)
	}

	g.logger.InfoTag("VISION", "got image description (%d chars)", len(description))
	return description, nil
}

// GenerateTagline asks the text model for a caption of description.
func (g *Generator) GenerateTagline(ctx context.Context, description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", platformerrors.Wrap(platformerrors.KindValidation, "tagline.caption", "validate description", ErrEmptyDescription)
	}

	g.logger.InfoTag("TAGLINE", "generating tagline: model=%s", g.cfg.OpenAI.TextModel)
	tagline, err := g.captioner.Chat(ctx, llm.ChatRequest{
		Model:       g.cfg.OpenAI.TextModel,
		System:      captionSystemPrompt,
		User:        fmt.Sprintf(captionUserTemplate, description),
		MaxTokens:   g.cfg.OpenAI.TaglineMaxTokens,
		Temperature: g.cfg.OpenAI.Temperature,
	})
	if err != nil {
		g.logger.ErrorTag("TAGLINE", "error generating tagline: %v", err)
		return "", platformerrors.Wrap(platformerrors.KindUpstream, "tagline.caption", "chat request", err)
	}

	tagline = strings.TrimSpace(utils.RemoveControlCharacters(tagline))
	if tagline == "" {
		g.logger.ErrorTag("TAGLINE", "error generating tagline: empty output")
		return "", platformerrors.Wrap(platformerrors.KindUpstream, "tagline.caption", "chat request", llm.ErrEmptyOutput)
	}

	g.logger.InfoTag("TAGLINE", "generated tagline: %s", tagline)
	return tagline, nil
}

// Run executes the whole pipeline once, writing the image to the configured
// default path. It stops at the first failing step.
func (g *Generator) Run(ctx context.Context) *Result {
	runID := uuid.NewString()
	start := time.Now()
	g.logger.InfoTag("PIPELINE", "starting run %s", runID)

	var payload *ImagePayload
	if err := g.step(ctx, runID, eventbus.StepFetch, MsgFetchFailed, func(ctx context.Context) error {
		var err error
		payload, err = g.FetchImage(ctx)
		return err
	}); err != nil {
		return failed(runID, MsgFetchFailed, err)
	}

	var path string
	if err := g.step(ctx, runID, eventbus.StepPersist, MsgSaveFailed, func(context.Context) error {
		var err error
		path, err = g.SaveImage(payload, "")
		return err
	}); err != nil {
		return failed(runID, MsgSaveFailed, err)
	}

	var description string
	if err := g.step(ctx, runID, eventbus.StepDescribe, MsgDescribeFailed, func(ctx context.Context) error {
		var err error
		description, err = g.DescribeImage(ctx, payload)
		return err
	}); err != nil {
		return failed(runID, MsgDescribeFailed, err)
	}

	var tagline string
	if err := g.step(ctx, runID, eventbus.StepCaption, MsgCaptionFailed, func(ctx context.Context) error {
		var err error
		tagline, err = g.GenerateTagline(ctx, description)
		return err
	}); err != nil {
		return failed(runID, MsgCaptionFailed, err)
	}

	observability.RecordMetric(ctx, "pipeline.run.seconds", time.Since(start).Seconds(), nil)
	g.logger.InfoFields("pipeline finished", map[string]interface{}{
		"run_id":   runID,
		"duration": time.Since(start).Round(time.Millisecond).String(),
		"success":  true,
	})
	return succeeded(runID, path, description, tagline)
}

func (g *Generator) step(ctx context.Context, runID, name, failMessage string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		g.logger.WarnTag("PIPELINE", "run %s abandoned before %s: %v", runID, name, err)
		g.publish(runID, name, eventbus.StatusFailed, failMessage)
		return err
	}

	g.publish(runID, name, eventbus.StatusStarted, "")
	spanCtx, end := observability.StartSpan(ctx, "pipeline", name)
	err := fn(spanCtx)
	end(err)

	if err != nil {
		g.logger.WarnTag("PIPELINE", "run %s failed at %s (kind=%s)", runID, name, platformerrors.KindOf(err))
		g.publish(runID, name, eventbus.StatusFailed, failMessage)
		return err
	}
	g.publish(runID, name, eventbus.StatusCompleted, "")
	return nil
}

func (g *Generator) publish(runID, step string, status eventbus.StepStatus, message string) {
	eventbus.PublishStep(g.events, eventbus.StepEvent{
		RunID:   runID,
		Step:    step,
		Status:  status,
		Message: message,
		At:      time.Now(),
	})
}

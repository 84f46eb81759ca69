package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"

	"cat-tagline-go/internal/utils"
)

const defaultMaxSize = 10 * 1024 * 1024

// Pipeline streams image bytes into the base64 data URL sent to the vision model.
type Pipeline struct {
	logger  *utils.Logger
	maxSize int64
}

// Options configures the pipeline behaviour.
type Options struct {
	MaxSize int64
	Logger  *utils.Logger
}

// Input describes a streaming image payload.
type Input struct {
	Reader         io.Reader
	DeclaredFormat string
}

// NewPipeline constructs a streaming image pipeline.
func NewPipeline(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = utils.DefaultLogger
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = defaultMaxSize
	}
	return &Pipeline{
		logger:  opts.Logger,
		maxSize: opts.MaxSize,
	}
}

// Process copies the input once, producing raw bytes and their base64 form.
// The MIME type follows the sniffed format and falls back to the declared one,
// then to jpeg.
func (p *Pipeline) Process(ctx context.Context, input Input) (*Output, error) {
	if input.Reader == nil {
		return nil, fmt.Errorf("image reader is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limited := &io.LimitedReader{
		R: input.Reader,
		N: p.maxSize + 1,
	}

	rawBuf := bytes.NewBuffer(make([]byte, 0, 32*1024))
	base64Buf := bytes.NewBuffer(make([]byte, 0, 64*1024))

	encoder := base64.NewEncoder(base64.StdEncoding, base64Buf)
	writer := io.MultiWriter(rawBuf, encoder)

	if _, err := io.Copy(writer, limited); err != nil {
		return nil, fmt.Errorf("stream image bytes: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("finalise base64 encoding: %w", err)
	}

	if limited.N <= 0 {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", p.maxSize)
	}
	if rawBuf.Len() == 0 {
		return nil, fmt.Errorf("empty image payload")
	}

	format := DetectFormat(rawBuf.Bytes())
	if format == "" {
		format = NormalizeFormat(input.DeclaredFormat)
	}
	if format == "" {
		format = "jpeg"
	}

	encoded := base64Buf.String()
	p.logger.DebugTag("IMAGE", "encoded image: format=%s bytes=%d base64=%d", format, rawBuf.Len(), len(encoded))

	return &Output{
		Base64:  encoded,
		Bytes:   rawBuf.Bytes(),
		Format:  format,
		DataURL: fmt.Sprintf("data:%s;base64,%s", MimeType(format), encoded),
	}, nil
}

// DetectFormat sniffs the registered decoders; "" when nothing matches.
func DetectFormat(raw []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	return format
}

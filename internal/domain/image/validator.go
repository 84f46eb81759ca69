package image

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"cat-tagline-go/internal/platform/config"
	"cat-tagline-go/internal/utils"
)

// Validator performs layered checks against fetched image payloads.
type Validator struct {
	config *config.ImageConfig
	logger *utils.Logger
}

// NewValidator constructs a new validator instance.
func NewValidator(cfg *config.ImageConfig, logger *utils.Logger) *Validator {
	if cfg == nil {
		cfg = &config.DefaultConfig().Image
	}
	return &Validator{
		config: cfg,
		logger: logger,
	}
}

var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46},
	"bmp":  {0x42, 0x4D},
}

// ValidateBytes decodes raw completely and checks it against the limits.
// The decoded image is returned so callers can re-encode without decoding twice.
func (v *Validator) ValidateBytes(raw []byte, declaredFormat string) (ValidationResult, image.Image) {
	result := ValidationResult{IsValid: false, Format: declaredFormat}

	if len(raw) == 0 {
		result.Error = fmt.Errorf("empty image payload")
		return result, nil
	}

	if v.config.MaxFileSize > 0 && int64(len(raw)) > v.config.MaxFileSize {
		result.Error = fmt.Errorf(
			"file size exceeds limit: %d bytes (max %d bytes)",
			len(raw),
			v.config.MaxFileSize,
		)
		result.SecurityRisk = "file too large"
		v.logger.WarnTag("IMAGE", "oversized image: size=%d max_size=%d", len(raw), v.config.MaxFileSize)
		return result, nil
	}

	if v.config.EnableDeepScan && v.scanForMaliciousContent(raw) {
		result.Error = fmt.Errorf("potential malicious content detected")
		result.SecurityRisk = "suspicious content"
		return result, nil
	}

	cfg, actualFormat, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		result.Error = fmt.Errorf("decode image config: %w", err)
		result.SecurityRisk = "corrupted image data"
		if declaredFormat != "" && !v.validateFileSignature(raw, declaredFormat) {
			v.logger.WarnTag("IMAGE", "file signature mismatch: declared_format=%s actual_header=%x",
				declaredFormat, raw[:min(len(raw), 16)])
		}
		return result, nil
	}
	result.Format = actualFormat

	if !v.isFormatAllowed(actualFormat) {
		result.Error = fmt.Errorf("unsupported format: %s", actualFormat)
		result.SecurityRisk = "unapproved format"
		return result, nil
	}

	if (v.config.MaxWidth > 0 && cfg.Width > v.config.MaxWidth) ||
		(v.config.MaxHeight > 0 && cfg.Height > v.config.MaxHeight) {
		result.Error = fmt.Errorf("dimensions exceed limit: %dx%d (max %dx%d)",
			cfg.Width, cfg.Height, v.config.MaxWidth, v.config.MaxHeight)
		result.SecurityRisk = "dimensions too large"
		return result, nil
	}

	totalPixels := int64(cfg.Width) * int64(cfg.Height)
	if v.config.MaxPixels > 0 && totalPixels > v.config.MaxPixels {
		result.Error = fmt.Errorf("pixel count exceeds limit: %d (max %d)", totalPixels, v.config.MaxPixels)
		result.SecurityRisk = "pixel count too high"
		return result, nil
	}

	// DecodeConfig only reads the header; a truncated body still has to fail.
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		result.Error = fmt.Errorf("decode image: %w", err)
		result.SecurityRisk = "corrupted image data"
		return result, nil
	}

	result.IsValid = true
	result.Width = cfg.Width
	result.Height = cfg.Height
	result.FileSize = int64(len(raw))

	v.logger.DebugTag(
		"IMAGE",
		"validation success: format=%s width=%d height=%d size=%d",
		result.Format,
		result.Width,
		result.Height,
		result.FileSize,
	)

	return result, img
}

func (v *Validator) isFormatAllowed(format string) bool {
	if len(v.config.AllowedFormats) == 0 || format == "" {
		return true
	}
	format = NormalizeFormat(format)
	for _, allowed := range v.config.AllowedFormats {
		if NormalizeFormat(allowed) == format {
			return true
		}
	}
	return false
}

func (v *Validator) validateFileSignature(raw []byte, format string) bool {
	signature, ok := imageSignatures[NormalizeFormat(format)]
	if !ok || len(signature) == 0 {
		return true
	}
	if len(raw) < len(signature) {
		return false
	}
	return bytes.Equal(signature, raw[:len(signature)])
}

func (v *Validator) scanForMaliciousContent(raw []byte) bool {
	suspiciousSignatures := [][]byte{
		{0x4D, 0x5A},             // PE executable
		{0x7F, 0x45, 0x4C, 0x46}, // ELF
		{0x25, 0x50, 0x44, 0x46}, // PDF
		{0x50, 0x4B, 0x03, 0x04}, // zip
		{0x1F, 0x8B, 0x08},       // gzip
	}

	for _, signature := range suspiciousSignatures {
		if bytes.HasPrefix(raw, signature) {
			v.logger.WarnTag("IMAGE", "detected non-image signature: %x", signature)
			return true
		}
	}

	head := raw[:min(len(raw), 4096)]
	lower := strings.ToLower(string(head))
	if strings.Contains(lower, "<svg") {
		return v.checkSVGScripts(lower)
	}
	return false
}

func (v *Validator) checkSVGScripts(lower string) bool {
	suspiciousStrings := []string{
		"<script",
		"javascript:",
		"onload=",
		"onerror=",
		"<iframe",
		"<object",
		"<embed",
	}
	for _, suspicious := range suspiciousStrings {
		if strings.Contains(lower, suspicious) {
			v.logger.WarnTag("IMAGE", "detected suspicious SVG content: token=%s", suspicious)
			return true
		}
	}
	return false
}

// NormalizeFormat folds aliases ("jpg" -> "jpeg", "tif" -> "tiff").
func NormalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimPrefix(format, ".")); f {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	default:
		return f
	}
}

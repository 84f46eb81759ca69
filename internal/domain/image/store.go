package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"cat-tagline-go/internal/platform/config"
	platformerrors "cat-tagline-go/internal/platform/errors"
	"cat-tagline-go/internal/utils"
)

var (
	// ErrUnsupportedExtension is returned when the destination extension has no encoder.
	ErrUnsupportedExtension = errors.New("unsupported image extension")
	// ErrInvalidImage wraps every decode or limit failure.
	ErrInvalidImage = errors.New("invalid image data")
)

const jpegQuality = 90

// Store persists validated images, re-encoding to the destination's format.
type Store struct {
	validator   *Validator
	logger      *utils.Logger
	defaultPath string
}

// NewStore builds a store over the image config; cfg.OutputPath is the default destination.
func NewStore(cfg *config.ImageConfig, logger *utils.Logger) *Store {
	if cfg == nil {
		cfg = &config.DefaultConfig().Image
	}
	dest := cfg.OutputPath
	if dest == "" {
		dest = config.DefaultOutputPath
	}
	return &Store{
		validator:   NewValidator(cfg, logger),
		logger:      logger,
		defaultPath: dest,
	}
}

// Save decodes raw fully and writes it to dest, overwriting any existing file.
func (s *Store) Save(raw []byte, dest string) (string, error) {
	if dest == "" {
		dest = s.defaultPath
	}

	format, err := FormatFromExtension(dest)
	if err != nil {
		return "", platformerrors.Wrap(platformerrors.KindValidation, "image.save", "resolve format", err)
	}

	validation, img := s.validator.ValidateBytes(raw, "")
	if !validation.IsValid {
		cause := validation.Error
		if cause == nil {
			cause = fmt.Errorf("validation failed")
		}
		return "", platformerrors.Wrap(
			platformerrors.KindValidation,
			"image.save",
			"validate image",
			fmt.Errorf("%w: %w", ErrInvalidImage, cause),
		)
	}

	var buf bytes.Buffer
	if err := encode(&buf, img, format); err != nil {
		return "", platformerrors.Wrap(platformerrors.KindStorage, "image.save", "encode image", err)
	}

	if dir := filepath.Dir(dest); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", platformerrors.Wrap(platformerrors.KindStorage, "image.save", "create directory", err)
		}
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		return "", platformerrors.Wrap(platformerrors.KindStorage, "image.save", "write file", err)
	}

	s.logger.InfoTag("IMAGE", "saved image: path=%s source_format=%s format=%s %dx%d",
		dest, validation.Format, format, validation.Width, validation.Height)
	return dest, nil
}

func encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case "png":
		return png.Encode(w, img)
	case "gif":
		return gif.Encode(w, img, nil)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedExtension, format)
	}
}

// FormatFromExtension maps a file path to the encoder it will be written with.
func FormatFromExtension(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg":
		return "jpeg", nil
	case ".png":
		return "png", nil
	case ".gif":
		return "gif", nil
	case ".bmp":
		return "bmp", nil
	case ".tif", ".tiff":
		return "tiff", nil
	case "":
		return "", fmt.Errorf("%w: missing extension in %q", ErrUnsupportedExtension, path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
	}
}

// MimeType returns the image/* content type for a format name.
func MimeType(format string) string {
	switch f := NormalizeFormat(format); f {
	case "":
		return "image/jpeg"
	default:
		return "image/" + f
	}
}

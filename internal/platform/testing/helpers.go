package testing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"cat-tagline-go/internal/platform/config"
	"cat-tagline-go/internal/platform/logging"
)

// SetupTestConfig returns defaults with every file path under t.TempDir().
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Log.Dir = filepath.Join(dir, "logs")
	cfg.Web.IP = "127.0.0.1"
	cfg.Web.SecretsFile = filepath.Join(dir, ".secrets.yaml")
	cfg.Image.OutputPath = filepath.Join(dir, "current_cat.jpg")
	return cfg
}

// SetupTestLogger returns a console logger writing into the returned buffer.
func SetupTestLogger(t *testing.T) (*logging.Logger, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	return logging.NewConsole("debug", &buf), &buf
}

// SamplePNG renders a small gradient and returns it PNG-encoded.
func SamplePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 11), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode sample png: %v", err)
	}
	return buf.Bytes()
}

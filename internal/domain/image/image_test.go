package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cat-tagline-go/internal/platform/config"
	platformerrors "cat-tagline-go/internal/platform/errors"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8((x + y) * 3), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testImageConfig() *config.ImageConfig {
	cfg := config.DefaultConfig().Image
	return &cfg
}

func TestValidator_AcceptsPNG(t *testing.T) {
	v := NewValidator(testImageConfig(), nil)
	result, img := v.ValidateBytes(samplePNG(t, 32, 16), "png")

	require.True(t, result.IsValid, "unexpected error: %v", result.Error)
	assert.Equal(t, "png", result.Format)
	assert.Equal(t, 32, result.Width)
	assert.Equal(t, 16, result.Height)
	require.NotNil(t, img)
}

func TestValidator_Rejects(t *testing.T) {
	full := samplePNG(t, 64, 64)

	tests := []struct {
		name string
		cfg  func(*config.ImageConfig)
		raw  []byte
		risk string
	}{
		{name: "empty", raw: nil},
		{name: "garbage", raw: []byte("definitely not an image"), risk: "corrupted image data"},
		{name: "truncated body", raw: full[:len(full)/2], risk: "corrupted image data"},
		{name: "zip archive", raw: []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00}, risk: "suspicious content"},
		{
			name: "svg script",
			raw:  []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`),
			risk: "suspicious content",
		},
		{
			name: "too large",
			cfg:  func(c *config.ImageConfig) { c.MaxFileSize = 16 },
			raw:  full,
			risk: "file too large",
		},
		{
			name: "too wide",
			cfg:  func(c *config.ImageConfig) { c.MaxWidth = 10 },
			raw:  full,
			risk: "dimensions too large",
		},
		{
			name: "too many pixels",
			cfg:  func(c *config.ImageConfig) { c.MaxPixels = 100 },
			raw:  full,
			risk: "pixel count too high",
		},
		{
			name: "format not allowed",
			cfg:  func(c *config.ImageConfig) { c.AllowedFormats = []string{"jpg"} },
			raw:  full,
			risk: "unapproved format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testImageConfig()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}
			result, img := NewValidator(cfg, nil).ValidateBytes(tt.raw, "")
			assert.False(t, result.IsValid)
			assert.Error(t, result.Error)
			assert.Nil(t, img)
			assert.Equal(t, tt.risk, result.SecurityRisk)
		})
	}
}

func TestStore_SaveReencodesByExtension(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(testImageConfig(), nil)
	raw := samplePNG(t, 20, 10)

	for _, name := range []string{"cat.jpg", "cat.png", "cat.gif", "cat.bmp", "nested/dir/cat.tiff"} {
		t.Run(name, func(t *testing.T) {
			dest := filepath.Join(dir, name)
			path, err := store.Save(raw, dest)
			require.NoError(t, err)
			assert.Equal(t, dest, path)

			written, err := os.ReadFile(path)
			require.NoError(t, err)
			cfg, format, err := image.DecodeConfig(bytes.NewReader(written))
			require.NoError(t, err)

			want, err := FormatFromExtension(dest)
			require.NoError(t, err)
			assert.Equal(t, want, format)
			assert.Equal(t, 20, cfg.Width)
			assert.Equal(t, 10, cfg.Height)
		})
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "current_cat.png")
	store := NewStore(testImageConfig(), nil)

	_, err := store.Save(samplePNG(t, 8, 8), dest)
	require.NoError(t, err)
	_, err = store.Save(samplePNG(t, 12, 4), dest)
	require.NoError(t, err)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(written))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Width)
}

func TestStore_SaveDefaultPath(t *testing.T) {
	cfg := testImageConfig()
	cfg.OutputPath = filepath.Join(t.TempDir(), "current_cat.jpg")
	store := NewStore(cfg, nil)

	path, err := store.Save(samplePNG(t, 4, 4), "")
	require.NoError(t, err)
	assert.Equal(t, cfg.OutputPath, path)
	assert.FileExists(t, path)
}

func TestStore_SaveRejectsGarbage(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "cat.jpg")
	_, err := NewStore(testImageConfig(), nil).Save([]byte("<html>oops</html>"), dest)

	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindValidation))
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.NoFileExists(t, dest)
}

func TestStore_SaveRejectsUnknownExtension(t *testing.T) {
	_, err := NewStore(testImageConfig(), nil).Save(samplePNG(t, 4, 4), filepath.Join(t.TempDir(), "cat.txt"))

	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindValidation))
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestStore_SaveWriteFailureIsStorage(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewStore(testImageConfig(), nil).Save(samplePNG(t, 4, 4), filepath.Join(blocker, "cat.png"))

	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindStorage))
}

func TestFormatFromExtension(t *testing.T) {
	tests := map[string]string{
		"a.jpg":  "jpeg",
		"a.JPEG": "jpeg",
		"a.png":  "png",
		"a.gif":  "gif",
		"a.bmp":  "bmp",
		"a.tif":  "tiff",
		"a.tiff": "tiff",
	}
	for path, want := range tests {
		got, err := FormatFromExtension(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromExtension("noext")
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
	_, err = FormatFromExtension("a.webp")
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "image/jpeg", MimeType("jpg"))
	assert.Equal(t, "image/jpeg", MimeType(""))
	assert.Equal(t, "image/png", MimeType("png"))
	assert.Equal(t, "image/webp", MimeType("WEBP"))
}

func TestPipeline_ProcessBuildsDataURL(t *testing.T) {
	raw := samplePNG(t, 6, 6)
	out, err := NewPipeline(Options{}).Process(context.Background(), Input{Reader: bytes.NewReader(raw)})
	require.NoError(t, err)

	assert.Equal(t, "png", out.Format)
	assert.Equal(t, raw, out.Bytes)
	assert.Equal(t, base64.StdEncoding.EncodeToString(raw), out.Base64)
	assert.True(t, strings.HasPrefix(out.DataURL, "data:image/png;base64,"))
}

func TestPipeline_ProcessFallsBackToJPEG(t *testing.T) {
	out, err := NewPipeline(Options{}).Process(context.Background(), Input{Reader: strings.NewReader("opaque")})
	require.NoError(t, err)
	assert.Equal(t, "jpeg", out.Format)
	assert.True(t, strings.HasPrefix(out.DataURL, "data:image/jpeg;base64,"))
}

func TestPipeline_ProcessLimits(t *testing.T) {
	p := NewPipeline(Options{MaxSize: 4})
	_, err := p.Process(context.Background(), Input{Reader: strings.NewReader("0123456789")})
	assert.ErrorContains(t, err, "exceeds maximum size")

	_, err = p.Process(context.Background(), Input{Reader: strings.NewReader("")})
	assert.ErrorContains(t, err, "empty image payload")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Process(ctx, Input{Reader: strings.NewReader("abc")})
	assert.ErrorIs(t, err, context.Canceled)
}

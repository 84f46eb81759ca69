package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoader_Load(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, ".config.yaml")

	configContent := `
log:
  log_level: "debug"
  log_dir: "/tmp/logs"
  log_file: "test.log"
web:
  port: 9090
cat_api:
  base_url: "http://cats.local"
  timeout: 5s
openai:
  vision_model: "gpt-4o"
  temperature: 0.5
image:
  output_path: "out/cat.png"
`

	if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	result, err := NewLoader().
		WithDotEnv(false).
		WithPaths(configFile).
		WithEnv(envMap(nil)).
		Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	cfg := result.Config
	if result.Path != configFile {
		t.Errorf("expected path %s, got %s", configFile, result.Path)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("expected web port 9090, got %d", cfg.Web.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.CatAPI.Timeout != 5*time.Second {
		t.Errorf("expected cat api timeout 5s, got %s", cfg.CatAPI.Timeout)
	}
	if cfg.OpenAI.VisionModel != "gpt-4o" {
		t.Errorf("expected vision model gpt-4o, got %s", cfg.OpenAI.VisionModel)
	}
	// untouched keys keep defaults
	if cfg.OpenAI.TextModel != DefaultModel {
		t.Errorf("expected text model %s, got %s", DefaultModel, cfg.OpenAI.TextModel)
	}
	if cfg.OpenAI.TaglineMaxTokens != 100 {
		t.Errorf("expected tagline max tokens 100, got %d", cfg.OpenAI.TaglineMaxTokens)
	}
	if cfg.CatAPI.Path != DefaultCatAPIPath {
		t.Errorf("expected cat api path %s, got %s", DefaultCatAPIPath, cfg.CatAPI.Path)
	}
}

func TestLoader_DefaultsWhenNoFile(t *testing.T) {
	result, err := NewLoader().
		WithDotEnv(false).
		WithPaths(filepath.Join(t.TempDir(), "missing.yaml")).
		WithEnv(envMap(nil)).
		Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result.Path != "" {
		t.Errorf("expected no config path, got %s", result.Path)
	}
	cfg := result.Config
	if cfg.CatAPI.BaseURL != DefaultCatAPIBaseURL || cfg.CatAPI.Timeout != 10*time.Second {
		t.Errorf("unexpected cat api defaults: %+v", cfg.CatAPI)
	}
	if cfg.OpenAI.DescribeMaxTokens != 300 || cfg.OpenAI.Temperature != 0.9 {
		t.Errorf("unexpected openai defaults: %+v", cfg.OpenAI)
	}
	if cfg.Image.OutputPath != DefaultOutputPath {
		t.Errorf("unexpected output path: %s", cfg.Image.OutputPath)
	}
}

func TestLoader_EnvOverrides(t *testing.T) {
	result, err := NewLoader().
		WithDotEnv(false).
		WithPaths().
		WithEnv(envMap(map[string]string{
			"CAT_TAGLINE_WEB_PORT": "7000",
			"CAT_TAGLINE_DEPLOYED": "true",
			"CATAAS_BASE_URL":      "http://localhost:1234/",
			"OPENAI_MODEL":         "gpt-4.1-mini",
		})).
		Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := result.Config
	if cfg.Web.Port != 7000 || !cfg.Web.Deployed {
		t.Errorf("unexpected web config: %+v", cfg.Web)
	}
	if cfg.CatAPI.BaseURL != "http://localhost:1234" {
		t.Errorf("unexpected base url: %s", cfg.CatAPI.BaseURL)
	}
	if cfg.OpenAI.VisionModel != "gpt-4.1-mini" || cfg.OpenAI.TextModel != "gpt-4.1-mini" {
		t.Errorf("unexpected models: %+v", cfg.OpenAI)
	}
}

func TestLoader_ConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("web:\n  port: 8123\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := NewLoader().
		WithDotEnv(false).
		WithEnv(envMap(map[string]string{ConfigPathEnv: path})).
		Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result.Config.Web.Port != 8123 {
		t.Errorf("expected port 8123, got %d", result.Config.Web.Port)
	}
}

func TestLoader_RejectsAPIKeyInConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("openai:\n  api_key: sk-in-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewLoader().
		WithDotEnv(false).
		WithPaths(path).
		WithEnv(envMap(nil)).
		Load()
	if err == nil {
		t.Fatal("expected unknown field error for openai.api_key")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("error should name the field, got %v", err)
	}
}

func TestLoader_EmptyConfigFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := NewLoader().
		WithDotEnv(false).
		WithPaths(path).
		WithEnv(envMap(nil)).
		Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result.Config.Web.Port != DefaultConfig().Web.Port {
		t.Errorf("expected default port, got %d", result.Config.Web.Port)
	}
}

func TestLoader_BadEnvValue(t *testing.T) {
	_, err := NewLoader().
		WithDotEnv(false).
		WithPaths().
		WithEnv(envMap(map[string]string{"CAT_TAGLINE_WEB_PORT": "eighty"})).
		Load()
	if err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestLoader_Validate(t *testing.T) {
	loader := NewLoader()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "invalid web port", mutate: func(c *Config) { c.Web.Port = 70000 }, wantErr: true},
		{name: "zero cat timeout", mutate: func(c *Config) { c.CatAPI.Timeout = 0 }, wantErr: true},
		{name: "zero openai timeout", mutate: func(c *Config) { c.OpenAI.Timeout = 0 }, wantErr: true},
		{name: "zero token budget", mutate: func(c *Config) { c.OpenAI.TaglineMaxTokens = 0 }, wantErr: true},
		{name: "temperature too high", mutate: func(c *Config) { c.OpenAI.Temperature = 2.5 }, wantErr: true},
		{name: "missing output path", mutate: func(c *Config) { c.Image.OutputPath = "" }, wantErr: true},
		{name: "missing base url", mutate: func(c *Config) { c.CatAPI.BaseURL = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := loader.validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

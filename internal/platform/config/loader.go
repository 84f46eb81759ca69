package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv overrides the config file search path.
const ConfigPathEnv = "CAT_TAGLINE_CONFIG"

var defaultPaths = []string{".config.yaml", "config.yaml"}

// Loader reads defaults, an optional YAML file and environment overrides.
type Loader struct {
	useDotEnv bool
	paths     []string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader that searches the working directory.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		paths:     defaultPaths,
		lookupEnv: os.LookupEnv,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPaths overrides the candidate config file paths (useful for tests).
func (l *Loader) WithPaths(paths ...string) *Loader {
	l.paths = paths
	return l
}

// WithEnv overrides environment lookups (useful for tests).
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	// Path is empty when only defaults were used.
	Path string
}

// Load builds the effective configuration.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// .env 不存在时直接使用系统环境变量
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()

	paths := l.paths
	if p, ok := l.lookupEnv(ConfigPathEnv); ok && p != "" {
		paths = []string{p}
	}

	var used string
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read config %s: %w", p, err)
		}
		if err := decodeStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", p, err)
		}
		used = p
		break
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: used}, nil
}

// decodeStrict rejects unknown keys. The API key is never read from this file.
func decodeStrict(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (l *Loader) applyEnv(cfg *Config) error {
	if v, ok := l.lookupEnv("CAT_TAGLINE_LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := l.lookupEnv("CAT_TAGLINE_WEB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CAT_TAGLINE_WEB_PORT: %w", err)
		}
		cfg.Web.Port = port
	}
	if v, ok := l.lookupEnv("CAT_TAGLINE_DEPLOYED"); ok && v != "" {
		deployed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CAT_TAGLINE_DEPLOYED: %w", err)
		}
		cfg.Web.Deployed = deployed
	}
	if v, ok := l.lookupEnv("CATAAS_BASE_URL"); ok && v != "" {
		cfg.CatAPI.BaseURL = strings.TrimSuffix(v, "/")
	}
	if v, ok := l.lookupEnv("OPENAI_BASE_URL"); ok && v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v, ok := l.lookupEnv("OPENAI_MODEL"); ok && v != "" {
		cfg.OpenAI.VisionModel = v
		cfg.OpenAI.TextModel = v
	}
	return nil
}

func (l *Loader) validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	return cfg.Validate()
}

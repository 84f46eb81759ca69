package config

import (
	"fmt"
	"time"
)

type Config struct {
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Web    WebConfig    `yaml:"web" mapstructure:"web"`
	CatAPI CatAPIConfig `yaml:"cat_api" mapstructure:"cat_api"`
	OpenAI OpenAIConfig `yaml:"openai" mapstructure:"openai"`
	Image  ImageConfig  `yaml:"image" mapstructure:"image"`

	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

type ObservabilityConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `yaml:"log_level" mapstructure:"log_level"`
	Dir   string `yaml:"log_dir" mapstructure:"log_dir"`
	File  string `yaml:"log_file" mapstructure:"log_file"`
}

type WebConfig struct {
	IP   string `yaml:"ip" mapstructure:"ip"`
	Port int    `yaml:"port" mapstructure:"port"`
	// Deployed switches credential resolution to the hosted chain
	// (secrets file, then the key typed into the page).
	Deployed    bool   `yaml:"deployed" mapstructure:"deployed"`
	SecretsFile string `yaml:"secrets_file" mapstructure:"secrets_file"`
}

type CatAPIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Path    string        `yaml:"path" mapstructure:"path"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type OpenAIConfig struct {
	BaseURL           string        `yaml:"url" mapstructure:"url"`
	VisionModel       string        `yaml:"vision_model" mapstructure:"vision_model"`
	TextModel         string        `yaml:"text_model" mapstructure:"text_model"`
	DescribeMaxTokens int           `yaml:"describe_max_tokens" mapstructure:"describe_max_tokens"`
	TaglineMaxTokens  int           `yaml:"tagline_max_tokens" mapstructure:"tagline_max_tokens"`
	Temperature       float64       `yaml:"temperature" mapstructure:"temperature"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type ImageConfig struct {
	OutputPath     string   `yaml:"output_path" mapstructure:"output_path"`
	MaxFileSize    int64    `yaml:"max_file_size" mapstructure:"max_file_size"`
	MaxPixels      int64    `yaml:"max_pixels" mapstructure:"max_pixels"`
	MaxWidth       int      `yaml:"max_width" mapstructure:"max_width"`
	MaxHeight      int      `yaml:"max_height" mapstructure:"max_height"`
	AllowedFormats []string `yaml:"allowed_formats" mapstructure:"allowed_formats"`
	EnableDeepScan bool     `yaml:"enable_deep_scan" mapstructure:"enable_deep_scan"`
}

// Validate checks the values that would otherwise only fail at request time.
func (c *Config) Validate() error {
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web port: %d", c.Web.Port)
	}
	if c.CatAPI.BaseURL == "" {
		return fmt.Errorf("cat_api.base_url is required")
	}
	if c.CatAPI.Timeout <= 0 {
		return fmt.Errorf("cat_api.timeout must be positive")
	}
	if c.OpenAI.Timeout <= 0 {
		return fmt.Errorf("openai.timeout must be positive")
	}
	if c.OpenAI.DescribeMaxTokens <= 0 || c.OpenAI.TaglineMaxTokens <= 0 {
		return fmt.Errorf("openai token budgets must be positive")
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return fmt.Errorf("openai.temperature out of range: %v", c.OpenAI.Temperature)
	}
	if c.Image.OutputPath == "" {
		return fmt.Errorf("image.output_path is required")
	}
	return nil
}

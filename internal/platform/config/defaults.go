package config

import "time"

const (
	DefaultCatAPIBaseURL = "https://cataas.com"
	DefaultCatAPIPath    = "/cat"
	DefaultModel         = "gpt-4o-mini"
	DefaultOutputPath    = "current_cat.jpg"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "cat-tagline.log",
		},
		Web: WebConfig{
			IP:          "0.0.0.0",
			Port:        8501,
			SecretsFile: ".secrets.yaml",
		},
		CatAPI: CatAPIConfig{
			BaseURL: DefaultCatAPIBaseURL,
			Path:    DefaultCatAPIPath,
			Timeout: 10 * time.Second,
		},
		OpenAI: OpenAIConfig{
			VisionModel:       DefaultModel,
			TextModel:         DefaultModel,
			DescribeMaxTokens: 300,
			TaglineMaxTokens:  100,
			Temperature:       0.9,
			Timeout:           60 * time.Second,
		},
		Image: ImageConfig{
			OutputPath:     DefaultOutputPath,
			MaxFileSize:    10 * 1024 * 1024,
			MaxPixels:      40_000_000,
			MaxWidth:       8192,
			MaxHeight:      8192,
			AllowedFormats: []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"},
			EnableDeepScan: true,
		},
		Observability: ObservabilityConfig{
			Enabled: true,
		},
	}
}

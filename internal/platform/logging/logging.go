package logging

import (
	"fmt"
	"io"
	"log/slog"

	"cat-tagline-go/internal/utils"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
}

// Logger provides access to both slog and the tagged logging APIs.
type Logger struct {
	legacy *utils.Logger
}

// New creates a file + console logger.
func New(cfg Config) (*Logger, error) {
	logCfg := &utils.LogCfg{
		LogLevel: cfg.Level,
		LogDir:   cfg.Dir,
		LogFile:  cfg.Filename,
	}
	legacy, err := utils.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return &Logger{legacy: legacy}, nil
}

// NewConsole creates a logger that only writes to w.
func NewConsole(level string, w io.Writer) *Logger {
	return &Logger{legacy: utils.NewConsoleLogger(level, w)}
}

// Legacy exposes the tagged logger used across the domain packages.
func (l *Logger) Legacy() *utils.Logger {
	return l.legacy
}

// Slog exposes the structured logger for new integrations.
func (l *Logger) Slog() *slog.Logger {
	return l.legacy.Slog()
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	return l.legacy.Close()
}

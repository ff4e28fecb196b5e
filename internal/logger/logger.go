package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Config controls Setup.
type Config struct {
	Debug    bool
	FilePath string    // log to this file instead of stdout
	Writer   io.Writer // overrides FilePath when set
}

var (
	instance *slog.Logger
	once     sync.Once
)

// Setup configures the process logger. Only the first call takes effect.
func Setup(cfg Config) {
	once.Do(func() {
		ops := &slog.HandlerOptions{
			AddSource: cfg.Debug,
			Level:     slog.LevelInfo,
		}
		if cfg.Debug {
			ops.Level = slog.LevelDebug
		}
		instance = slog.New(slog.NewTextHandler(openWriter(cfg), ops))
		slog.SetDefault(instance)
	})
}

func openWriter(cfg Config) io.Writer {
	if cfg.Writer != nil {
		return cfg.Writer
	}
	if cfg.FilePath == "" {
		return os.Stdout
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "logger: create log dir: %v\n", err)
		return os.Stdout
	}
	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: open log file: %v\n", err)
		return os.Stdout
	}
	return f
}

// get falls back to the default config when Setup was never called.
func get() *slog.Logger {
	Setup(Config{})
	return instance
}

// With returns a child logger carrying args.
func With(args ...any) *slog.Logger { return get().With(args...) }

func Info(msg string, args ...any)  { get().Info(msg, args...) }
func Warn(msg string, args ...any)  { get().Warn(msg, args...) }
func Error(msg string, args ...any) { get().Error(msg, args...) }
func Debug(msg string, args ...any) { get().Debug(msg, args...) }

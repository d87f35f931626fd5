package logger

import (
	"log/slog"
	"os"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// GetLogger returns the process-wide logger. Production mode (ENV_MODE=production)
// emits JSON, everything else emits human readable text.
func GetLogger() *slog.Logger {
	once.Do(func() {
		options := &slog.HandlerOptions{Level: slog.LevelInfo}

		if os.Getenv("LOG_LEVEL") == "debug" {
			options.Level = slog.LevelDebug
		}

		var handler slog.Handler
		if os.Getenv("ENV_MODE") == "production" {
			handler = slog.NewJSONHandler(os.Stdout, options)
		} else {
			handler = slog.NewTextHandler(os.Stdout, options)
		}

		logger = slog.New(handler)
	})

	return logger
}

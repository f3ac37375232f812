// Package logger builds the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger. Debug level is enabled outside production
// so local runs show access-gate cache activity.
func New(appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "dev" || appEnv == "local" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

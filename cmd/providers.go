package cmd

import (
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/orderpulse/notify-service/config"
)

func NewLogger(cfg *config.Config) *slog.Logger {
	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.Log.Level))

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})).With(
		"service", ServiceName,
		"version", version,
	)
	slog.SetDefault(logger)

	// The level follows config-file hot reloads without a restart.
	config.OnReload(func(c *config.Config) {
		level.Set(parseLevel(c.Log.Level))
	})

	return logger
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func ProvideLogger(cfg *config.Config) *slog.Logger {
	return NewLogger(cfg)
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}

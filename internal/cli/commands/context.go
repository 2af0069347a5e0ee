// Package commands implements the tidemark subcommands.
package commands

import (
	"context"
	"log/slog"

	"github.com/tidemark-data/tidemark/internal/config"
)

// configKey is used to store config in context.
type configKey struct{}

// loggerKey is used to store logger in context.
type loggerKey struct{}

// WithRuntime stores the resolved config and logger in the context.
// The root command calls this once per invocation; there is no
// package-level configuration state.
func WithRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey{}, cfg)
	return context.WithValue(ctx, loggerKey{}, logger)
}

// ConfigFrom retrieves the config from the command context.
func ConfigFrom(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		ModelsDir: config.DefaultModelsDir,
		BaseDir:   config.DefaultBaseDir,
		StatePath: config.DefaultStateFile,
		Output:    config.DefaultOutput,
	}
}

// LoggerFrom retrieves the logger from the command context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

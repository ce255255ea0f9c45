// Package observability carries the logging, metrics, health and
// request-identity plumbing shared by every rendezvous entry point.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel is a slog level name.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures NewLogger.
type LogConfig struct {
	Level     LogLevel
	Format    LogFormat
	Output    io.Writer // os.Stderr when nil
	AddSource bool
	Version   string
}

// DefaultLogConfig is text at info on stderr.
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: os.Stderr, Version: "dev"}
}

// LogConfigFor derives a config from APP_ENV, LOG_LEVEL, LOG_FORMAT and
// APP_VERSION values. Production defaults to JSON with source locations;
// explicit values always win.
func LogConfigFor(env, level, format, version string) LogConfig {
	cfg := DefaultLogConfig()
	if env == "production" {
		cfg.Format = LogFormatJSON
		cfg.AddSource = true
	}
	if level != "" {
		cfg.Level = LogLevel(level)
	}
	if format != "" {
		cfg.Format = LogFormat(format)
	}
	if version != "" {
		cfg.Version = version
	}
	return cfg
}

// NewLogger builds a logger that stamps every record with the service
// identity and with the correlation, request and negotiation IDs found in
// the record's context.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var base slog.Handler
	if cfg.Format == LogFormatJSON {
		base = slog.NewJSONHandler(out, opts)
	} else {
		base = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(contextHandler{base}).With("service", "rendezvous")
	if cfg.Version != "" {
		logger = logger.With("version", cfg.Version)
	}
	return logger
}

// contextHandler copies request-scoped identifiers from ctx onto records.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, kv := range [...]struct{ key, value string }{
		{CorrelationIDKey, CorrelationIDFromContext(ctx)},
		{RequestIDKey, RequestIDFromContext(ctx)},
		{NegotiationIDKey, NegotiationIDFromContext(ctx)},
	} {
		if kv.value != "" {
			r.AddAttrs(slog.String(kv.key, kv.value))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

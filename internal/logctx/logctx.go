// Package logctx carries a zerolog.Logger through context.Context.
//
//	ctx = logctx.WithLogger(ctx, logger)
//	log := logctx.FromContext(ctx)
//	ctx = logctx.WithInt(ctx, "domain", 3)
package logctx

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// nop is returned by FromContext when no logger was attached.
var nop = zerolog.Nop()

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger attached to ctx, or a disabled logger.
// Library code stays silent unless the caller opts in.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := Lookup(ctx); ok {
		return logger
	}
	return nop
}

// Lookup returns the logger attached to ctx, if any.
func Lookup(ctx context.Context) (zerolog.Logger, bool) {
	if ctx == nil {
		return zerolog.Logger{}, false
	}
	logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger)
	return logger, ok
}

// WithInt returns a copy of ctx whose logger has an extra int field.
func WithInt(ctx context.Context, key string, value int) context.Context {
	return WithLogger(ctx, FromContext(ctx).With().Int(key, value).Logger())
}

// WithStr returns a copy of ctx whose logger has an extra string field.
func WithStr(ctx context.Context, key, value string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With().Str(key, value).Logger())
}

// NewConfiguredLogger creates a stderr logger. debug lowers the level to
// Debug; human switches from JSON to console output.
func NewConfiguredLogger(debug, human bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	var output zerolog.LevelWriter
	if human {
		output = zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}}
	} else {
		output = zerolog.LevelWriterAdapter{Writer: os.Stderr}
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "requestID"

const (
	maxFileSizeMB  = 50
	maxFileBackups = 5
	maxFileAgeDays = 30
)

// New builds the JSON logger writing to out. When file is set, records also
// go to a rotated file; the returned closer releases it.
func New(out io.Writer, level string, file string) (*slog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var closer io.Closer = io.NopCloser(nil)

	if file = strings.TrimSpace(file); file != "" {
		rotated := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxFileSizeMB,
			MaxBackups: maxFileBackups,
			MaxAge:     maxFileAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(out, rotated)
		closer = rotated
	}

	return NewWithWriter(out, lvl), closer, nil
}

func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func ParseLevel(level string) (slog.Level, error) {
	var lvl slog.Level

	level = strings.TrimSpace(level)
	if level == "" {
		return slog.LevelInfo, nil
	}

	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level: %w", err)
	}

	return lvl, nil
}

// WithRequestID stores a request ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)

	return id
}

// FromContext adds the request ID of ctx to log, if there is one.
func FromContext(ctx context.Context, log *slog.Logger) *slog.Logger {
	if id := RequestID(ctx); id != "" {
		return log.With("requestID", id)
	}

	return log
}

// Package logging builds the slog loggers shared by infrakit binaries.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// DebugEnvVar turns on debug output for both binaries
const DebugEnvVar = "INFRAKIT_DEBUG"

// DebugEnabledFunc reports whether debug records should be emitted.
// It is consulted at log time so a --debug flag parsed after logger
// construction still takes effect.
type DebugEnabledFunc func() bool

// DebugCheckHandler drops debug records unless debugEnabled says otherwise
type DebugCheckHandler struct {
	handler      slog.Handler
	debugEnabled DebugEnabledFunc
}

// Enabled implements slog.Handler.Enabled
func (h *DebugCheckHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		if h.debugEnabled == nil {
			return false
		}
		return h.debugEnabled()
	}
	return true
}

// Handle implements slog.Handler.Handle
func (h *DebugCheckHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.WithAttrs
func (h *DebugCheckHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &DebugCheckHandler{
		handler:      h.handler.WithAttrs(attrs),
		debugEnabled: h.debugEnabled,
	}
}

// WithGroup implements slog.Handler.WithGroup
func (h *DebugCheckHandler) WithGroup(name string) slog.Handler {
	return &DebugCheckHandler{
		handler:      h.handler.WithGroup(name),
		debugEnabled: h.debugEnabled,
	}
}

// NewLogger creates a text logger on stderr without timestamps
func NewLogger(debugEnabled DebugEnabledFunc) *slog.Logger {
	return NewLoggerTo(os.Stderr, debugEnabled)
}

// NewLoggerTo is NewLogger with an explicit destination
func NewLoggerTo(w io.Writer, debugEnabled DebugEnabledFunc) *slog.Logger {
	base := slog.NewTextHandler(w, &slog.HandlerOptions{
		// filtering happens in DebugCheckHandler
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})

	return slog.New(&DebugCheckHandler{
		handler:      base,
		debugEnabled: debugEnabled,
	})
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Package logging builds the structured logger shared by the coffer CLI
// and the engine. Default output is human-readable text on stderr; a JSON
// mode serves machine consumers, and an optional file sink (always JSON)
// keeps a durable record next to the state it describes.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options selects the logger's outputs and threshold. The zero value is
// info-level text on stderr.
type Options struct {
	// Level is the minimum severity: debug, info, warn or error.
	// Unrecognized values fall back to info.
	Level string

	// JSON switches stderr output to JSON records.
	JSON bool

	// Quiet drops stderr output entirely. With no File either, the
	// logger discards everything.
	Quiet bool

	// File appends JSON records to the named file, creating parent
	// directories as needed.
	File string
}

// ParseLevel maps a level name onto its slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New constructs a logger per the options. The returned close function
// releases the file sink when one was opened and is safe to call either
// way.
func New(opts Options) (*slog.Logger, func() error, error) {
	hopts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	closeFn := func() error { return nil }

	var handlers []slog.Handler
	if !opts.Quiet {
		if opts.JSON {
			handlers = append(handlers, slog.NewJSONHandler(os.Stderr, hopts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(os.Stderr, hopts))
		}
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, closeFn, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closeFn, fmt.Errorf("opening log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, hopts))
		closeFn = f.Close
	}

	switch len(handlers) {
	case 0:
		return slog.New(slog.NewTextHandler(io.Discard, nil)), closeFn, nil
	case 1:
		return slog.New(handlers[0]), closeFn, nil
	default:
		return slog.New(&teeHandler{handlers: handlers}), closeFn, nil
	}
}

// NewWriter builds a text logger over an arbitrary writer. Tests use it to
// capture engine output.
func NewWriter(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// teeHandler fans each record out to every handler.
type teeHandler struct {
	handlers []slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &teeHandler{handlers: handlers}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &teeHandler{handlers: handlers}
}

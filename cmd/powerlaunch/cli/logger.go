// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// LoggerOptions configures NewLogger.
type LoggerOptions struct {
	// Debug lowers the level to Debug, which includes every workload
	// output line and every stability sample.
	Debug bool

	// File, when set, receives a JSON copy of every record in addition
	// to stderr. It is created or truncated.
	File string

	// Stderr overrides the console destination. Defaults to os.Stderr.
	Stderr io.Writer
}

// NewLogger builds the launcher's logger. The console handler is
// slog.TextHandler when stderr is a terminal and slog.JSONHandler
// otherwise, so batch schedulers capture machine-parseable logs. The
// returned function closes the log file, if any.
func NewLogger(options LoggerOptions) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if options.Debug {
		level = slog.LevelDebug
	}
	handlerOptions := &slog.HandlerOptions{Level: level}

	console := options.Stderr
	if console == nil {
		console = os.Stderr
	}
	var handler slog.Handler
	if file, ok := console.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		handler = slog.NewTextHandler(console, handlerOptions)
	} else {
		handler = slog.NewJSONHandler(console, handlerOptions)
	}

	closeLog := func() error { return nil }
	if options.File != "" {
		file, err := os.Create(options.File)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		handler = teeHandler{handler, slog.NewJSONHandler(file, handlerOptions)}
		closeLog = file.Close
	}
	return slog.New(handler), closeLog, nil
}

// teeHandler sends every record to each of its handlers.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range t {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range t {
		if handler.Enabled(ctx, record.Level) {
			errs = append(errs, handler.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make(teeHandler, len(t))
	for i, handler := range t {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return handlers
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	handlers := make(teeHandler, len(t))
	for i, handler := range t {
		handlers[i] = handler.WithGroup(name)
	}
	return handlers
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xlog is a thin compatibility layer over github.com/luxfi/log,
// trimmed to the five severities the engine's error-handling design uses
// and to the level-name parsing its CLI flag needs.
package xlog

import (
	"io"
	"log/slog"

	luxlog "github.com/luxfi/log"
)

// Logger is the structured logger handed to every component that logs.
type Logger = luxlog.Logger

const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
)

// New returns a logger annotated with the given key/value context.
func New(ctx ...interface{}) Logger {
	return luxlog.Root().New(ctx...)
}

// SetDefault installs l as the root logger used by the package-level
// Trace/Debug/Info/Warn/Error helpers.
func SetDefault(l Logger) {
	luxlog.SetDefault(l)
}

// NewTerminalLogger builds a root logger writing to w at the given level.
func NewTerminalLogger(w io.Writer, level slog.Level) Logger {
	return luxlog.NewLogger(luxlog.NewTerminalHandlerWithLevel(w, luxlog.Level(level), true))
}

func Trace(msg string, ctx ...interface{}) { luxlog.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { luxlog.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { luxlog.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { luxlog.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { luxlog.Root().Error(msg, ctx...) }

// ParseLevel maps the CLI's log-level argument (error, warn, info, debug,
// trace) onto a slog.Level. An empty name yields LevelError, the CLI
// surface's documented default; an unknown name yields LevelError
// together with a non-nil error.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return LevelError, nil
	}
	lvl, err := luxlog.ToLevel(name)
	if err != nil {
		return LevelError, err
	}
	return slog.Level(lvl), nil
}

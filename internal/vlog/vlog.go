// internal/vlog/vlog.go
// Adapted from mmp-vice's pkg/log/log.go.
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package vlog is the engine's logging wrapper: a rotating JSON
// slog.Logger that also attaches a callstack to Debug/Info/Warn/Error
// records, and that tolerates a nil receiver so subsystems can be
// constructed without a logger in tests.
package vlog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog.Logger with a rotating file sink and callstacks.
type Logger struct {
	*slog.Logger
	LogFile string
}

// New creates a Logger writing JSON records to dir (default
// "navcore-logs" when empty), rotated by lumberjack. level is one of
// debug/info/warn/error; anything else defaults to info.
func New(level, dir string) *Logger {
	if dir == "" {
		dir = "navcore-logs"
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "navcore.log"),
		MaxSize:    32, // MB
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}

	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "":
	default:
		fmt.Fprintf(os.Stderr, "%s: invalid log level, defaulting to info\n", level)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return &Logger{Logger: slog.New(h), LogFile: w.Filename}
}

func (l *Logger) Debug(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(nil, slog.LevelDebug) {
		args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
		l.Logger.Debug(msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(nil, slog.LevelInfo) {
		args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
		l.Logger.Info(msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
	if l == nil {
		slog.Warn(msg, args...)
		return
	}
	l.Logger.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
	slog.Error(msg, args...)
	if l != nil {
		l.Logger.Error(msg, args...)
	}
}

// With returns a Logger with args folded into every subsequent record.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{Logger: l.Logger.With(args...), LogFile: l.LogFile}
}

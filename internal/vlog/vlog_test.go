// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

package vlog

import (
	"path/filepath"
	"testing"
)

func TestNewBuildsLogFilePathUnderDir(t *testing.T) {
	dir := t.TempDir()
	l := New("info", dir)
	want := filepath.Join(dir, "navcore.log")
	if l.LogFile != want {
		t.Errorf("got LogFile=%q, want %q", l.LogFile, want)
	}
}

func TestNewDefaultsDirWhenEmpty(t *testing.T) {
	l := New("debug", "")
	want := filepath.Join("navcore-logs", "navcore.log")
	if l.LogFile != want {
		t.Errorf("got LogFile=%q, want %q", l.LogFile, want)
	}
}

func TestNilLoggerMethodsDoNotPanic(t *testing.T) {
	var l *Logger
	l.Debug("unreachable")
	l.Info("unreachable")
	l.Warn("falls back to the default slog logger")
	l.Error("falls back to the default slog logger")
	if l.With("k", "v") != nil {
		t.Error("With on a nil Logger should stay nil")
	}
}

func TestWithPreservesLogFile(t *testing.T) {
	dir := t.TempDir()
	l := New("info", dir)
	child := l.With("session", "abc")
	if child.LogFile != l.LogFile {
		t.Errorf("got child LogFile=%q, want %q", child.LogFile, l.LogFile)
	}
}

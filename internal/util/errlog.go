// internal/util/errlog.go
// Adapted from mmp-vice's pkg/util/error.go.
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package util holds small cross-cutting helpers shared by the loading
// and validation paths: a hierarchical, multi-error accumulator in the
// style of a structured-config validator, so a malformed graph asset
// produces one aggregated, path-qualified report instead of failing on
// the first bad field.
package util

import (
	"fmt"
	"strings"

	"github.com/konzepapp/navcore/internal/vlog"
)

// ErrorLogger accumulates non-fatal validation errors while tracking a
// "where am I" hierarchy (e.g. "edges / [3]") so each reported error is
// self-describing.
type ErrorLogger struct {
	hierarchy []string
	errors    []string
}

// Push enters a named context (e.g. a field or array index).
func (e *ErrorLogger) Push(s string) { e.hierarchy = append(e.hierarchy, s) }

// Pop leaves the most recently pushed context.
func (e *ErrorLogger) Pop() { e.hierarchy = e.hierarchy[:len(e.hierarchy)-1] }

// ErrorString records a formatted error at the current hierarchy.
func (e *ErrorLogger) ErrorString(s string, args ...any) {
	e.errors = append(e.errors, strings.Join(e.hierarchy, " / ")+": "+fmt.Sprintf(s, args...))
}

// Error records err at the current hierarchy.
func (e *ErrorLogger) Error(err error) {
	e.errors = append(e.errors, strings.Join(e.hierarchy, " / ")+": "+err.Error())
}

// HaveErrors reports whether any error was recorded.
func (e *ErrorLogger) HaveErrors() bool { return e != nil && len(e.errors) > 0 }

// PrintErrors logs every recorded error as a Warn record (the caller
// has decided the condition is non-fatal) via lg, tolerating a nil
// logger or a nil ErrorLogger.
func (e *ErrorLogger) PrintErrors(lg *vlog.Logger) {
	if e == nil {
		return
	}
	for _, msg := range e.errors {
		lg.Warn("graph asset validation", "detail", msg)
	}
}

// String joins all recorded errors with newlines.
func (e *ErrorLogger) String() string {
	if e == nil {
		return ""
	}
	return strings.Join(e.errors, "\n")
}

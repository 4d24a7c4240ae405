// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package sensors defines the adapter contracts a host platform must
// satisfy to drive a positioning session (§6.1, §6.2). The engine core
// never talks to real hardware; it only consumes these interfaces, so
// tests and cmd/navcore can supply trivial in-memory implementations.
package sensors

import (
	"context"
	"time"

	"github.com/konzepapp/navcore/internal/wifi"
)

// Permission states for a sensor or scanner that requires host OS
// authorization.
type Permission string

const (
	PermissionUnknown Permission = "unknown"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Health is the availability/permission/error snapshot for one sensor
// stream, surfaced verbatim to the host per §6.4's onSensorHealth.
type Health struct {
	Available  bool
	LastAt     time.Time
	Err        error
	Permission Permission
}

// SensorHealth aggregates the health of every input stream the
// positioning session depends on.
type SensorHealth struct {
	Magnetometer Health
	DeviceMotion Health
	Pedometer    Health
	Wifi         Health
}

// WifiScanStatus classifies the outcome of one Wi-Fi scan request.
type WifiScanStatus string

const (
	WifiScanOK               WifiScanStatus = "ok"
	WifiScanUnavailable      WifiScanStatus = "unavailable"
	WifiScanPermissionDenied WifiScanStatus = "permission_denied"
	WifiScanError            WifiScanStatus = "error"
)

// WifiScanResult is the result of one Wi-Fi scan request. Anything
// other than WifiScanOK is treated by the core as "no fix this
// interval" but the status and message are surfaced verbatim.
type WifiScanResult struct {
	Readings []wifi.Reading
	Status   WifiScanStatus
	Message  string
}

// WifiScanner is the external collaborator that performs one Wi-Fi
// scan. Implementations may block; the core launches Scan in its own
// goroutine and delivers the result back onto the session's event
// queue (package eventbus), per §5's suspension-point model.
type WifiScanner interface {
	Scan(ctx context.Context) (WifiScanResult, error)
}

// StepSource supplies an external cumulative pedometer count, the
// asynchronous counterpart of the device-motion-derived step events
// pdr.Engine already produces synchronously from OnDeviceMotion.
type StepSource interface {
	Steps(ctx context.Context) (cumulative int64, at time.Time, err error)
}

// Subscription is returned by a sensor subscribe call so the host can
// dismiss it on session stop without leaking timers or scans (§5).
type Subscription interface {
	Dismiss()
}

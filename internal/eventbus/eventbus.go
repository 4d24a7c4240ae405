// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package eventbus implements the single-consumer event queue the
// positioning/navigation core is driven from (§5, §9 "Coroutine/async
// control flow"): a session owns one Bus, pushes events from as many
// producer goroutines as it likes (sensor callbacks, a Wi-Fi scan
// goroutine, a ticker), and one consumer goroutine drains them in
// order, removing the need for locking inside the session itself.
package eventbus

import (
	"time"

	"github.com/konzepapp/navcore/internal/pdr"
	"github.com/konzepapp/navcore/internal/sensors"
)

// Event is the sum type carried on the bus: exactly one of its fields
// is populated (Go has no tagged unions, so this mirrors the source's
// `SensorEvent | WifiEvent | Tick | Command` with a populated-field
// convention, the same shape a oneof maps to in a plain struct).
type Event struct {
	Magnetometer *pdr.MagnetometerSample
	DeviceMotion *pdr.DeviceMotionSample
	Pedometer    *PedometerEvent
	Wifi         *WifiEvent
	Tick         *TickEvent
	Command      *CommandEvent
}

// PedometerEvent carries one external cumulative step count reading.
type PedometerEvent struct {
	Cumulative int64
	At         time.Time
}

// WifiEvent carries the result of one completed Wi-Fi scan.
type WifiEvent struct {
	Result sensors.WifiScanResult
	At     time.Time
}

// TickEvent is a periodic wakeup carrying the time it fired. No session
// method in this module consumes it: the off-route timer advances on
// position updates, and Wi-Fi scans are applied when they arrive.
type TickEvent struct {
	At time.Time
}

// CommandKind enumerates the explicit session actions that arrive as
// Command events rather than sensor samples.
type CommandKind string

const (
	CommandResetTo           CommandKind = "resetTo"
	CommandAlignHeadingToMag CommandKind = "alignHeadingToMag"
	CommandSetStrideScale    CommandKind = "setStrideScale"
	CommandSetWifiEnabled    CommandKind = "setWifiEnabled"
	CommandSetDestination    CommandKind = "setDestination"
	CommandStop              CommandKind = "stop"
)

// CommandEvent carries one explicit session action and its payload.
type CommandEvent struct {
	Kind        CommandKind
	At          time.Time
	Point       *struct{ X, Y float64 }
	Float       float64
	Bool        bool
	Destination string
}

// Bus is a single-consumer FIFO event queue. The zero value is not
// usable; construct with New.
type Bus struct {
	ch     chan Event
	stopCh chan struct{}
	stopped bool
}

// New creates a Bus with the given channel capacity (producers block
// once it is full, providing natural backpressure).
func New(capacity int) *Bus {
	return &Bus{ch: make(chan Event, capacity), stopCh: make(chan struct{})}
}

// Push enqueues an event. It is safe to call from any goroutine. Push
// is a no-op once Stop has been called, implementing the "post-stop
// callbacks ignored" cancellation contract of §5.
func (b *Bus) Push(e Event) {
	select {
	case <-b.stopCh:
		return
	default:
	}
	select {
	case b.ch <- e:
	case <-b.stopCh:
	}
}

// Next blocks until an event is available or the bus is stopped, in
// which case ok is false. Events already queued when Stop is called are
// still returned before ok turns false.
func (b *Bus) Next() (Event, bool) {
	select {
	case e := <-b.ch:
		return e, true
	default:
	}
	select {
	case e := <-b.ch:
		return e, true
	case <-b.stopCh:
		return Event{}, false
	}
}

// Stop marks the bus stopped; further Push calls are discarded and any
// blocked Next call returns immediately. Stop is idempotent.
func (b *Bus) Stop() {
	if b.stopped {
		return
	}
	b.stopped = true
	close(b.stopCh)
}

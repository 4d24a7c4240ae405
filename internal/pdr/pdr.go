// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package pdr implements pedestrian dead reckoning: heading fusion from
// magnetometer and device-motion samples, and step detection from a
// peak detector on linear acceleration plus external pedometer deltas.
package pdr

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/konzepapp/navcore/internal/geo"
)

// StepSource distinguishes a step detected from device motion from one
// derived from an external pedometer delta.
type StepSource string

const (
	SourceDeviceMotion StepSource = "deviceMotion"
	SourcePedometer    StepSource = "pedometer"
)

// StepEvent is emitted whenever the engine detects a step.
type StepEvent struct {
	Source       StepSource
	LengthMeters float64
	At           time.Time
}

// Vec3 is a raw 3-axis sensor reading.
type Vec3 struct{ X, Y, Z float64 }

func (v Vec3) magnitude() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// MagnetometerSample is one magnetometer reading (~5 Hz).
type MagnetometerSample struct {
	Field Vec3
	At    time.Time
}

// DeviceMotionSample is one device-motion reading (~20 Hz). Pointers
// mark fields the adapter may omit.
type DeviceMotionSample struct {
	RotationAlpha                *float64
	RotationRateAlpha            *float64
	Acceleration                 *Vec3
	AccelerationIncludingGravity *Vec3
	At                           time.Time
}

const (
	windowLen = 35

	magEMAAlpha       = 0.08
	magReliabilityMix = 0.15
	magBandLow        = 15.0
	magBandHigh       = 80.0

	gravityEMAAlpha = 0.08

	attitudeNudgeMax = 20.0
	fastTurnDegPerS  = 140.0
	fastTurnFactor   = 0.2

	stepMinSpacing   = 280 * time.Millisecond
	stationaryAfter  = 600 * time.Millisecond
	pedometerSuppress = 1800 * time.Millisecond

	defaultStepLength = 0.75

	minStrideScale = 0.6
	maxStrideScale = 1.5
)

// Engine holds all PDR state for one positioning session.
type Engine struct {
	heading        float64
	magHeading     float64
	magReliability float64

	haveMagEMA bool
	magEMA     float64

	haveGravityEMA bool
	gravityEMA     Vec3

	window []float64

	inPeak  bool
	peakMax float64

	haveLowSince bool
	lowSince     time.Time

	haveLastDeviceMotionStep bool
	lastDeviceMotionStepAt   time.Time

	haveLastDeviceMotionSample bool
	lastDeviceMotionSampleAt   time.Time

	lastPedometerCount *int64

	strideScale float64

	stationary  bool
	lastOmega   float64
	haveOmega   bool
}

// New creates an Engine with the given stride scale (clamped to
// [0.6,1.5]; 1.0 when <= 0) and heading 0.
func New(strideScale float64) *Engine {
	e := &Engine{strideScale: clampStride(strideScale)}
	e.Reset(nil)
	return e
}

func clampStride(s float64) float64 {
	if s <= 0 {
		return 1.0
	}
	return geo.Clamp(s, minStrideScale, maxStrideScale)
}

// SetStrideScale updates the stride scale, clamped to [0.6, 1.5].
func (e *Engine) SetStrideScale(s float64) { e.strideScale = geo.Clamp(s, minStrideScale, maxStrideScale) }

// Heading returns the current fused heading in degrees, [0,360).
func (e *Engine) Heading() float64 { return e.heading }

// MagHeading returns the current smoothed magnetic heading candidate,
// independent of the fused heading.
func (e *Engine) MagHeading() float64 { return e.magHeading }

// SetHeading overrides the fused heading directly, leaving all other
// engine state (step detector window, gravity/EMA state, stride scale)
// untouched. Used by alignHeadingToMag, which must not reset step
// detection context.
func (e *Engine) SetHeading(deg float64) { e.heading = geo.WrapHeading(deg) }

// MagReliability returns the current magnetic reliability in [0,1].
func (e *Engine) MagReliability() float64 { return e.magReliability }

// Stationary reports whether the step detector currently considers the
// carrier stationary (continuous low acceleration for >= 600ms).
func (e *Engine) Stationary() bool { return e.stationary }

// YawRateDegPerSec returns the most recently integrated yaw rate in
// degrees/second, or 0 if none has been observed yet.
func (e *Engine) YawRateDegPerSec() float64 {
	if !e.haveOmega {
		return 0
	}
	return e.lastOmega
}

// LastStepAt returns the timestamp of the most recent device-motion
// step event and whether one has occurred yet.
func (e *Engine) LastStepAt() (time.Time, bool) {
	return e.lastDeviceMotionStepAt, e.haveLastDeviceMotionStep
}

// Reset clears all internal state. Heading starts at headingDeg, or 0
// if nil. The configured stride scale is preserved (it is a caller
// setting, not session state).
func (e *Engine) Reset(headingDeg *float64) {
	h := 0.0
	if headingDeg != nil {
		h = *headingDeg
	}
	stride := e.strideScale
	*e = Engine{strideScale: stride}
	e.heading = geo.WrapHeading(h)
	e.magHeading = geo.WrapHeading(h)
}

// toDegrees converts alpha per the sensor contract: radians if
// |alpha| <= 2*pi+0.5, else already degrees.
func toDegrees(alpha float64) float64 {
	if math.Abs(alpha) <= 2*math.Pi+0.5 {
		return alpha * 180 / math.Pi
	}
	return alpha
}

// OnMagnetometer folds one magnetometer sample into the EMA magnitude,
// reliability, and smoothed magnetic heading. It never emits steps.
func (e *Engine) OnMagnetometer(s MagnetometerSample) {
	mag := s.Field.magnitude()
	if !e.haveMagEMA {
		e.magEMA = mag
		e.haveMagEMA = true
	} else {
		e.magEMA += magEMAAlpha * (mag - e.magEMA)
	}

	deviation := 0.0
	if e.magEMA > 0 {
		deviation = math.Abs(mag-e.magEMA) / e.magEMA
	}

	rInstant := 0.0
	if e.magEMA > magBandLow && e.magEMA < magBandHigh {
		switch {
		case deviation <= 0.15:
			rInstant = 1
		case deviation <= 0.35:
			rInstant = 1 - (deviation-0.15)/0.20
		}
	}
	e.magReliability = geo.Clamp(0.85*e.magReliability+magReliabilityMix*rInstant, 0, 1)

	candidate := geo.WrapHeading(math.Atan2(s.Field.Y, s.Field.X) * 180 / math.Pi)
	e.magHeading = geo.LowPassHeading(e.magHeading, candidate, 0.03+0.09*e.magReliability)
}

// OnDeviceMotion folds one device-motion sample into the fused heading
// (attitude nudge, then yaw-rate integration, then slow magnetic
// correction) and runs the step peak detector. It returns at most one
// step event.
func (e *Engine) OnDeviceMotion(s DeviceMotionSample) []StepEvent {
	if s.RotationAlpha != nil {
		gyroHeading := geo.WrapHeading(toDegrees(*s.RotationAlpha))
		step := geo.Clamp(geo.HeadingDiff(e.heading, gyroHeading), -attitudeNudgeMax, attitudeNudgeMax)
		e.heading = geo.WrapHeading(e.heading + step)
	}

	omega, haveOmega := 0.0, false
	if s.RotationRateAlpha != nil && e.haveLastDeviceMotionSample {
		omega = toDegrees(*s.RotationRateAlpha)
		haveOmega = true
		dt := geo.Clamp(s.At.Sub(e.lastDeviceMotionSampleAt).Seconds(), 0.001, 0.2)
		e.heading = geo.WrapHeading(e.heading + omega*dt)
	}

	fTurn := 1.0
	if haveOmega && math.Abs(omega) > fastTurnDegPerS {
		fTurn = fastTurnFactor
	}
	g := (0.008 + 0.05*e.magReliability) * fTurn
	e.heading = geo.LowPassHeading(e.heading, e.magHeading, g)

	e.lastDeviceMotionSampleAt = s.At
	e.haveLastDeviceMotionSample = true
	e.lastOmega, e.haveOmega = omega, haveOmega

	var events []StepEvent
	if accel, ok := e.linearAcceleration(s); ok {
		if ev, emitted := e.detectStep(accel, s.At); emitted {
			events = append(events, ev)
		}
	}
	return events
}

func (e *Engine) linearAcceleration(s DeviceMotionSample) (Vec3, bool) {
	if s.Acceleration != nil {
		return *s.Acceleration, true
	}
	if s.AccelerationIncludingGravity == nil {
		return Vec3{}, false
	}
	g := *s.AccelerationIncludingGravity
	if !e.haveGravityEMA {
		e.gravityEMA = g
		e.haveGravityEMA = true
	} else {
		e.gravityEMA = Vec3{
			X: e.gravityEMA.X + gravityEMAAlpha*(g.X-e.gravityEMA.X),
			Y: e.gravityEMA.Y + gravityEMAAlpha*(g.Y-e.gravityEMA.Y),
			Z: e.gravityEMA.Z + gravityEMAAlpha*(g.Z-e.gravityEMA.Z),
		}
	}
	return Vec3{X: g.X - e.gravityEMA.X, Y: g.Y - e.gravityEMA.Y, Z: g.Z - e.gravityEMA.Z}, true
}

func (e *Engine) detectStep(accel Vec3, at time.Time) (StepEvent, bool) {
	mag := accel.magnitude()

	e.window = append(e.window, mag)
	if len(e.window) > windowLen {
		e.window = e.window[len(e.window)-windowLen:]
	}

	mu, sigma := mag, 0.0
	if len(e.window) >= 2 {
		mu, sigma = stat.MeanStdDev(e.window, nil)
	}
	tau := geo.Clamp(mu+2.6*sigma, 0.06, 1.6)

	lowThreshold := math.Max(0.02, 0.25*tau)
	if mag < lowThreshold {
		if !e.haveLowSince {
			e.lowSince = at
			e.haveLowSince = true
		}
	} else {
		e.haveLowSince = false
	}
	stationary := e.haveLowSince && at.Sub(e.lowSince) >= stationaryAfter
	e.stationary = stationary

	if !e.inPeak {
		if mag > tau {
			e.inPeak = true
			e.peakMax = mag
		}
		return StepEvent{}, false
	}

	if mag > e.peakMax {
		e.peakMax = mag
	}
	if mag >= mu {
		return StepEvent{}, false
	}

	// Exiting the peak.
	e.inPeak = false
	sinceLast := time.Duration(math.MaxInt64)
	if e.haveLastDeviceMotionStep {
		sinceLast = at.Sub(e.lastDeviceMotionStepAt)
	}
	if sinceLast <= stepMinSpacing || e.peakMax <= tau || stationary {
		return StepEvent{}, false
	}

	length := geo.Clamp(0.62+0.18*(e.peakMax-tau), 0.45, 1.05) * e.strideScale
	e.lastDeviceMotionStepAt = at
	e.haveLastDeviceMotionStep = true
	return StepEvent{Source: SourceDeviceMotion, LengthMeters: length, At: at}, true
}

// OnPedometer folds one monotonic cumulative step count into a set of
// pedometer step events, suppressed entirely when a device-motion step
// has occurred within the last 1800ms (anti-double-count).
func (e *Engine) OnPedometer(cumulative int64, at time.Time) []StepEvent {
	if e.lastPedometerCount == nil {
		c := cumulative
		e.lastPedometerCount = &c
		return nil
	}
	delta := cumulative - *e.lastPedometerCount
	*e.lastPedometerCount = cumulative
	if delta <= 0 {
		return nil
	}
	if e.haveLastDeviceMotionStep && at.Sub(e.lastDeviceMotionStepAt) < pedometerSuppress {
		return nil
	}

	events := make([]StepEvent, 0, delta)
	for i := int64(0); i < delta; i++ {
		events = append(events, StepEvent{
			Source:       SourcePedometer,
			LengthMeters: defaultStepLength * e.strideScale,
			At:           at,
		})
	}
	return events
}

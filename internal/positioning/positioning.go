// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package positioning is the top-level orchestration of §4.6: it
// drives a pdr.Engine from sensor samples, predicts/updates a
// kalman.State with the resulting displacement and periodic Wi-Fi
// fixes, snaps the result to the floor graph, and emits Pose2D values
// plus a capped path buffer.
package positioning

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/konzepapp/navcore/internal/geo"
	"github.com/konzepapp/navcore/internal/kalman"
	"github.com/konzepapp/navcore/internal/pdr"
	"github.com/konzepapp/navcore/internal/snap"
	"github.com/konzepapp/navcore/internal/storemap"
	"github.com/konzepapp/navcore/internal/vlog"
	"github.com/konzepapp/navcore/internal/wifi"
)

const (
	maxPathPoints  = 240
	maxStepsPerUpdate = 20

	wifiHardResetDistanceMeters = 10
	wifiHardResetConfidence     = 0.75

	headingSmoothingAlpha = 0.18
)

// PoseSource distinguishes a pose driven by a step event from one
// driven by a Wi-Fi fix.
type PoseSource string

const (
	SourcePDR     PoseSource = "pdr"
	SourcePDRWifi PoseSource = "pdr_wifi"
)

// Pose2D is the positioning session's output, emitted on every step or
// Wi-Fi fix (§3).
type Pose2D struct {
	X, Y       float64
	HeadingDeg float64
	Timestamp  time.Time
	Source     PoseSource
	Snapped    bool
}

// ConfidenceTier classifies the current pose quality.
type ConfidenceTier string

const (
	ConfidenceGood ConfidenceTier = "good"
	ConfidenceOK   ConfidenceTier = "ok"
	ConfidenceLow  ConfidenceTier = "low"
)

// Config configures a positioning Session, per §4.6.
type Config struct {
	Start              geo.Point2
	StrideScale        float64
	WifiEnabled        bool
	WifiScanIntervalMs int
	Snap               snap.Options
}

// Session orchestrates one positioning run over a shared-read map. The
// map and anchor set are read-only; the PDR engine, Kalman state, path
// buffer, and snap corridor memory are owned and mutated only by this
// Session's methods, per §3's lifetime/ownership rule.
type Session struct {
	ID string

	m   *storemap.Map
	lg  *vlog.Logger
	cfg Config

	engine *pdr.Engine
	kal    *kalman.State

	rawPos geo.Point2 // dead-reckoned position, used when the Kalman filter is disabled

	snapOpts snap.Options
	prevEdge *snap.EdgeRef

	reportedHeading float64
	path            []geo.Point2

	// OnRelocalize is invoked immediately before a hard Kalman reset
	// triggered by a confident, distant Wi-Fi fix, so a host can smooth
	// the resulting visible jump without the core changing semantics.
	OnRelocalize func(from, to geo.Point2)

	OnPose      func(Pose2D)
	OnPathPoint func(geo.Point2)
}

// New starts a positioning session: the PDR engine starts at heading
// 0, the path buffer starts at cfg.Start, and the Kalman filter is
// created with sigma=1.5m only if Wi-Fi is enabled.
func New(m *storemap.Map, cfg Config, lg *vlog.Logger) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		m:        m,
		lg:       lg,
		cfg:      cfg,
		engine:   pdr.New(cfg.StrideScale),
		rawPos:   cfg.Start,
		snapOpts: cfg.Snap,
		path:     []geo.Point2{cfg.Start},
	}
	if cfg.WifiEnabled {
		s.kal = kalman.New(cfg.Start, 1.5)
	}
	return s
}

// OnMagnetometer folds in one magnetometer sample; it never emits a
// pose directly.
func (s *Session) OnMagnetometer(samp pdr.MagnetometerSample) {
	s.engine.OnMagnetometer(samp)
}

// OnDeviceMotion folds in one device-motion sample and runs the full
// pose update protocol for any step events it produces.
func (s *Session) OnDeviceMotion(samp pdr.DeviceMotionSample) {
	events := s.engine.OnDeviceMotion(samp)
	s.applyStepEvents(events)
}

// OnPedometer folds in one external cumulative step count.
func (s *Session) OnPedometer(cumulative int64, at time.Time) {
	events := s.engine.OnPedometer(cumulative, at)
	s.applyStepEvents(events)
}

func (s *Session) applyStepEvents(events []pdr.StepEvent) {
	if len(events) == 0 {
		return
	}
	if len(events) > maxStepsPerUpdate {
		events = events[:maxStepsPerUpdate]
	}

	hRad := s.engine.Heading() * math.Pi / 180
	var total geo.Point2
	var at time.Time
	for _, ev := range events {
		total.X += math.Sin(hRad) * ev.LengthMeters
		total.Y += -math.Cos(hRad) * ev.LengthMeters
		at = ev.At
	}

	procSigma := (0.22 + 0.08*(1-s.engine.MagReliability())) * math.Sqrt(float64(len(events)))
	if s.kal != nil {
		s.kal.Predict(total, procSigma)
	}
	s.rawPos = s.rawPos.Add(total)

	cur := s.rawPos
	if s.kal != nil {
		cur = s.kal.Center()
	}

	s.reportedHeading = geo.LowPassHeading(s.reportedHeading, s.engine.Heading(), headingSmoothingAlpha)
	s.emit(cur, SourcePDR, at)
}

// OnWifiScan folds in one completed Wi-Fi scan (the readings, not the
// scanner contract itself, which lives in package sensors): computes a
// weighted-centroid fix, hard-resets the Kalman state on a confident,
// distant fix, otherwise absorbs it as a measurement update.
func (s *Session) OnWifiScan(readings []wifi.Reading, at time.Time) {
	if s.kal == nil {
		return // Wi-Fi integration disabled
	}
	fix, ok := wifi.Compute(readings, s.m.Anchors())
	if !ok {
		return
	}

	center := s.kal.Center()
	if geo.Distance(center, fix.Point) > wifiHardResetDistanceMeters && fix.Confidence > wifiHardResetConfidence {
		if s.OnRelocalize != nil {
			s.OnRelocalize(center, fix.Point)
		}
		s.kal.Reset(fix.Point, 1.5)
		s.rawPos = fix.Point
	} else {
		measSigma := geo.Clamp(6-5.2*fix.Confidence, 1.2, 6)
		s.kal.Update(fix.Point, measSigma)
	}

	s.emit(s.kal.Center(), SourcePDRWifi, at)
}

// emit runs the shared snap + pose-emission tail of the pose update
// protocol: snap the current estimate, remember the chosen edge for
// corridor stickiness, append to the capped path buffer, and invoke
// the observer callbacks.
func (s *Session) emit(cur geo.Point2, source PoseSource, at time.Time) {
	opts := s.snapOpts
	opts.PreviousEdge = s.prevEdge
	result := snap.Snap(cur, s.m.Edges(), opts)
	s.prevEdge = result.Edge

	maxSnap := opts.MaxSnapMeters
	if maxSnap <= 0 {
		maxSnap = snap.DefaultMaxSnapMeters
	}
	snapped := result.Edge != nil && result.Distance <= maxSnap

	pose := Pose2D{
		X: result.Snapped.X, Y: result.Snapped.Y,
		HeadingDeg: s.reportedHeading,
		Timestamp:  at,
		Source:     source,
		Snapped:    snapped,
	}

	s.path = append(s.path, result.Snapped)
	if len(s.path) > maxPathPoints {
		s.path = s.path[len(s.path)-maxPathPoints:]
	}

	if s.OnPose != nil {
		s.OnPose(pose)
	}
	if s.OnPathPoint != nil {
		s.OnPathPoint(result.Snapped)
	}
}

// CurrentPosition returns the session's current best-effort raw (not
// necessarily snapped) position estimate.
func (s *Session) CurrentPosition() geo.Point2 {
	if s.kal != nil {
		return s.kal.Center()
	}
	return s.rawPos
}

// Path returns a copy of the capped path buffer (at most 240 points).
func (s *Session) Path() []geo.Point2 {
	out := make([]geo.Point2, len(s.path))
	copy(out, s.path)
	return out
}

// ResetTo reinitializes the PDR engine, replaces the path buffer with
// [p], and resets the Kalman state (if enabled) to p.
func (s *Session) ResetTo(p geo.Point2) {
	s.engine.Reset(nil)
	s.rawPos = p
	s.path = []geo.Point2{p}
	s.prevEdge = nil
	if s.kal != nil {
		s.kal.Reset(p, 1.5)
	}
}

// AlignHeadingToMag sets the fused heading equal to the current
// magnetic heading, without disturbing any other PDR state.
func (s *Session) AlignHeadingToMag() {
	s.engine.SetHeading(s.engine.MagHeading())
}

// SetStrideScale clamps s to [0.6, 1.5] and propagates it to the PDR
// engine.
func (s *Session) SetStrideScale(scale float64) {
	s.cfg.StrideScale = scale
	s.engine.SetStrideScale(scale)
}

// SetWifiEnabled toggles Wi-Fi integration. Disabling drops the
// Kalman filter entirely (per §4.6); re-enabling creates a fresh one
// seeded at the current raw position.
func (s *Session) SetWifiEnabled(enabled bool) {
	s.cfg.WifiEnabled = enabled
	if !enabled {
		s.kal = nil
		return
	}
	if s.kal == nil {
		s.kal = kalman.New(s.rawPos, 1.5)
	}
}

// ConfidenceTier computes the side-output confidence tier and raw
// score at time now.
func (s *Session) ConfidenceTier(now time.Time) (ConfidenceTier, float64) {
	c := 0.35
	if at, ok := s.engine.LastStepAt(); ok && now.Sub(at) < 1800*time.Millisecond {
		c += 0.25
	}
	if !s.engine.Stationary() {
		c += 0.10
	}
	c += (s.engine.MagReliability() - 0.5) * 0.35
	if math.Abs(s.engine.YawRateDegPerSec()) > 280 {
		c -= 0.08
	}

	switch {
	case c > 0.72:
		return ConfidenceGood, c
	case c > 0.45:
		return ConfidenceOK, c
	default:
		return ConfidenceLow, c
	}
}

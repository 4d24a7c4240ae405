// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package navigation tracks an active route: it recomputes the path
// whenever the destination or map changes, projects each new position
// onto the route polyline to report progress and the next maneuver,
// and triggers a reroute once the carrier has been off-route long
// enough, throttled to at most once every 1500ms, per §4.9.
package navigation

import (
	"time"

	"github.com/konzepapp/navcore/internal/geo"
	"github.com/konzepapp/navcore/internal/routing"
	"github.com/konzepapp/navcore/internal/storemap"
	"github.com/konzepapp/navcore/internal/turnbyturn"
	"github.com/konzepapp/navcore/internal/vlog"
)

const minRecalcInterval = 1500 * time.Millisecond

// RerouteConfig configures the off-route detector.
type RerouteConfig struct {
	OffRouteMeters float64
	PersistMs      int
}

// Route is the current computed path, in both node-id and polyline
// form, plus its derived maneuvers.
type Route struct {
	NodeIDs      []string
	Points       []geo.Point2
	LengthMeters float64
	Maneuvers    []turnbyturn.Maneuver
}

// State is the navigation session's observable output, per §4.9.
type State struct {
	Route           *Route
	OffRoute        bool
	NextManeuver    *turnbyturn.Maneuver
	DistanceToNext  float64
	NextInstruction string
}

// Session tracks one active route over a shared-read map.
type Session struct {
	m  *storemap.Map
	lg *vlog.Logger

	enabled       bool
	destinationID string
	reroute       RerouteConfig

	current     geo.Point2
	haveCurrent bool

	route *Route

	offRouteSince time.Time
	haveOffRoute  bool

	lastRecalc time.Time
	haveRecalc bool

	state State

	// OnRoute is invoked whenever the route is (re)computed, including
	// to nil when disabled or when the destination is unreachable.
	OnRoute func(*Route)
}

// New creates a disabled navigation session over m.
func New(m *storemap.Map, lg *vlog.Logger) *Session {
	return &Session{m: m, lg: lg, reroute: RerouteConfig{OffRouteMeters: 2, PersistMs: 3000}}
}

// SetReroute updates the off-route detector's thresholds.
func (s *Session) SetReroute(cfg RerouteConfig) { s.reroute = cfg }

// SetEnabled toggles navigation. Enabling with a known current position
// and destination immediately triggers a recalc.
func (s *Session) SetEnabled(enabled bool, now time.Time) {
	s.enabled = enabled
	if !enabled {
		s.route = nil
		s.resetOffRoute()
		s.updateState()
		if s.OnRoute != nil {
			s.OnRoute(nil)
		}
		return
	}
	s.recalc(now)
}

// SetDestination changes the destination node id and recalcs if
// navigation is enabled.
func (s *Session) SetDestination(nodeID string, now time.Time) {
	s.destinationID = nodeID
	if s.enabled {
		s.recalc(now)
	}
}

// SetMap replaces the underlying graph (e.g. on a floor change) and
// recalcs if navigation is enabled.
func (s *Session) SetMap(m *storemap.Map, now time.Time) {
	s.m = m
	if s.enabled {
		s.recalc(now)
	}
}

// OnPosition folds in a new current-position estimate: it updates
// route progress, the next maneuver, and the off-route timer, and
// triggers a recalc if the carrier has been off-route for longer than
// persistMs and at least 1500ms have elapsed since the last recalc.
func (s *Session) OnPosition(p geo.Point2, now time.Time) {
	s.current = p
	s.haveCurrent = true

	if !s.enabled || s.route == nil {
		s.resetOffRoute()
		s.updateState()
		return
	}

	progress := turnbyturn.TrackProgress(s.route.Points, p)
	next, remaining := turnbyturn.NextManeuver(s.route.Maneuvers, progress.AlongMeters)

	offRoute := progress.Distance > s.reroute.OffRouteMeters
	if offRoute {
		if !s.haveOffRoute {
			s.offRouteSince = now
			s.haveOffRoute = true
		}
		persistMs := time.Duration(s.reroute.PersistMs) * time.Millisecond
		sinceRecalc := minRecalcInterval
		if s.haveRecalc {
			sinceRecalc = now.Sub(s.lastRecalc)
		}
		if now.Sub(s.offRouteSince) >= persistMs && sinceRecalc >= minRecalcInterval {
			s.recalc(now)
			// Recompute progress against the fresh route before reporting.
			progress = turnbyturn.TrackProgress(s.route.Points, p)
			next, remaining = turnbyturn.NextManeuver(s.route.Maneuvers, progress.AlongMeters)
			offRoute = progress.Distance > s.reroute.OffRouteMeters
		}
	} else {
		s.resetOffRoute()
	}

	s.state = State{
		Route:           s.route,
		OffRoute:        offRoute,
		NextManeuver:    next,
		DistanceToNext:  remaining,
		NextInstruction: turnbyturn.FormatNextInstruction(next, remaining),
	}
}

func (s *Session) resetOffRoute() {
	s.haveOffRoute = false
}

// recalc runs routing from the current position to the destination,
// rebuilds maneuvers, and stores the result as the current route. It
// does not reset the off-route timer: that only re-arms when the
// carrier is observed back on-route.
func (s *Session) recalc(now time.Time) {
	s.lastRecalc = now
	s.haveRecalc = true

	if !s.enabled || s.destinationID == "" || !s.haveCurrent {
		s.route = nil
		s.updateState()
		if s.OnRoute != nil {
			s.OnRoute(nil)
		}
		return
	}

	result, err := routing.FromPoint(s.m, s.current, s.destinationID)
	if err != nil {
		if s.lg != nil {
			s.lg.Warn("navigation recalc failed", "destination", s.destinationID, "error", err.Error())
		}
		s.route = nil
		s.updateState()
		if s.OnRoute != nil {
			s.OnRoute(nil)
		}
		return
	}

	s.route = &Route{
		NodeIDs:      result.NodeIDs,
		Points:       result.Points,
		LengthMeters: result.LengthMeters,
		Maneuvers:    turnbyturn.BuildManeuvers(result.Points),
	}
	s.updateState()
	if s.OnRoute != nil {
		s.OnRoute(s.route)
	}
}

func (s *Session) updateState() {
	if s.route == nil {
		s.state = State{}
		return
	}
	progress := turnbyturn.TrackProgress(s.route.Points, s.current)
	next, remaining := turnbyturn.NextManeuver(s.route.Maneuvers, progress.AlongMeters)
	s.state = State{
		Route:           s.route,
		OffRoute:        progress.Distance > s.reroute.OffRouteMeters,
		NextManeuver:    next,
		DistanceToNext:  remaining,
		NextInstruction: turnbyturn.FormatNextInstruction(next, remaining),
	}
}

// State returns the session's current observable state.
func (s *Session) State() State { return s.state }

// Route returns the currently stored route, or nil.
func (s *Session) Route() *Route { return s.route }

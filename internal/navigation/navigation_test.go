// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

package navigation

import (
	"testing"
	"time"

	"github.com/konzepapp/navcore/internal/geo"
	"github.com/konzepapp/navcore/internal/storemap"
)

func straightLineMap(t *testing.T) *storemap.Map {
	t.Helper()
	nodes := []storemap.Node{
		{ID: "start", X: 0, Y: 0},
		{ID: "end", X: 10, Y: 0},
	}
	m, err := storemap.Build("m", "", 50, nodes, []storemap.Edge{{From: "start", To: "end"}}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestRecalcOnEnableBuildsRoute(t *testing.T) {
	m := straightLineMap(t)
	s := New(m, nil)
	now := time.Unix(0, 0)

	s.OnPosition(geo.Point2{X: 0, Y: 0}, now)
	s.SetDestination("end", now)
	s.SetEnabled(true, now)

	if s.Route() == nil {
		t.Fatal("expected a route after enabling with a known destination")
	}
	if len(s.Route().NodeIDs) == 0 {
		t.Error("expected a non-empty node id path")
	}
}

func TestRerouteTriggerTiming(t *testing.T) {
	m := straightLineMap(t)
	s := New(m, nil)
	s.SetReroute(RerouteConfig{OffRouteMeters: 2, PersistMs: 3000})

	base := time.Unix(0, 0)
	s.OnPosition(geo.Point2{X: 5, Y: 0}, base)
	s.SetDestination("end", base)
	s.SetEnabled(true, base)

	recalcs := 0
	s.OnRoute = func(r *Route) { recalcs++ }

	at := func(ms int) time.Time { return base.Add(time.Duration(ms) * time.Millisecond) }

	// t=0: off-route begins (distance 2.5 > offRouteMeters 2).
	s.OnPosition(geo.Point2{X: 5, Y: 2.5}, at(0))
	if s.State().OffRoute != true {
		t.Fatalf("expected off-route at t=0")
	}
	if recalcs != 0 {
		t.Fatalf("got %d recalcs at t=0, want 0", recalcs)
	}

	// t=2999: persistMs (3000) not yet elapsed, no recalc.
	s.OnPosition(geo.Point2{X: 5, Y: 2.5}, at(2999))
	if recalcs != 0 {
		t.Fatalf("got %d recalcs at t=2999, want 0", recalcs)
	}

	// t=3001: persistMs elapsed, recalc triggered exactly once.
	s.OnPosition(geo.Point2{X: 5, Y: 2.5}, at(3001))
	if recalcs != 1 {
		t.Fatalf("got %d recalcs at t=3001, want 1", recalcs)
	}

	// The t=3001 reroute starts its polyline at (5,2.5), (5,2.5)->(10,0),
	// so the carrier moves to (5,5), 2.5m off that new route, to stay
	// off-route.

	// t=4500: less than 1500ms since the t=3001 recalc, still throttled.
	s.OnPosition(geo.Point2{X: 5, Y: 5}, at(4500))
	if recalcs != 1 {
		t.Fatalf("got %d recalcs at t=4500, want 1 (still throttled)", recalcs)
	}

	// t=4501: 1500ms since the last recalc, and the off-route timer (never
	// reset, since the carrier never returned on-route) already exceeds
	// persistMs, so the throttle alone gates the next recalc.
	s.OnPosition(geo.Point2{X: 5, Y: 5}, at(4501))
	if recalcs != 2 {
		t.Fatalf("got %d recalcs at t=4501, want 2", recalcs)
	}
}

func TestRerouteTimerRearmsOnReturnToRoute(t *testing.T) {
	m := straightLineMap(t)
	s := New(m, nil)
	s.SetReroute(RerouteConfig{OffRouteMeters: 2, PersistMs: 3000})

	base := time.Unix(0, 0)
	s.OnPosition(geo.Point2{X: 5, Y: 0}, base)
	s.SetDestination("end", base)
	s.SetEnabled(true, base)

	recalcs := 0
	s.OnRoute = func(r *Route) { recalcs++ }

	at := func(ms int) time.Time { return base.Add(time.Duration(ms) * time.Millisecond) }

	s.OnPosition(geo.Point2{X: 5, Y: 2.5}, at(0))    // off-route begins
	s.OnPosition(geo.Point2{X: 5, Y: 0}, at(1000))   // back on-route: timer re-arms
	s.OnPosition(geo.Point2{X: 5, Y: 2.5}, at(1100)) // off-route begins again
	s.OnPosition(geo.Point2{X: 5, Y: 2.5}, at(4099)) // only 2999ms since re-arm
	if recalcs != 0 {
		t.Fatalf("got %d recalcs at t=4099, want 0 (persist timer re-armed at t=1100)", recalcs)
	}
	s.OnPosition(geo.Point2{X: 5, Y: 2.5}, at(4101)) // 3001ms since re-arm
	if recalcs != 1 {
		t.Fatalf("got %d recalcs at t=4101, want 1", recalcs)
	}
}

func TestDisableClearsRoute(t *testing.T) {
	m := straightLineMap(t)
	s := New(m, nil)
	now := time.Unix(0, 0)
	s.OnPosition(geo.Point2{X: 0, Y: 0}, now)
	s.SetDestination("end", now)
	s.SetEnabled(true, now)
	if s.Route() == nil {
		t.Fatal("expected a route after enabling")
	}

	s.SetEnabled(false, now)
	if s.Route() != nil {
		t.Error("expected route to be cleared after disabling")
	}
}

func TestUnreachableDestinationYieldsNilRoute(t *testing.T) {
	m := straightLineMap(t)
	s := New(m, nil)
	now := time.Unix(0, 0)
	s.OnPosition(geo.Point2{X: 0, Y: 0}, now)
	s.SetDestination("nope", now)
	s.SetEnabled(true, now)
	if s.Route() != nil {
		t.Error("expected nil route for an unknown destination node")
	}
}

// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

package turnbyturn

import (
	"math"
	"testing"

	"github.com/konzepapp/navcore/internal/geo"
)

func TestBuildManeuversStartArriveAndTurn(t *testing.T) {
	// Right turn: (0,0) -> (10,0) -> (10,10). First leg bearing = 90
	// (east), second leg bearing = 180 (south); delta = +90 -> right.
	points := []geo.Point2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	ms := BuildManeuvers(points)

	if len(ms) != 3 {
		t.Fatalf("got %d maneuvers, want 3 (start, right, arrive)", len(ms))
	}
	if ms[0].Type != ManeuverStart || ms[0].AtIndex != 0 {
		t.Errorf("first maneuver = %+v, want start at 0", ms[0])
	}
	if ms[1].Type != ManeuverRight {
		t.Errorf("middle maneuver type = %v, want right", ms[1].Type)
	}
	last := ms[len(ms)-1]
	if last.Type != ManeuverArrive || last.AtIndex != len(points)-1 {
		t.Errorf("last maneuver = %+v, want arrive at %d", last, len(points)-1)
	}
}

func TestBuildManeuversSuppressesSmallAngles(t *testing.T) {
	// Nearly straight: bearing changes by ~10 degrees, under the 28
	// degree threshold, so the interior vertex should not appear.
	points := []geo.Point2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 1.76}}
	ms := BuildManeuvers(points)
	for _, m := range ms {
		if m.Type != ManeuverStart && m.Type != ManeuverArrive {
			t.Errorf("got unexpected maneuver %+v for a near-straight polyline", m)
		}
	}
}

func TestBuildManeuversUturn(t *testing.T) {
	points := []geo.Point2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 0.1}}
	ms := BuildManeuvers(points)
	found := false
	for _, m := range ms {
		if m.Type == ManeuverUturn {
			found = true
		}
	}
	if !found {
		t.Errorf("got %+v, want a uturn maneuver", ms)
	}
}

func TestFormatNextInstruction(t *testing.T) {
	if got := FormatNextInstruction(nil, 0); got != "Select a destination" {
		t.Errorf("nil maneuver: got %q", got)
	}
	start := &Maneuver{Type: ManeuverStart}
	if got := FormatNextInstruction(start, 5); got != "Start walking" {
		t.Errorf("start: got %q", got)
	}
	arrive := &Maneuver{Type: ManeuverArrive}
	if got := FormatNextInstruction(arrive, 1); got != "Arrive" {
		t.Errorf("arrive near: got %q", got)
	}
	if got := FormatNextInstruction(arrive, 5); got != "Continue to destination" {
		t.Errorf("arrive far: got %q", got)
	}
	turn := &Maneuver{Type: ManeuverLeft, Instruction: "Turn left"}
	if got := FormatNextInstruction(turn, 12.2); got != "In 13 m, Turn left" {
		t.Errorf("turn: got %q", got)
	}
}

func TestTrackProgressOnStraightLine(t *testing.T) {
	points := []geo.Point2{{X: 0, Y: 0}, {X: 10, Y: 0}}
	p := TrackProgress(points, geo.Point2{X: 4, Y: 3})
	if math.Abs(p.AlongMeters-4) > 1e-9 {
		t.Errorf("got along=%v, want 4", p.AlongMeters)
	}
	if math.Abs(p.Distance-3) > 1e-9 {
		t.Errorf("got distance=%v, want 3", p.Distance)
	}
	if p.SegmentIndex != 0 {
		t.Errorf("got segment=%d, want 0", p.SegmentIndex)
	}
}

func TestNextManeuverPicksFirstBeyondAlong(t *testing.T) {
	ms := []Maneuver{
		{Type: ManeuverStart, DistanceFromStartMeters: 0},
		{Type: ManeuverLeft, DistanceFromStartMeters: 10},
		{Type: ManeuverArrive, DistanceFromStartMeters: 20},
	}
	m, dist := NextManeuver(ms, 9)
	if m == nil || m.Type != ManeuverLeft {
		t.Fatalf("got %+v, want left maneuver", m)
	}
	if math.Abs(dist-1) > 1e-9 {
		t.Errorf("got distance=%v, want 1", dist)
	}
}

// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

package geo

import (
	"math"
	"testing"
)

func TestWrapHeading(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{359.9, 359.9},
		{360, 0},
		{720, 0},
		{-10, 350},
		{-370, 350},
	}
	for _, c := range cases {
		if got := WrapHeading(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("WrapHeading(%v) = %v, want %v", c.in, got, c.want)
		}
	}

	// idempotent
	for _, x := range []float64{-999, -1, 0, 1, 400, 12345.6} {
		w := WrapHeading(x)
		if w < 0 || w >= 360 {
			t.Errorf("WrapHeading(%v) = %v out of [0,360)", x, w)
		}
		if got := WrapHeading(w); math.Abs(got-w) > 1e-9 {
			t.Errorf("WrapHeading not idempotent at %v: %v != %v", x, got, w)
		}
	}
}

func TestHeadingDiff(t *testing.T) {
	cases := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{0, 90, 90},
		{350, 10, 20},
		{10, 350, -20},
		{0, 180, 180},
		{180, 0, 180},
	}
	for _, c := range cases {
		got := HeadingDiff(c.a, c.b)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("HeadingDiff(%v,%v) = %v, want %v", c.a, c.b, got, c.want)
		}
		if got <= -180 || got > 180 {
			t.Errorf("HeadingDiff(%v,%v) = %v out of (-180,180]", c.a, c.b, got)
		}
	}

	for _, a := range []float64{0, 45, 179, 350} {
		if d := HeadingDiff(a, a); d != 0 {
			t.Errorf("HeadingDiff(%v,%v) = %v, want 0", a, a, d)
		}
	}
}

func TestProjectPointToSegment(t *testing.T) {
	a, b := Point2{0, 0}, Point2{10, 0}

	p := ProjectPointToSegment(Point2{5, 3}, a, b)
	if math.Abs(p.T-0.5) > 1e-9 || math.Abs(p.D-3) > 1e-9 {
		t.Errorf("got t=%v d=%v, want t=0.5 d=3", p.T, p.D)
	}

	// p == a -> t=0, d=0
	p = ProjectPointToSegment(a, a, b)
	if p.T != 0 || p.D != 0 {
		t.Errorf("p==a: got t=%v d=%v, want t=0 d=0", p.T, p.D)
	}

	// beyond endpoints clamps
	p = ProjectPointToSegment(Point2{-5, 0}, a, b)
	if p.T != 0 {
		t.Errorf("before a: got t=%v, want 0", p.T)
	}
	p = ProjectPointToSegment(Point2{15, 0}, a, b)
	if p.T != 1 {
		t.Errorf("past b: got t=%v, want 1", p.T)
	}

	// degenerate segment
	p = ProjectPointToSegment(Point2{1, 1}, a, a)
	if p.T != 0 {
		t.Errorf("degenerate segment: got t=%v, want 0", p.T)
	}
}

func TestLowPassHeading(t *testing.T) {
	got := LowPassHeading(350, 10, 0.5)
	if math.Abs(got-0) > 1e-6 {
		t.Errorf("LowPassHeading(350,10,0.5) = %v, want 0", got)
	}
}

func TestBearing(t *testing.T) {
	// straight down (+y) from origin is heading 180
	if got := Bearing(Point2{0, 0}, Point2{0, 10}); math.Abs(got-180) > 1e-9 {
		t.Errorf("Bearing down = %v, want 180", got)
	}
	// straight +x is heading 90
	if got := Bearing(Point2{0, 0}, Point2{10, 0}); math.Abs(got-90) > 1e-9 {
		t.Errorf("Bearing +x = %v, want 90", got)
	}
}

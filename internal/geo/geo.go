// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package geo implements the 2D geometry primitives the rest of the
// engine is built on: points in the plan frame, heading wrap/diff,
// point-to-segment projection, and a heading low-pass filter.
//
// Coordinates are meters in the plan frame (origin at the floorplan's
// top-left corner, +x right, +y down). Heading 0 degrees points toward
// -y ("plan up"); +90 degrees points toward +x.
package geo

import "math"

// Point2 is a 2D point in the plan frame, in meters.
type Point2 struct {
	X, Y float64
}

// Add returns p+q.
func (p Point2) Add(q Point2) Point2 { return Point2{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point2) Sub(q Point2) Point2 { return Point2{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by s.
func (p Point2) Scale(s float64) Point2 { return Point2{p.X * s, p.Y * s} }

// Dot returns the dot product of p and q.
func (p Point2) Dot(q Point2) float64 { return p.X*q.X + p.Y*q.Y }

// Length returns the Euclidean norm of p.
func (p Point2) Length() float64 { return math.Sqrt(p.Dot(p)) }

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point2) float64 { return p.Sub(q).Length() }

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// WrapHeading reduces deg to [0, 360).
func WrapHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// HeadingDiff returns b-a normalized to (-180, 180].
func HeadingDiff(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// LowPassHeading blends next into prev at rate alpha in [0,1], wrapping
// through the shortest angular path.
func LowPassHeading(prev, next, alpha float64) float64 {
	return WrapHeading(prev + HeadingDiff(prev, next)*alpha)
}

// Bearing returns the plan-frame bearing from a to b, wrapped to
// [0,360), using the same 0deg-is-"up" convention as heading.
func Bearing(a, b Point2) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	return WrapHeading(math.Atan2(dx, -dy) * 180 / math.Pi)
}

// Projection is the result of projecting a point onto a segment.
type Projection struct {
	T float64 // fraction along [a,b] in [0,1]
	Q Point2  // the projected point
	D float64 // distance from the input point to Q
}

// ProjectPointToSegment projects p onto the segment a-b, clamping the
// parametric distance to [0,1]. Degenerate (near-zero-length) segments
// project to t=0.
func ProjectPointToSegment(p, a, b Point2) Projection {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	var t float64
	if denom > 1e-9 {
		t = Clamp(p.Sub(a).Dot(ab)/denom, 0, 1)
	}
	q := a.Add(ab.Scale(t))
	return Projection{T: t, Q: q, D: Distance(p, q)}
}

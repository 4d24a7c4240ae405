// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package snap projects a free-space 2D point onto the nearest walkable
// edge of a storemap.Map, applying corridor stickiness (a penalty for
// candidates away from the previously chosen edge) and an optional hard
// clamp that always reports the projected point and keeps to edges
// touching the previous one unless a disconnected edge is clearly
// closer (relocalization).
package snap

import (
	"math"

	"github.com/konzepapp/navcore/internal/geo"
	"github.com/konzepapp/navcore/internal/storemap"
)

const (
	DefaultMaxSnapMeters       = 1.75
	DefaultSwitchPenaltyMeters = 0.35

	sameEndpointPenalty = 0.08
	relocalizeFactor     = 2.25
	relocalizeMargin     = 0.2
)

// EdgeRef identifies an edge by its endpoint node ids, in the
// orientation it was declared in the graph (From->To).
type EdgeRef struct {
	From, To string
}

// equalUndirected reports whether a and b refer to the same edge
// regardless of traversal direction.
func (a EdgeRef) equalUndirected(b EdgeRef) bool {
	return (a.From == b.From && a.To == b.To) || (a.From == b.To && a.To == b.From)
}

// sharesEndpoint reports whether a and b touch a common node.
func (a EdgeRef) sharesEndpoint(b EdgeRef) bool {
	return a.From == b.From || a.From == b.To || a.To == b.From || a.To == b.To
}

// Options configures a single Snap call.
type Options struct {
	MaxSnapMeters       float64 // default DefaultMaxSnapMeters when <= 0
	SwitchPenaltyMeters float64 // default DefaultSwitchPenaltyMeters when <= 0
	HardClamp           bool
	PreviousEdge        *EdgeRef
}

func (o Options) maxSnap() float64 {
	if o.MaxSnapMeters <= 0 {
		return DefaultMaxSnapMeters
	}
	return o.MaxSnapMeters
}

func (o Options) switchPenalty() float64 {
	if o.SwitchPenaltyMeters <= 0 {
		return DefaultSwitchPenaltyMeters
	}
	return o.SwitchPenaltyMeters
}

// Result is the outcome of a Snap call.
type Result struct {
	Snapped  geo.Point2
	Distance float64
	Edge     *EdgeRef // nil if no edges exist
	T        float64
}

type candidate struct {
	ref   EdgeRef
	proj  geo.Projection
	score float64
}

// Snap projects p onto the nearest edge in edges, per §4.5.
func Snap(p geo.Point2, edges []storemap.ResolvedEdge, opts Options) Result {
	if len(edges) == 0 {
		return Result{Snapped: p, Distance: math.Inf(1), Edge: nil}
	}

	score := func(ref EdgeRef, d float64) float64 {
		if opts.PreviousEdge == nil {
			return d
		}
		switch {
		case ref.equalUndirected(*opts.PreviousEdge):
			return d
		case ref.sharesEndpoint(*opts.PreviousEdge):
			return d + sameEndpointPenalty
		default:
			return d + opts.switchPenalty()
		}
	}

	global := bestOf(edges, p, score, nil)

	if opts.HardClamp && opts.PreviousEdge != nil {
		connected := bestOf(edges, p, score, func(ref EdgeRef) bool {
			return ref.sharesEndpoint(*opts.PreviousEdge)
		})
		if connected != nil {
			maxSnap := opts.maxSnap()
			if global != nil && connected.proj.D > relocalizeFactor*maxSnap &&
				global.proj.D+relocalizeMargin < connected.proj.D {
				return finish(p, global, opts, true)
			}
			return finish(p, connected, opts, true)
		}
	}

	if global == nil {
		return Result{Snapped: p, Distance: math.Inf(1), Edge: nil}
	}
	return finish(p, global, opts, opts.HardClamp)
}

func bestOf(edges []storemap.ResolvedEdge, p geo.Point2, score func(EdgeRef, float64) float64, filter func(EdgeRef) bool) *candidate {
	var best *candidate
	for _, e := range edges {
		ref := EdgeRef{From: e.From.ID, To: e.To.ID}
		if filter != nil && !filter(ref) {
			continue
		}
		proj := geo.ProjectPointToSegment(p, e.From.Point(), e.To.Point())
		c := candidate{ref: ref, proj: proj, score: score(ref, proj.D)}
		if best == nil || c.score < best.score {
			cc := c
			best = &cc
		}
	}
	return best
}

// finish applies the max-snap/hard-clamp reporting rule to the chosen
// candidate.
func finish(p geo.Point2, c *candidate, opts Options, clamp bool) Result {
	ref := c.ref
	if !clamp && c.proj.D > opts.maxSnap() {
		return Result{Snapped: p, Distance: c.proj.D, Edge: &ref, T: c.proj.T}
	}
	return Result{Snapped: c.proj.Q, Distance: c.proj.D, Edge: &ref, T: c.proj.T}
}

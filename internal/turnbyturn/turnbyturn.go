// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package turnbyturn turns a route polyline into maneuvers and tracks
// progress of a current position against it, including the position's
// distance from the route, per §4.8. The off-route decision itself is
// made by package navigation from that distance.
package turnbyturn

import (
	"fmt"
	"math"

	"github.com/konzepapp/navcore/internal/geo"
)

// ManeuverType classifies one instruction point along a route.
type ManeuverType string

const (
	ManeuverStart    ManeuverType = "start"
	ManeuverArrive   ManeuverType = "arrive"
	ManeuverLeft     ManeuverType = "left"
	ManeuverRight    ManeuverType = "right"
	ManeuverStraight ManeuverType = "straight"
	ManeuverUturn    ManeuverType = "uturn"
)

const straightThreshold = 28.0
const uturnThreshold = 150.0

// Maneuver is one instruction point along a route polyline.
type Maneuver struct {
	Type                    ManeuverType
	AtIndex                 int
	Point                   geo.Point2
	DistanceFromStartMeters float64
	Instruction             string
}

// BuildManeuvers derives start/arrive/turn maneuvers from a route
// polyline. Interior vertices with |angle diff| < 28 degrees are
// suppressed (straight continuation, not reported as a maneuver).
func BuildManeuvers(points []geo.Point2) []Maneuver {
	if len(points) == 0 {
		return nil
	}

	cumulative := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		cumulative[i] = cumulative[i-1] + geo.Distance(points[i-1], points[i])
	}

	maneuvers := []Maneuver{{
		Type:        ManeuverStart,
		AtIndex:     0,
		Point:       points[0],
		Instruction: "Start walking",
	}}

	for i := 1; i < len(points)-1; i++ {
		b1 := geo.Bearing(points[i-1], points[i])
		b2 := geo.Bearing(points[i], points[i+1])
		delta := geo.HeadingDiff(b1, b2)

		var typ ManeuverType
		switch {
		case math.Abs(delta) < straightThreshold:
			continue
		case math.Abs(delta) > uturnThreshold:
			typ = ManeuverUturn
		case delta > 0:
			typ = ManeuverRight
		default:
			typ = ManeuverLeft
		}

		maneuvers = append(maneuvers, Maneuver{
			Type:                    typ,
			AtIndex:                 i,
			Point:                   points[i],
			DistanceFromStartMeters: cumulative[i],
			Instruction:             instructionFor(typ),
		})
	}

	last := len(points) - 1
	maneuvers = append(maneuvers, Maneuver{
		Type:                    ManeuverArrive,
		AtIndex:                 last,
		Point:                   points[last],
		DistanceFromStartMeters: cumulative[last],
		Instruction:             "Arrive",
	})

	return maneuvers
}

func instructionFor(t ManeuverType) string {
	switch t {
	case ManeuverLeft:
		return "Turn left"
	case ManeuverRight:
		return "Turn right"
	case ManeuverUturn:
		return "Make a U-turn"
	default:
		return "Continue"
	}
}

// FormatNextInstruction formats the instruction text for a maneuver m
// at remaining distance d meters. m may be nil (no route/destination).
func FormatNextInstruction(m *Maneuver, d float64) string {
	if m == nil {
		return "Select a destination"
	}
	switch m.Type {
	case ManeuverStart:
		return "Start walking"
	case ManeuverArrive:
		if d < 2 {
			return "Arrive"
		}
		return "Continue to destination"
	default:
		return fmt.Sprintf("In %d m, %s", int(math.Ceil(d)), m.Instruction)
	}
}

// Progress is the result of projecting a position onto a route
// polyline: the closest point, its along-route distance, and the
// perpendicular offset.
type Progress struct {
	AlongMeters  float64
	Closest      geo.Point2
	Distance     float64
	SegmentIndex int
	T            float64
}

// TrackProgress projects p onto every segment of points and returns the
// progress against the closest one.
func TrackProgress(points []geo.Point2, p geo.Point2) Progress {
	if len(points) < 2 {
		if len(points) == 1 {
			return Progress{Closest: points[0], Distance: geo.Distance(p, points[0])}
		}
		return Progress{Distance: math.Inf(1)}
	}

	cumulative := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		cumulative[i] = cumulative[i-1] + geo.Distance(points[i-1], points[i])
	}

	best := Progress{Distance: math.Inf(1)}
	for i := 0; i < len(points)-1; i++ {
		proj := geo.ProjectPointToSegment(p, points[i], points[i+1])
		if proj.D < best.Distance {
			best = Progress{
				AlongMeters:  cumulative[i] + proj.T*(cumulative[i+1]-cumulative[i]),
				Closest:      proj.Q,
				Distance:     proj.D,
				SegmentIndex: i,
				T:            proj.T,
			}
		}
	}
	return best
}

// NextManeuver returns the first maneuver whose distance from the
// route start exceeds along+0.5, and its remaining distance.
func NextManeuver(maneuvers []Maneuver, along float64) (*Maneuver, float64) {
	for i := range maneuvers {
		if maneuvers[i].DistanceFromStartMeters > along+0.5 {
			return &maneuvers[i], maneuvers[i].DistanceFromStartMeters - along
		}
	}
	return nil, 0
}

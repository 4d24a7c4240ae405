// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package routing computes the shortest walkable path from a free 2D
// point (already snapped to the graph, or simply nearest-node) to a
// destination node, by augmenting the storemap graph with a virtual
// start node per §4.7 before running gonum's Dijkstra.
package routing

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/konzepapp/navcore/internal/geo"
	"github.com/konzepapp/navcore/internal/snap"
	"github.com/konzepapp/navcore/internal/storemap"
)

// ErrUnreachable is returned when the destination node is unknown or
// not connected to the start.
var ErrUnreachable = errors.New("routing: destination unreachable")

// Result is the outcome of a successful route computation.
type Result struct {
	NodeIDs      []string
	Points       []geo.Point2
	LengthMeters float64
}

// FromPoint computes the shortest path from a free point p (snapped
// against m's edges internally) to destNodeID, per §4.7: if p snaps to
// edge (a,b), the virtual start is wired to both endpoints by Euclidean
// distance; otherwise it is wired to the single nearest node.
func FromPoint(m *storemap.Map, p geo.Point2, destNodeID string) (Result, error) {
	if _, ok := m.Node(destNodeID); !ok {
		return Result{}, ErrUnreachable
	}

	snapped := snap.Snap(p, m.Edges(), snap.Options{MaxSnapMeters: math.Inf(1)})

	var legs []storemap.VirtualEdge
	if snapped.Edge != nil {
		if a, ok := m.Node(snapped.Edge.From); ok {
			legs = append(legs, storemap.VirtualEdge{ToNodeID: a.ID, Distance: geo.Distance(p, a.Point())})
		}
		if b, ok := m.Node(snapped.Edge.To); ok {
			legs = append(legs, storemap.VirtualEdge{ToNodeID: b.ID, Distance: geo.Distance(p, b.Point())})
		}
	} else if nearest, ok := m.NearestNode(p); ok {
		if n, ok := m.Node(nearest); ok {
			legs = append(legs, storemap.VirtualEdge{ToNodeID: n.ID, Distance: geo.Distance(p, n.Point())})
		}
	}
	if len(legs) == 0 {
		return Result{}, ErrUnreachable
	}

	g, virtualID, nodeName, err := m.AugmentedGraph(legs)
	if err != nil {
		return Result{}, ErrUnreachable
	}
	destID, ok := m.NodeGonumID(destNodeID)
	if !ok {
		return Result{}, ErrUnreachable
	}

	return shortestPath(g, virtualID, destID, nodeName, m, p)
}

func shortestPath(g *simple.WeightedDirectedGraph, fromID, toID int64, nodeName func(int64) string, m *storemap.Map, start geo.Point2) (Result, error) {
	shortest := path.DijkstraFrom(simple.Node(fromID), g)
	nodes, weight := shortest.To(toID)
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return Result{}, ErrUnreachable
	}

	nodeIDs := make([]string, 0, len(nodes)-1)
	points := make([]geo.Point2, 0, len(nodes))
	points = append(points, start)
	for _, n := range nodes[1:] {
		id := nodeName(n.ID())
		if id == "" {
			continue
		}
		node, ok := m.Node(id)
		if !ok {
			continue
		}
		nodeIDs = append(nodeIDs, id)
		points = append(points, node.Point())
	}

	var length float64
	for i := 1; i < len(points); i++ {
		length += geo.Distance(points[i-1], points[i])
	}

	return Result{NodeIDs: nodeIDs, Points: points, LengthMeters: length}, nil
}

// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package storemap implements the typed walkable graph: nodes, edges,
// and Wi-Fi anchors loaded from a floorplan asset (see the graph asset
// format), plus adjacency and a Dijkstra shortest-path helper built on
// gonum's graph/simple and graph/path packages rather than a hand
// rolled O(V^2) scan.
package storemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/konzepapp/navcore/internal/geo"
	"github.com/konzepapp/navcore/internal/util"
)

// NodeType classifies a graph node.
type NodeType string

const (
	NodeEntry    NodeType = "entry"
	NodeExit     NodeType = "exit"
	NodeAisle    NodeType = "aisle"
	NodePOI      NodeType = "poi"
	NodeWalkway  NodeType = "walkway"
)

// Node is an immutable vertex of the walkable graph.
type Node struct {
	ID        string
	Label     string
	X, Y      float64
	Floor     int
	Type      NodeType
	SectionID string
}

// Point returns the node's plan-frame position.
func (n Node) Point() geo.Point2 { return geo.Point2{X: n.X, Y: n.Y} }

// Edge connects two nodes. Distance is nil when unset (evaluated as
// Euclidean between endpoints at load time). Bidirectional defaults to
// true when nil.
type Edge struct {
	From, To       string
	Distance       *float64
	Bidirectional  *bool
}

// IsBidirectional reports the effective bidirectional flag (default true).
func (e Edge) IsBidirectional() bool { return e.Bidirectional == nil || *e.Bidirectional }

// AnchorSource distinguishes a surveyed anchor from a live-observed one.
type AnchorSource string

const (
	AnchorMock AnchorSource = "mock"
	AnchorLive AnchorSource = "live"
)

// Anchor is a Wi-Fi access point of known plan-frame position.
type Anchor struct {
	BSSID      string // normalized (trimmed, lower-cased) at load time
	Label      string
	X, Y       float64
	Floor      int
	Source     AnchorSource
	Confidence *float64
}

// Point returns the anchor's plan-frame position.
func (a Anchor) Point() geo.Point2 { return geo.Point2{X: a.X, Y: a.Y} }

// NormalizeBSSID trims whitespace and lower-cases a BSSID for
// case-insensitive comparison.
func NormalizeBSSID(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ResolvedEdge is an Edge after validation, with its effective distance
// (Euclidean when unset) computed.
type ResolvedEdge struct {
	Edge
	From, To Node
	Length   float64
}

// ErrUnknownNode is returned when a lookup references a node id the
// graph does not contain.
var ErrUnknownNode = errors.New("storemap: unknown node id")

// Map is the read-only, shared-read graph of one floor: nodes, edges,
// and anchors, used by snap-to-graph, routing, and Wi-Fi fix. The
// routing graph is not cached; BuildGraph rebuilds it from the edge
// list on every call.
type Map struct {
	ID, Label string
	GridSize  float64

	nodes     map[string]Node
	nodeOrder []string
	edges     []ResolvedEdge
	anchors   []Anchor
}

// Build constructs a Map from raw nodes/edges/anchors. Edges referring
// to unknown node ids are silently dropped, per the graph-inconsistency
// error-handling contract. Node ids must be unique; a duplicate is an
// error since it would make "immutable once loaded" ambiguous.
func Build(id, label string, gridSize float64, nodes []Node, edges []Edge, anchors []Anchor) (*Map, error) {
	m := &Map{
		ID:       id,
		Label:    label,
		GridSize: gridSize,
		nodes:    make(map[string]Node, len(nodes)),
	}
	for _, n := range nodes {
		if _, dup := m.nodes[n.ID]; dup {
			return nil, fmt.Errorf("storemap: duplicate node id %q", n.ID)
		}
		m.nodes[n.ID] = n
		m.nodeOrder = append(m.nodeOrder, n.ID)
	}

	for _, e := range edges {
		from, ok1 := m.nodes[e.From]
		to, ok2 := m.nodes[e.To]
		if !ok1 || !ok2 {
			continue // silently ignored: graph inconsistency is non-fatal
		}
		length := geo.Distance(from.Point(), to.Point())
		if e.Distance != nil {
			length = *e.Distance
		}
		m.edges = append(m.edges, ResolvedEdge{Edge: e, From: from, To: to, Length: length})
	}

	for _, a := range anchors {
		a.BSSID = NormalizeBSSID(a.BSSID)
		m.anchors = append(m.anchors, a)
	}

	return m, nil
}

// Node returns the node with the given id.
func (m *Map) Node(id string) (Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Nodes returns all nodes in load order.
func (m *Map) Nodes() []Node {
	out := make([]Node, 0, len(m.nodeOrder))
	for _, id := range m.nodeOrder {
		out = append(out, m.nodes[id])
	}
	return out
}

// Edges returns all validated, resolved edges.
func (m *Map) Edges() []ResolvedEdge { return m.edges }

// Anchors returns the anchor set.
func (m *Map) Anchors() []Anchor { return m.anchors }

// NearestNode returns the id of the node closest to p by Euclidean
// distance, restricted to the given types (all types if empty).
func (m *Map) NearestNode(p geo.Point2, types ...NodeType) (string, bool) {
	allowed := func(t NodeType) bool {
		if len(types) == 0 {
			return true
		}
		for _, want := range types {
			if want == t {
				return true
			}
		}
		return false
	}

	best := ""
	bestD := math.Inf(1)
	for _, id := range m.nodeOrder {
		n := m.nodes[id]
		if !allowed(n.Type) {
			continue
		}
		if d := geo.Distance(p, n.Point()); d < bestD {
			bestD, best = d, id
		}
	}
	return best, best != ""
}

// idIndex assigns stable gonum int64 ids to nodes in load order, so
// that Dijkstra's frontier tie-breaking (equal tentative distance) is
// deterministic by discovery order as required by the routing contract.
type idIndex struct {
	idOf   map[string]int64
	nodeOf map[int64]string
}

func (m *Map) newIDIndex() *idIndex {
	idx := &idIndex{idOf: make(map[string]int64, len(m.nodeOrder)), nodeOf: make(map[int64]string, len(m.nodeOrder))}
	for i, id := range m.nodeOrder {
		idx.idOf[id] = int64(i)
		idx.nodeOf[int64(i)] = id
	}
	return idx
}

// BuildGraph returns a fresh weighted directed graph mirroring the
// map's edges (bidirectional edges become two directed arcs), plus the
// string<->int64 id index used to add a virtual routing start node.
// A fresh graph is returned on every call so callers (routing) can
// augment it without mutating shared state.
func (m *Map) BuildGraph() (*simple.WeightedDirectedGraph, *idIndex) {
	idx := m.newIDIndex()
	g := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for _, id := range m.nodeOrder {
		g.AddNode(simple.Node(idx.idOf[id]))
	}
	for _, e := range m.edges {
		from, to := idx.idOf[e.From.ID], idx.idOf[e.To.ID]
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(from), simple.Node(to), e.Length))
		if e.IsBidirectional() {
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(to), simple.Node(from), e.Length))
		}
	}
	return g, idx
}

// ShortestPathNodes runs Dijkstra over the map's own graph (no virtual
// start) from one node id to another, returning the node id sequence.
// Routing from a free point is implemented in package routing, which
// augments the graph with a virtual node before calling this path
// machinery directly.
func (m *Map) ShortestPathNodes(fromID, toID string) ([]string, float64, error) {
	g, idx := m.BuildGraph()
	fromN, ok := idx.idOf[fromID]
	if !ok {
		return nil, 0, ErrUnknownNode
	}
	toN, ok := idx.idOf[toID]
	if !ok {
		return nil, 0, ErrUnknownNode
	}

	shortest := path.DijkstraFrom(simple.Node(fromN), g)
	nodes, weight := shortest.To(toN)
	if len(nodes) == 0 {
		return nil, 0, fmt.Errorf("storemap: no path from %q to %q", fromID, toID)
	}
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = idx.nodeOf[n.ID()]
	}
	return out, weight, nil
}

// VirtualEdge describes one leg connecting a free-point virtual start
// node to a real graph node, for routing's §4.7 augmentation.
type VirtualEdge struct {
	ToNodeID string
	Distance float64
}

// AugmentedGraph returns a fresh graph with one extra "virtual" node
// wired to the given real nodes by bidirectional weighted edges, plus
// the virtual node's gonum id and a lookup from gonum id back to node
// id (empty string for the virtual node itself). Routing runs Dijkstra
// from the returned virtual id over this graph; the id index returned
// by BuildGraph is unexported, so this is the package's router-facing
// construction path.
func (m *Map) AugmentedGraph(edges []VirtualEdge) (g *simple.WeightedDirectedGraph, virtualID int64, nodeName func(int64) string, err error) {
	g, idx := m.BuildGraph()
	virtualID = int64(len(m.nodeOrder))
	g.AddNode(simple.Node(virtualID))

	for _, ve := range edges {
		to, ok := idx.idOf[ve.ToNodeID]
		if !ok {
			return nil, 0, nil, ErrUnknownNode
		}
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(virtualID), simple.Node(to), ve.Distance))
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(to), simple.Node(virtualID), ve.Distance))
	}

	nodeName = func(id int64) string {
		if id == virtualID {
			return ""
		}
		return idx.nodeOf[id]
	}
	return g, virtualID, nodeName, nil
}

// NodeGonumID returns the stable gonum graph id assigned to a node id,
// in load order, as used by BuildGraph/AugmentedGraph.
func (m *Map) NodeGonumID(id string) (int64, bool) {
	for i, nid := range m.nodeOrder {
		if nid == id {
			return int64(i), true
		}
	}
	return 0, false
}

// assetDoc mirrors the §6.3 graph asset JSON shape.
type assetDoc struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	GridSize float64 `json:"gridSize"`
	Nodes    []struct {
		ID        string  `json:"id"`
		Label     string  `json:"label"`
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		Floor     int     `json:"floor"`
		Type      string  `json:"type"`
		SectionID string  `json:"sectionId"`
	} `json:"nodes"`
	Edges []struct {
		From          string   `json:"from"`
		To            string   `json:"to"`
		Distance      *float64 `json:"distance"`
		Bidirectional *bool    `json:"bidirectional"`
	} `json:"edges"`
	Anchors []struct {
		BSSID      string   `json:"bssid"`
		Label      string   `json:"label"`
		X          float64  `json:"x"`
		Y          float64  `json:"y"`
		Floor      int      `json:"floor"`
		Source     string   `json:"source"`
		Confidence *float64 `json:"confidence"`
	} `json:"anchors"`
}

// LoadJSON parses a §6.3 graph asset document and builds a Map.
// Edges to unknown node ids are reported through el (if non-nil) and
// then dropped, matching the graph-inconsistency contract: this is
// never fatal. A malformed JSON document, or one with duplicate node
// ids, is the only fatal condition.
func LoadJSON(data []byte, el *util.ErrorLogger) (*Map, error) {
	var doc assetDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("storemap: parsing asset: %w", err)
	}

	nodes := make([]Node, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodes = append(nodes, Node{
			ID: n.ID, Label: n.Label, X: n.X, Y: n.Y, Floor: n.Floor,
			Type: NodeType(n.Type), SectionID: n.SectionID,
		})
	}

	knownNodes := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		knownNodes[n.ID] = true
	}

	edges := make([]Edge, 0, len(doc.Edges))
	if el != nil {
		el.Push("edges")
	}
	for i, e := range doc.Edges {
		if !knownNodes[e.From] || !knownNodes[e.To] {
			if el != nil {
				el.Push(fmt.Sprintf("[%d]", i))
				el.ErrorString("edge %q -> %q references an unknown node id, dropped", e.From, e.To)
				el.Pop()
			}
			continue
		}
		edges = append(edges, Edge{From: e.From, To: e.To, Distance: e.Distance, Bidirectional: e.Bidirectional})
	}
	if el != nil {
		el.Pop()
	}

	anchors := make([]Anchor, 0, len(doc.Anchors))
	for _, a := range doc.Anchors {
		anchors = append(anchors, Anchor{
			BSSID: a.BSSID, Label: a.Label, X: a.X, Y: a.Y, Floor: a.Floor,
			Source: AnchorSource(a.Source), Confidence: a.Confidence,
		})
	}

	return Build(doc.ID, doc.Label, doc.GridSize, nodes, edges, anchors)
}

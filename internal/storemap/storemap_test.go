// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

package storemap

import (
	"testing"

	"github.com/konzepapp/navcore/internal/geo"
	"github.com/konzepapp/navcore/internal/util"
)

func simpleMap(t *testing.T) *Map {
	t.Helper()
	nodes := []Node{
		{ID: "a", X: 0, Y: 0, Type: NodeEntry},
		{ID: "b", X: 10, Y: 0, Type: NodeAisle},
		{ID: "c", X: 20, Y: 0, Type: NodeExit},
	}
	edges := []Edge{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
		{From: "a", To: "ghost"}, // unknown node: silently dropped
	}
	m, err := Build("m1", "test", 50, nodes, edges, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestBuildDropsEdgesToUnknownNodes(t *testing.T) {
	m := simpleMap(t)
	if len(m.Edges()) != 2 {
		t.Errorf("got %d edges, want 2 (ghost edge dropped)", len(m.Edges()))
	}
}

func TestBuildRejectsDuplicateNodeIDs(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "a"}}
	if _, err := Build("m", "", 50, nodes, nil, nil); err == nil {
		t.Error("expected error for duplicate node id")
	}
}

func TestEdgeDistanceDefaultsToEuclidean(t *testing.T) {
	m := simpleMap(t)
	for _, e := range m.Edges() {
		if e.From.ID == "a" && e.To.ID == "b" && e.Length != 10 {
			t.Errorf("got length %v, want 10", e.Length)
		}
	}
}

func TestShortestPathNodes(t *testing.T) {
	m := simpleMap(t)
	path, length, err := m.ShortestPathNodes("a", "c")
	if err != nil {
		t.Fatalf("ShortestPathNodes: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(path) != len(want) {
		t.Fatalf("got path %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, path[i], want[i])
		}
	}
	if length != 20 {
		t.Errorf("got length %v, want 20", length)
	}
}

func TestShortestPathUnknownNode(t *testing.T) {
	m := simpleMap(t)
	if _, _, err := m.ShortestPathNodes("a", "nope"); err != ErrUnknownNode {
		t.Errorf("got err %v, want ErrUnknownNode", err)
	}
}

func TestNearestNodeWithTypeFilter(t *testing.T) {
	m := simpleMap(t)
	id, ok := m.NearestNode(geo.Point2{X: 11, Y: 0}, NodeExit)
	if !ok || id != "c" {
		t.Errorf("got (%q,%v), want (c,true)", id, ok)
	}
}

func TestLoadJSONRoundTrip(t *testing.T) {
	doc := `{
		"id": "m1", "label": "floor 1", "gridSize": 50,
		"nodes": [
			{"id": "a", "x": 0, "y": 0, "type": "entry"},
			{"id": "b", "x": 10, "y": 0, "type": "aisle"}
		],
		"edges": [
			{"from": "a", "to": "b"},
			{"from": "a", "to": "ghost"}
		],
		"anchors": [
			{"bssid": " AA:BB:CC ", "x": 1, "y": 1}
		]
	}`

	var el util.ErrorLogger
	m, err := LoadJSON([]byte(doc), &el)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if len(m.Edges()) != 1 {
		t.Errorf("got %d edges, want 1 (ghost edge dropped)", len(m.Edges()))
	}
	if !el.HaveErrors() {
		t.Error("expected HaveErrors() to report the dropped ghost edge")
	}
	if len(m.Anchors()) != 1 || m.Anchors()[0].BSSID != "aa:bb:cc" {
		t.Errorf("got anchors %+v, want one normalized to aa:bb:cc", m.Anchors())
	}
}

func TestLoadJSONMalformed(t *testing.T) {
	if _, err := LoadJSON([]byte(`{not json`), nil); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestLoadJSONDuplicateNodeIDsIsFatal(t *testing.T) {
	doc := `{"id":"m","nodes":[{"id":"a"},{"id":"a"}]}`
	if _, err := LoadJSON([]byte(doc), nil); err == nil {
		t.Error("expected an error for duplicate node ids")
	}
}

func TestLoadJSONToleratesNilErrorLogger(t *testing.T) {
	doc := `{"id":"m","nodes":[{"id":"a"}],"edges":[{"from":"a","to":"ghost"}]}`
	if _, err := LoadJSON([]byte(doc), nil); err != nil {
		t.Fatalf("LoadJSON with nil logger: %v", err)
	}
}

func TestNormalizeBSSID(t *testing.T) {
	cases := []string{" AA:BB:CC ", "aa:bb:cc", "AA:BB:CC"}
	want := "aa:bb:cc"
	for _, c := range cases {
		if got := NormalizeBSSID(c); got != want {
			t.Errorf("NormalizeBSSID(%q) = %q, want %q", c, got, want)
		}
	}
	// idempotent
	n := NormalizeBSSID(" Foo:Bar ")
	if NormalizeBSSID(n) != n {
		t.Errorf("NormalizeBSSID not idempotent: %q", n)
	}
}

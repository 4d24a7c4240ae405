// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

package wifi

import (
	"math"
	"testing"

	"github.com/konzepapp/navcore/internal/storemap"
)

func TestComputeWeightedCentroid_S3(t *testing.T) {
	anchors := []storemap.Anchor{
		{BSSID: "aa:aa:aa", X: 0, Y: 0},
		{BSSID: "bb:bb:bb", X: 10, Y: 0},
	}
	readings := []Reading{
		{BSSID: "AA:AA:AA", Level: -60},
		{BSSID: "bb:bb:bb", Level: -80},
	}
	fix, ok := Compute(readings, anchors)
	if !ok {
		t.Fatal("expected a fix")
	}
	if math.Abs(fix.Point.X-1.19) > 0.02 {
		t.Errorf("got x=%v, want ~1.19", fix.Point.X)
	}
	if fix.Matched != 2 {
		t.Errorf("got matched=%d, want 2", fix.Matched)
	}
	if fix.BestBSSID != "aa:aa:aa" {
		t.Errorf("got best=%q, want aa:aa:aa (higher raw rssi)", fix.BestBSSID)
	}
}

func TestComputeNoMatchReturnsFalse(t *testing.T) {
	anchors := []storemap.Anchor{{BSSID: "aa:aa:aa", X: 0, Y: 0}}
	readings := []Reading{{BSSID: "zz:zz:zz", Level: -50}}
	if _, ok := Compute(readings, anchors); ok {
		t.Error("expected no fix for unmatched bssid")
	}
}

func TestComputeEmptyReadingsReturnsFalse(t *testing.T) {
	anchors := []storemap.Anchor{{BSSID: "aa:aa:aa", X: 0, Y: 0}}
	if _, ok := Compute(nil, anchors); ok {
		t.Error("expected no fix for empty scan")
	}
}

func TestComputeConfidenceBounds(t *testing.T) {
	anchors := []storemap.Anchor{{BSSID: "a", X: 0, Y: 0}}
	readings := []Reading{{BSSID: "a", Level: -35}}
	fix, ok := Compute(readings, anchors)
	if !ok {
		t.Fatal("expected a fix")
	}
	if fix.Confidence < 0.15 || fix.Confidence > 0.98 {
		t.Errorf("confidence %v out of [0.15,0.98]", fix.Confidence)
	}
}

// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package wifi turns a scan of (bssid, rssi) readings into a weighted
// position fix against a known anchor set, per §4.4. It never errors;
// an empty or unmatched scan simply yields no fix.
package wifi

import (
	"math"

	"github.com/konzepapp/navcore/internal/geo"
	"github.com/konzepapp/navcore/internal/storemap"
)

// Reading is one scanned access point observation.
type Reading struct {
	BSSID string
	Level float64 // dBm, negative
}

// Fix is a weighted-centroid position estimate derived from one scan.
type Fix struct {
	Point      geo.Point2
	Matched    int
	BestBSSID  string
	BestRSSI   float64
	Confidence float64
}

const (
	weightMinRSSI = -95.0
	weightMaxRSSI = -35.0
	weightMin     = 1.0
	weightMax     = 400.0

	confSpan = 55.0
)

func weight(rssi float64) float64 {
	clamped := geo.Clamp(rssi, weightMinRSSI, weightMaxRSSI)
	return geo.Clamp(math.Exp((clamped+100)/10), weightMin, weightMax)
}

// Compute maps readings to anchors and returns a weighted-centroid fix,
// or false if no reading matched a known anchor.
func Compute(readings []Reading, anchors []storemap.Anchor) (Fix, bool) {
	byBSSID := make(map[string]storemap.Anchor, len(anchors))
	for _, a := range anchors {
		byBSSID[a.BSSID] = a
	}

	var sumW, sumWX, sumWY float64
	matched := 0
	haveBest := false
	var best Reading

	for _, r := range readings {
		bssid := storemap.NormalizeBSSID(r.BSSID)
		a, ok := byBSSID[bssid]
		if !ok {
			continue
		}
		matched++
		if !haveBest || r.Level > best.Level {
			best, haveBest = r, true
		}

		w := weight(r.Level)
		sumW += w
		sumWX += w * a.X
		sumWY += w * a.Y
	}

	if sumW <= 0 {
		return Fix{}, false
	}

	confidence := geo.Clamp((best.Level+100)/confSpan, 0.15, 0.95) +
		geo.Clamp(0.08*float64(matched-1), 0, 0.2)
	confidence = geo.Clamp(confidence, 0.15, 0.98)

	return Fix{
		Point:      geo.Point2{X: sumWX / sumW, Y: sumWY / sumW},
		Matched:    matched,
		BestBSSID:  storemap.NormalizeBSSID(best.BSSID),
		BestRSSI:   best.Level,
		Confidence: confidence,
	}, true
}

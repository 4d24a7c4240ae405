// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package config holds the plain session configuration struct a host
// loads from a JSON file and/or command-line flags, per §4.6/§4.9's
// positioning/navigation configuration shapes. There is no reactive or
// closure-based config model here, matching the rest of the corpus.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/konzepapp/navcore/internal/util"
)

// SnapConfig configures the snap-to-graph pass (§4.5).
type SnapConfig struct {
	MaxSnapMeters       float64 `json:"maxSnapMeters"`
	HardClamp           bool    `json:"hardClamp"`
	SwitchPenaltyMeters float64 `json:"switchPenaltyMeters"`
}

// PositioningConfig configures a positioning session (§4.6).
type PositioningConfig struct {
	StartX             float64    `json:"startX"`
	StartY             float64    `json:"startY"`
	StartFloor         int        `json:"startFloor"`
	StrideScale        float64    `json:"strideScale"`
	WifiEnabled        bool       `json:"wifiEnabled"`
	WifiScanIntervalMs int        `json:"wifiScanIntervalMs"`
	Snap               SnapConfig `json:"snap"`
}

// RerouteConfig configures off-route detection and reroute scheduling
// (§4.9).
type RerouteConfig struct {
	OffRouteMeters float64 `json:"offRouteMeters"`
	PersistMs      int     `json:"persistMs"`
}

// NavigationConfig configures a navigation session (§4.9).
type NavigationConfig struct {
	Enabled       bool          `json:"enabled"`
	DestinationID string        `json:"destinationId"`
	Reroute       RerouteConfig `json:"reroute"`
}

// Config is the top-level session configuration: everything not worth
// its own CLI flag lives here, loaded from a JSON file.
type Config struct {
	GraphAssetPath string             `json:"graphAssetPath"`
	LogLevel       string             `json:"logLevel"`
	LogDir         string             `json:"logDir"`
	Positioning    PositioningConfig  `json:"positioning"`
	Navigation     NavigationConfig   `json:"navigation"`
}

// defaults mirror the §4.5/§4.6 default constants for any zero-valued
// field a loaded JSON document leaves unset.
func (c *Config) applyDefaults() {
	if c.Positioning.StrideScale <= 0 {
		c.Positioning.StrideScale = 1.0
	}
	if c.Positioning.WifiScanIntervalMs <= 0 {
		c.Positioning.WifiScanIntervalMs = 3500
	}
	if c.Positioning.Snap.MaxSnapMeters <= 0 {
		c.Positioning.Snap.MaxSnapMeters = 1.75
	}
	if c.Positioning.Snap.SwitchPenaltyMeters <= 0 {
		c.Positioning.Snap.SwitchPenaltyMeters = 0.35
	}
	if c.Navigation.Reroute.OffRouteMeters <= 0 {
		c.Navigation.Reroute.OffRouteMeters = 2
	}
	if c.Navigation.Reroute.PersistMs <= 0 {
		c.Navigation.Reroute.PersistMs = 3000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Load reads and validates a JSON config document from path, applying
// defaults for any field the document leaves unset. A malformed
// document, or one without graphAssetPath, yields an error qualified
// with the file path via util.ErrorLogger; loading stops at the first
// such problem.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var el util.ErrorLogger
	el.Push(path)
	defer el.Pop()

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		el.Error(err)
		return nil, fmt.Errorf("config: %s", el.String())
	}

	if c.GraphAssetPath == "" {
		el.ErrorString("graphAssetPath is required")
		return nil, fmt.Errorf("config: %s", el.String())
	}

	c.applyDefaults()
	return &c, nil
}

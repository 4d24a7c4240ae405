// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Command navcore replays a recorded sensor/Wi-Fi trace through a
// positioning and navigation session and prints the resulting pose,
// instruction, and reroute events. It exists to demonstrate and
// exercise the engine from the command line; a real host wires the
// same two sessions to live sensor callbacks instead of a trace file.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/konzepapp/navcore/internal/eventbus"
	"github.com/konzepapp/navcore/internal/geo"
	"github.com/konzepapp/navcore/internal/navigation"
	"github.com/konzepapp/navcore/internal/pdr"
	"github.com/konzepapp/navcore/internal/positioning"
	"github.com/konzepapp/navcore/internal/sensors"
	"github.com/konzepapp/navcore/internal/snap"
	"github.com/konzepapp/navcore/internal/storemap"
	"github.com/konzepapp/navcore/internal/util"
	"github.com/konzepapp/navcore/internal/vlog"
	"github.com/konzepapp/navcore/internal/wifi"
	"github.com/konzepapp/navcore/pkg/config"
)

var (
	configPath = flag.String("config", "", "path to a session config JSON file (see pkg/config)")
	tracePath  = flag.String("trace", "", "path to an NDJSON sensor/Wi-Fi trace file")
	logLevel   = flag.String("loglevel", "", "override the config's logging level: debug, info, warn, error")
	logDir     = flag.String("logdir", "", "override the config's log file directory")
	quiet      = flag.Bool("quiet", false, "suppress pose/instruction printing; only print reroutes and errors")
)

// traceEvent is one line of the NDJSON replay format. Only the fields
// relevant to evt's type are populated.
type traceEvent struct {
	Type string `json:"type"`
	AtMs int64  `json:"atMs"`

	// magnetometer
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	// deviceMotion
	RotationAlpha                *float64 `json:"rotationAlpha"`
	RotationRateAlpha            *float64 `json:"rotationRateAlpha"`
	Acceleration                 *vec3    `json:"acceleration"`
	AccelerationIncludingGravity *vec3    `json:"accelerationIncludingGravity"`

	// pedometer
	Cumulative int64 `json:"cumulative"`

	// wifi
	Readings []struct {
		BSSID string  `json:"bssid"`
		RSSI  float64 `json:"rssi"`
	} `json:"readings"`

	// setDestination
	NodeID string `json:"nodeId"`

	// resetTo
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
}

type vec3 struct{ X, Y, Z float64 }

func atTime(ms int64) time.Time { return time.Unix(0, 0).Add(time.Duration(ms) * time.Millisecond) }

func main() {
	flag.Parse()
	if *configPath == "" || *tracePath == "" {
		fmt.Fprintln(os.Stderr, "usage: navcore -config session.json -trace trace.ndjson")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logDir != "" {
		cfg.LogDir = *logDir
	}
	lg := vlog.New(cfg.LogLevel, cfg.LogDir)

	graphData, err := os.ReadFile(cfg.GraphAssetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading graph asset: %v\n", err)
		os.Exit(1)
	}
	var el util.ErrorLogger
	m, err := storemap.LoadJSON(graphData, &el)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parsing graph asset: %v\n", err)
		os.Exit(1)
	}
	el.PrintErrors(lg)

	start := geo.Point2{X: cfg.Positioning.StartX, Y: cfg.Positioning.StartY}
	pos := positioning.New(m, positioning.Config{
		Start:              start,
		StrideScale:        cfg.Positioning.StrideScale,
		WifiEnabled:        cfg.Positioning.WifiEnabled,
		WifiScanIntervalMs: cfg.Positioning.WifiScanIntervalMs,
		Snap: snap.Options{
			MaxSnapMeters:       cfg.Positioning.Snap.MaxSnapMeters,
			HardClamp:           cfg.Positioning.Snap.HardClamp,
			SwitchPenaltyMeters: cfg.Positioning.Snap.SwitchPenaltyMeters,
		},
	}, lg)

	nav := navigation.New(m, lg)
	nav.SetReroute(navigation.RerouteConfig{
		OffRouteMeters: cfg.Navigation.Reroute.OffRouteMeters,
		PersistMs:      cfg.Navigation.Reroute.PersistMs,
	})

	pos.OnPose = func(p positioning.Pose2D) {
		nav.OnPosition(geo.Point2{X: p.X, Y: p.Y}, p.Timestamp)
		if *quiet {
			return
		}
		st := nav.State()
		fmt.Printf("[%s] pose x=%.2f y=%.2f heading=%.1f source=%s snapped=%v  %s\n",
			p.Timestamp.Format(time.RFC3339Nano), p.X, p.Y, p.HeadingDeg, p.Source, p.Snapped, st.NextInstruction)
	}
	nav.OnRoute = func(r *navigation.Route) {
		if r == nil {
			fmt.Println("route: none")
			return
		}
		fmt.Printf("route: %v (%.1fm)\n", r.NodeIDs, r.LengthMeters)
	}

	if cfg.Navigation.DestinationID != "" {
		nav.SetDestination(cfg.Navigation.DestinationID, atTime(0))
	}
	nav.SetEnabled(cfg.Navigation.Enabled, atTime(0))

	if err := replay(*tracePath, pos, nav); err != nil {
		fmt.Fprintf(os.Stderr, "replaying trace: %v\n", err)
		os.Exit(1)
	}
}

// replayWifiScanner adapts one trace-file "wifi" line to the
// sensors.WifiScanner contract: Scan returns the readings recorded for
// that line, standing in for a real platform's asynchronous scan call.
type replayWifiScanner struct {
	readings []wifi.Reading
}

func (s replayWifiScanner) Scan(ctx context.Context) (sensors.WifiScanResult, error) {
	return sensors.WifiScanResult{Readings: s.readings, Status: sensors.WifiScanOK}, nil
}

// replayStepSource adapts one trace-file "pedometer" line to the
// sensors.StepSource contract.
type replayStepSource struct {
	cumulative int64
	at         time.Time
}

func (s replayStepSource) Steps(ctx context.Context) (int64, time.Time, error) {
	return s.cumulative, s.at, nil
}

// replay drives pos/nav from the NDJSON trace at path via an
// eventbus.Bus: this goroutine parses trace lines and pushes events,
// launching a WifiScanner/StepSource goroutine per async-sourced line
// that pushes its own result (per §5's suspension-point model);
// a single consumer goroutine drains the bus in order and is the only
// caller of pos/nav methods, preserving the single-threaded session
// invariant despite the producers running concurrently.
func replay(path string, pos *positioning.Session, nav *navigation.Session) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bus := eventbus.New(64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			ev, ok := bus.Next()
			if !ok {
				return
			}
			dispatch(pos, nav, ev)
		}
	}()

	var wg sync.WaitGroup
	ctx := context.Background()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var scanErr error
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev traceEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			scanErr = fmt.Errorf("parsing trace line: %w", err)
			break
		}
		pushTraceEvent(ctx, bus, &wg, ev)
	}
	if scanErr == nil {
		scanErr = sc.Err()
	}

	wg.Wait()
	bus.Stop()
	<-done
	return scanErr
}

// pushTraceEvent converts one parsed trace line into a bus Event. The
// wifi and pedometer cases launch a WifiScanner/StepSource call in its
// own goroutine and push the result back onto the bus asynchronously,
// exercising the suspend/resume path a live host goes through; every
// other case is already synchronous data and is pushed directly.
func pushTraceEvent(ctx context.Context, bus *eventbus.Bus, wg *sync.WaitGroup, ev traceEvent) {
	at := atTime(ev.AtMs)
	switch ev.Type {
	case "setDestination":
		bus.Push(eventbus.Event{Command: &eventbus.CommandEvent{Kind: eventbus.CommandSetDestination, At: at, Destination: ev.NodeID}})
	case "magnetometer":
		bus.Push(eventbus.Event{Magnetometer: &pdr.MagnetometerSample{Field: pdr.Vec3{X: ev.X, Y: ev.Y, Z: ev.Z}, At: at}})
	case "deviceMotion":
		s := &pdr.DeviceMotionSample{At: at, RotationAlpha: ev.RotationAlpha, RotationRateAlpha: ev.RotationRateAlpha}
		if ev.Acceleration != nil {
			s.Acceleration = &pdr.Vec3{X: ev.Acceleration.X, Y: ev.Acceleration.Y, Z: ev.Acceleration.Z}
		}
		if ev.AccelerationIncludingGravity != nil {
			s.AccelerationIncludingGravity = &pdr.Vec3{X: ev.AccelerationIncludingGravity.X, Y: ev.AccelerationIncludingGravity.Y, Z: ev.AccelerationIncludingGravity.Z}
		}
		bus.Push(eventbus.Event{DeviceMotion: s})
	case "pedometer":
		src := replayStepSource{cumulative: ev.Cumulative, at: at}
		wg.Add(1)
		go func() {
			defer wg.Done()
			cumulative, stepAt, err := src.Steps(ctx)
			if err != nil {
				return
			}
			bus.Push(eventbus.Event{Pedometer: &eventbus.PedometerEvent{Cumulative: cumulative, At: stepAt}})
		}()
	case "wifi":
		readings := make([]wifi.Reading, 0, len(ev.Readings))
		for _, r := range ev.Readings {
			readings = append(readings, wifi.Reading{BSSID: r.BSSID, Level: r.RSSI})
		}
		scanner := replayWifiScanner{readings: readings}
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := scanner.Scan(ctx)
			if err != nil {
				return
			}
			bus.Push(eventbus.Event{Wifi: &eventbus.WifiEvent{Result: result, At: at}})
		}()
	case "resetTo":
		p := struct{ X, Y float64 }{X: ev.StartX, Y: ev.StartY}
		bus.Push(eventbus.Event{Command: &eventbus.CommandEvent{Kind: eventbus.CommandResetTo, Point: &p}})
	case "alignHeading":
		bus.Push(eventbus.Event{Command: &eventbus.CommandEvent{Kind: eventbus.CommandAlignHeadingToMag}})
	}
}

// dispatch is the bus consumer: the only function that calls pos/nav
// methods during a replay.
func dispatch(pos *positioning.Session, nav *navigation.Session, ev eventbus.Event) {
	switch {
	case ev.Magnetometer != nil:
		pos.OnMagnetometer(*ev.Magnetometer)
	case ev.DeviceMotion != nil:
		pos.OnDeviceMotion(*ev.DeviceMotion)
	case ev.Pedometer != nil:
		pos.OnPedometer(ev.Pedometer.Cumulative, ev.Pedometer.At)
	case ev.Wifi != nil:
		if ev.Wifi.Result.Status == sensors.WifiScanOK {
			pos.OnWifiScan(ev.Wifi.Result.Readings, ev.Wifi.At)
		}
	case ev.Command != nil:
		switch ev.Command.Kind {
		case eventbus.CommandResetTo:
			pos.ResetTo(geo.Point2{X: ev.Command.Point.X, Y: ev.Command.Point.Y})
		case eventbus.CommandAlignHeadingToMag:
			pos.AlignHeadingToMag()
		case eventbus.CommandSetDestination:
			nav.SetDestination(ev.Command.Destination, ev.Command.At)
		}
	}
}

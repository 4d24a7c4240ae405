// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package kalman implements the constant-position 2D Kalman filter used
// to fuse PDR displacement with periodic Wi-Fi position fixes.
//
// Displacement is applied by the caller in Predict; Update absorbs an
// isotropic position measurement. State is (x,y); covariance is kept as
// the symmetric (p00,p01,p11) triple, matching the data model's wire
// representation, but the 2x2 linear algebra for Update is done with
// gonum/mat so the inversion and gain computation aren't hand-rolled.
package kalman

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/konzepapp/navcore/internal/geo"
)

const (
	minProcessVar = 1e-6
	minMeasVar    = 1e-6
	minInnovDet   = 1e-12
)

// State is a 2D constant-position Kalman filter state.
type State struct {
	X, Y          float64
	P00, P01, P11 float64
}

// New initializes state at start with isotropic covariance sigma^2*I.
// posSigma defaults to 1.5m when <= 0.
func New(start geo.Point2, posSigma float64) *State {
	if posSigma <= 0 {
		posSigma = 1.5
	}
	v := posSigma * posSigma
	return &State{X: start.X, Y: start.Y, P00: v, P01: 0, P11: v}
}

// Center returns the filter's current position estimate.
func (s *State) Center() geo.Point2 { return geo.Point2{X: s.X, Y: s.Y} }

// Reset reinitializes the filter at p with isotropic covariance
// posSigma^2*I, discarding all history.
func (s *State) Reset(p geo.Point2, posSigma float64) {
	if posSigma <= 0 {
		posSigma = 1.5
	}
	v := posSigma * posSigma
	s.X, s.Y, s.P00, s.P01, s.P11 = p.X, p.Y, v, 0, v
}

// Predict propagates the state by displacement d with process noise
// sigma procSigma. The off-diagonal covariance term is not inflated.
func (s *State) Predict(d geo.Point2, procSigma float64) {
	if !finite(d.X) || !finite(d.Y) || !finite(procSigma) {
		return
	}
	q := math.Max(minProcessVar, procSigma*procSigma)
	s.X += d.X
	s.Y += d.Y
	s.P00 += q
	s.P11 += q
}

// Update absorbs an isotropic position measurement z with std-dev
// measSigma. Skipped if the innovation covariance is near-singular or
// any input is non-finite.
func (s *State) Update(z geo.Point2, measSigma float64) {
	if !finite(z.X) || !finite(z.Y) || !finite(measSigma) {
		return
	}
	r := math.Max(minMeasVar, measSigma*measSigma)

	p := mat.NewSymDense(2, []float64{s.P00, s.P01, s.P01, s.P11})

	var inno mat.SymDense
	inno.AddSym(p, mat.NewSymDense(2, []float64{r, 0, 0, r}))

	det := inno.At(0, 0)*inno.At(1, 1) - inno.At(0, 1)*inno.At(1, 0)
	if det <= minInnovDet {
		return
	}

	var sInv mat.Dense
	if err := sInv.Inverse(&inno); err != nil {
		return
	}

	var k mat.Dense
	k.Mul(p, &sInv)

	innov := mat.NewVecDense(2, []float64{z.X - s.X, z.Y - s.Y})
	var dx mat.VecDense
	dx.MulVec(&k, innov)
	s.X += dx.AtVec(0)
	s.Y += dx.AtVec(1)

	// P' = P - K*P  (K*S*K^T form would also be valid; both preserve
	// symmetry up to numerical slack).
	var kp mat.Dense
	kp.Mul(&k, p)
	s.P00 -= kp.At(0, 0)
	s.P11 -= kp.At(1, 1)
	// Average the two off-diagonal entries of K*P to guard against
	// asymmetry from float drift.
	s.P01 -= (kp.At(0, 1) + kp.At(1, 0)) / 2
	if s.P00 < 0 {
		s.P00 = 0
	}
	if s.P11 < 0 {
		s.P11 = 0
	}
}

// Trace returns p00+p11.
func (s *State) Trace() float64 { return s.P00 + s.P11 }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

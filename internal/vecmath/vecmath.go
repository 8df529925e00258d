// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package vecmath holds the small set of 3-vector helpers shared by the
// orientation integrator and the heading calculator.
package vecmath

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReferenceAxis is the fixed body axis whose horizontal projection
// defines the zero heading.
var ReferenceAxis = r3.Vec{X: 1, Y: 0, Z: 0}

// ProjectToHorizon removes the component of v parallel to gravity,
// i.e. v - (v·ĝ)ĝ. The result lies in the horizontal plane.
// ok is false when gravity has zero magnitude.
func ProjectToHorizon(v, gravity r3.Vec) (r3.Vec, bool) {
	normG := r3.Norm(gravity)
	if normG == 0 {
		return r3.Vec{}, false
	}
	factor := r3.Dot(gravity, v) / normG
	along := r3.Scale(factor/normG, gravity)
	return r3.Sub(v, along), true
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// AngleBetween returns the unsigned angle between a and b in radians.
// The cosine is clamped to [-1, 1] so rounding never yields NaN.
// ok is false if either vector has zero length.
func AngleBetween(a, b r3.Vec) (float64, bool) {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na == 0 || nb == 0 {
		return 0, false
	}
	cos := Clamp(r3.Dot(a, b)/(na*nb), -1, 1)
	return math.Acos(cos), true
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package orientation integrates gyroscope samples into a running rotation
// and derives a gravity-referenced heading from it.
package orientation

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/gyro_heading/internal/imu"
	"github.com/relabs-tech/gyro_heading/internal/vecmath"
)

const (
	nanosToSeconds = 1e-9

	// Epsilon is the angular speed (rad/s) below which the rotation axis
	// is left unnormalized.
	Epsilon = 1e-6

	// minHorizon is the shortest projected reference axis accepted as a
	// heading reference.
	minHorizon = 1e-9
)

// DriftOffset is the per-axis gyro bias (rad/s) subtracted from every
// sample before integration.
type DriftOffset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns the offset as a vector.
func (d DriftOffset) Vec() r3.Vec {
	return r3.Vec{X: d.X, Y: d.Y, Z: d.Z}
}

// Integrator accumulates gyro samples into a rotation matrix and keeps the
// gravity reference used by Angle. It is not safe for concurrent use; see
// tracker.Tracker for the locked session wrapper.
type Integrator struct {
	drift DriftOffset

	rotation      *mat.Dense
	lastTimestamp int64
	haveTimestamp bool

	gravity     r3.Vec
	haveGravity bool

	// horizon is the reference axis projected on the horizontal plane
	// at the last successful reset.
	horizon r3.Vec
	ready   bool
}

// NewIntegrator returns an integrator with identity rotation, no gravity
// and therefore not ready.
func NewIntegrator() *Integrator {
	return &Integrator{rotation: identity()}
}

// SetDrift replaces the drift offset. It applies to subsequent samples only.
func (in *Integrator) SetDrift(d DriftOffset) {
	in.drift = d
}

// Drift returns the current drift offset.
func (in *Integrator) Drift() DriftOffset {
	return in.drift
}

// OnAngular integrates one gyro sample. The first sample after
// construction or Reset only records its timestamp.
func (in *Integrator) OnAngular(s imu.AngularSample) {
	if !in.haveTimestamp {
		in.lastTimestamp = s.TimestampNanos
		in.haveTimestamp = true
		return
	}

	omega := r3.Sub(s.Vec(), in.drift.Vec())
	dt := float64(s.TimestampNanos-in.lastTimestamp) * nanosToSeconds
	in.lastTimestamp = s.TimestampNanos

	delta := quatToMatrix(deltaQuaternion(omega, dt))

	// Newest increment on the left.
	var next mat.Dense
	next.Mul(delta, in.rotation)
	in.rotation = &next
}

// OnGravity stores the latest gravity vector. A session that has never
// been successfully reset resets itself here (warm start).
func (in *Integrator) OnGravity(s imu.GravitySample) {
	in.gravity = s.Vec()
	in.haveGravity = true
	if !in.ready {
		in.Reset()
	}
}

// Reset makes the current attitude the zero heading. Without a usable
// gravity vector the integrator stays not ready until the next gravity
// sample arrives.
func (in *Integrator) Reset() {
	in.ready = false
	in.rotation = identity()
	in.haveTimestamp = false

	if !in.haveGravity {
		return
	}
	h, ok := vecmath.ProjectToHorizon(vecmath.ReferenceAxis, in.gravity)
	if !ok || r3.Norm(h) < minHorizon {
		// Gravity along the reference axis leaves no horizon to measure
		// against; stay not ready so the next gravity sample retries.
		return
	}
	in.horizon = h
	in.ready = true
}

// Ready reports whether a reference horizon is in place.
func (in *Integrator) Ready() bool {
	return in.ready
}

// Horizon returns the reference horizon captured at the last reset.
func (in *Integrator) Horizon() r3.Vec {
	return in.horizon
}

// Gravity returns the latest gravity vector, if any.
func (in *Integrator) Gravity() (r3.Vec, bool) {
	return in.gravity, in.haveGravity
}

// Rotation returns a copy of the accumulated rotation matrix.
func (in *Integrator) Rotation() *mat.Dense {
	return mat.DenseCopyOf(in.rotation)
}

// deltaQuaternion builds the unit quaternion rotating by |omega|*dt about
// omega. Below Epsilon the raw vector is used as the axis, so a zero rate
// yields the identity quaternion.
func deltaQuaternion(omega r3.Vec, dt float64) quat.Number {
	speed := r3.Norm(omega)
	axis := omega
	if speed > Epsilon {
		axis = r3.Scale(1/speed, omega)
	}

	halfTheta := speed * dt / 2.0
	sinHalf := math.Sin(halfTheta)
	return quat.Number{
		Real: math.Cos(halfTheta),
		Imag: sinHalf * axis.X,
		Jmag: sinHalf * axis.Y,
		Kmag: sinHalf * axis.Z,
	}
}

// quatToMatrix expands a rotation quaternion into a row-major 3×3 matrix.
// The quaternion is used as given, without renormalization.
func quatToMatrix(q quat.Number) *mat.Dense {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	sqX := 2 * x * x
	sqY := 2 * y * y
	sqZ := 2 * z * z
	xy := 2 * x * y
	zw := 2 * z * w
	xz := 2 * x * z
	yw := 2 * y * w
	yz := 2 * y * z
	xw := 2 * x * w

	return mat.NewDense(3, 3, []float64{
		1 - sqY - sqZ, xy - zw, xz + yw,
		xy + zw, 1 - sqX - sqZ, yz - xw,
		xz - yw, yz + xw, 1 - sqX - sqY,
	})
}

func identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}

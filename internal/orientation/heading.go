package orientation

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/gyro_heading/internal/vecmath"
)

// Angle returns the signed heading change in degrees since the last reset,
// measured in the plane perpendicular to the current gravity vector.
// Turning the device positively (right-hand rule) about the gravity vector
// yields a negative angle.
//
// ok is false while the integrator is not ready, and for degenerate
// geometry (zero gravity, or gravity parallel to the reference axis).
func (in *Integrator) Angle() (deg float64, ok bool) {
	if !in.ready || !in.haveGravity {
		return 0, false
	}

	oriented := in.orientedHorizon()
	current, ok := vecmath.ProjectToHorizon(vecmath.ReferenceAxis, in.gravity)
	if !ok {
		return 0, false
	}

	delta, ok := vecmath.AngleBetween(oriented, current)
	if !ok {
		return 0, false
	}
	angle := vecmath.Degrees(delta)

	// The vertical part of oriented×current tells the turn direction.
	cross := r3.Cross(oriented, current)
	flat, _ := vecmath.ProjectToHorizon(cross, in.gravity)
	vertical := r3.Sub(cross, flat)
	if side, ok := vecmath.AngleBetween(vertical, in.gravity); ok && vecmath.Degrees(side) < 90 {
		angle = -angle
	}
	return angle, true
}

// orientedHorizon un-rotates the reference horizon by the accumulated
// rotation.
func (in *Integrator) orientedHorizon() r3.Vec {
	var inv mat.Dense
	if err := inv.Inverse(in.rotation); err != nil {
		// Orthonormal in theory; fall back to the transpose.
		inv.CloneFrom(in.rotation.T())
	}

	var out mat.VecDense
	out.MulVec(&inv, mat.NewVecDense(3, []float64{in.horizon.X, in.horizon.Y, in.horizon.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

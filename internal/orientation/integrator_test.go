package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/gyro_heading/internal/imu"
)

const second = int64(1e9)

func flatGravity() imu.GravitySample {
	return imu.GravitySample{Z: 9.8}
}

func assertIdentity(t *testing.T, m mat.Matrix, tol float64) {
	t.Helper()
	assert.Truef(t, mat.EqualApprox(m, identity(), tol), "not identity:\n%v", mat.Formatted(m))
}

func TestDeltaQuaternionBelowEpsilonIsIdentity(t *testing.T) {
	t.Run("zero rate", func(t *testing.T) {
		m := quatToMatrix(deltaQuaternion(r3.Vec{}, 1))
		assert.True(t, mat.Equal(m, identity()))
	})

	t.Run("sub-epsilon rate", func(t *testing.T) {
		omega := r3.Vec{X: 4e-7, Y: -3e-7, Z: 5e-7}
		require.LessOrEqual(t, r3.Norm(omega), Epsilon)
		m := quatToMatrix(deltaQuaternion(omega, 0.02))
		assertIdentity(t, m, 1e-12)
	})
}

func TestQuatToMatrixIsOrthonormal(t *testing.T) {
	q := deltaQuaternion(r3.Vec{X: 0.3, Y: -1.2, Z: 2.5}, 0.7)
	m := quatToMatrix(q)

	var prod mat.Dense
	prod.Mul(m, m.T())
	assertIdentity(t, &prod, 1e-12)
	assert.InDelta(t, 1.0, mat.Det(m), 1e-12)
}

func TestOnAngularFirstSampleOnlyRecordsTimestamp(t *testing.T) {
	in := NewIntegrator()
	in.OnAngular(imu.AngularSample{TimestampNanos: 5 * second, Z: 3})
	assertIdentity(t, in.Rotation(), 0)

	in.OnAngular(imu.AngularSample{TimestampNanos: 6 * second, Z: math.Pi / 2})
	want := mat.NewDense(3, 3, []float64{
		0, -1, 0,
		1, 0, 0,
		0, 0, 1,
	})
	assert.True(t, mat.EqualApprox(in.Rotation(), want, 1e-9))
}

func TestDriftOffsetVec(t *testing.T) {
	d := DriftOffset{X: 0.01, Y: -0.02, Z: 0.5}
	assert.Equal(t, r3.Vec{X: 0.01, Y: -0.02, Z: 0.5}, d.Vec())

	s := imu.AngularSample{X: 0.11, Y: 0.08, Z: 0.5}
	omega := r3.Sub(s.Vec(), d.Vec())
	assert.InDelta(t, 0.1, omega.X, 1e-12)
	assert.InDelta(t, 0.1, omega.Y, 1e-12)
	assert.InDelta(t, 0.0, omega.Z, 1e-12)
}

func TestOnAngularSubtractsDrift(t *testing.T) {
	in := NewIntegrator()
	in.SetDrift(DriftOffset{X: 0.01, Y: -0.02, Z: 0.5})
	assert.Equal(t, DriftOffset{X: 0.01, Y: -0.02, Z: 0.5}, in.Drift())

	for i := int64(0); i < 100; i++ {
		in.OnAngular(imu.AngularSample{TimestampNanos: i * second / 50, X: 0.01, Y: -0.02, Z: 0.5})
	}
	assertIdentity(t, in.Rotation(), 1e-12)
}

func TestRotationSymmetry(t *testing.T) {
	in := NewIntegrator()
	// Start from an arbitrary non-identity attitude.
	in.OnAngular(imu.AngularSample{TimestampNanos: 0})
	in.OnAngular(imu.AngularSample{TimestampNanos: second / 3, X: 0.4, Y: 0.1, Z: -0.2})
	before := in.Rotation()

	axis := r3.Unit(r3.Vec{X: 1, Y: 2, Z: -1})
	rate := 0.8
	ts := second / 3
	for i := 0; i < 10; i++ {
		ts += second / 10
		in.OnAngular(imu.AngularSample{TimestampNanos: ts, X: rate * axis.X, Y: rate * axis.Y, Z: rate * axis.Z})
	}
	for i := 0; i < 10; i++ {
		ts += second / 10
		in.OnAngular(imu.AngularSample{TimestampNanos: ts, X: -rate * axis.X, Y: -rate * axis.Y, Z: -rate * axis.Z})
	}

	assert.True(t, mat.EqualApprox(in.Rotation(), before, 1e-9))
}

func TestResetWithoutGravityStaysNotReady(t *testing.T) {
	in := NewIntegrator()
	in.Reset()
	assert.False(t, in.Ready())

	_, ok := in.Angle()
	assert.False(t, ok)
}

func TestWarmStartOnFirstGravity(t *testing.T) {
	in := NewIntegrator()
	in.OnAngular(imu.AngularSample{TimestampNanos: 0})
	in.OnAngular(imu.AngularSample{TimestampNanos: second, Z: 1})

	in.OnGravity(flatGravity())
	require.True(t, in.Ready())
	assertIdentity(t, in.Rotation(), 0)
	assert.InDelta(t, 1.0, in.Horizon().X, 1e-12)

	// Once ready, gravity updates leave the rotation alone.
	in.OnAngular(imu.AngularSample{TimestampNanos: 2 * second})
	in.OnAngular(imu.AngularSample{TimestampNanos: 3 * second, Z: 1})
	in.OnGravity(flatGravity())
	assert.False(t, mat.EqualApprox(in.Rotation(), identity(), 1e-6))
}

func TestResetClearsRotationAndTimestamp(t *testing.T) {
	in := NewIntegrator()
	in.OnGravity(flatGravity())
	in.OnAngular(imu.AngularSample{TimestampNanos: 0})
	in.OnAngular(imu.AngularSample{TimestampNanos: second, Z: 1})

	in.Reset()
	assertIdentity(t, in.Rotation(), 0)

	// First sample after reset is a timestamp only.
	in.OnAngular(imu.AngularSample{TimestampNanos: 10 * second, Z: 1})
	assertIdentity(t, in.Rotation(), 0)
}

func TestResetIsIdempotent(t *testing.T) {
	in := NewIntegrator()
	in.OnGravity(imu.GravitySample{X: 1.2, Y: -0.7, Z: 9.6})

	in.Reset()
	first := in.Horizon()
	in.Reset()
	again := in.Horizon()

	assert.Equal(t, first, again)
	assert.True(t, in.Ready())
}

func TestDegenerateGravity(t *testing.T) {
	t.Run("zero magnitude", func(t *testing.T) {
		in := NewIntegrator()
		in.OnGravity(imu.GravitySample{})
		assert.False(t, in.Ready())
		_, ok := in.Angle()
		assert.False(t, ok)
	})

	t.Run("parallel to reference axis", func(t *testing.T) {
		in := NewIntegrator()
		in.OnGravity(imu.GravitySample{X: 9.8})
		assert.False(t, in.Ready())
		_, ok := in.Angle()
		assert.False(t, ok)

		// A usable gravity sample warm-starts the session.
		in.OnGravity(imu.GravitySample{Z: 9.8})
		require.True(t, in.Ready())
		angle, ok := in.Angle()
		assert.True(t, ok)
		assert.Equal(t, 0.0, angle)
	})

	t.Run("manual reset on parallel gravity", func(t *testing.T) {
		in := NewIntegrator()
		in.OnGravity(imu.GravitySample{Z: 9.8})
		require.True(t, in.Ready())

		in.OnGravity(imu.GravitySample{X: -9.8})
		in.Reset()
		assert.False(t, in.Ready())

		in.OnGravity(imu.GravitySample{Y: 9.8})
		assert.True(t, in.Ready())
	})
}

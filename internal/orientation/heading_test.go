package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gyro_heading/internal/imu"
)

func TestAngleNotReadyBeforeGravity(t *testing.T) {
	in := NewIntegrator()
	_, ok := in.Angle()
	assert.False(t, ok)

	in.OnAngular(imu.AngularSample{TimestampNanos: 0})
	in.OnAngular(imu.AngularSample{TimestampNanos: second, Z: 1})
	_, ok = in.Angle()
	assert.False(t, ok)
}

func TestAngleZeroAfterReset(t *testing.T) {
	gravities := []imu.GravitySample{
		{Z: 9.8},
		{X: 1.5, Y: -2.0, Z: 9.2},
		{Y: 9.8},
	}
	for _, g := range gravities {
		in := NewIntegrator()
		in.OnGravity(g)
		in.OnAngular(imu.AngularSample{TimestampNanos: 0})
		in.OnAngular(imu.AngularSample{TimestampNanos: second, X: 0.3, Z: 0.7})

		in.Reset()
		got, ok := in.Angle()
		require.True(t, ok)
		assert.InDelta(t, 0.0, got, 1e-6)
	}
}

func yaw(in *Integrator, rate float64) {
	in.OnAngular(imu.AngularSample{TimestampNanos: 0})
	in.OnAngular(imu.AngularSample{TimestampNanos: second, Z: rate})
}

func TestAngleNinetyDegreeYaw(t *testing.T) {
	t.Run("positive rate", func(t *testing.T) {
		in := NewIntegrator()
		in.OnGravity(flatGravity())
		require.InDelta(t, 1.0, in.Horizon().X, 1e-12)

		yaw(in, math.Pi/2)
		got, ok := in.Angle()
		require.True(t, ok)
		assert.InDelta(t, -90.0, got, 1.0)
	})

	t.Run("negative rate", func(t *testing.T) {
		in := NewIntegrator()
		in.OnGravity(flatGravity())

		yaw(in, -math.Pi/2)
		got, ok := in.Angle()
		require.True(t, ok)
		assert.InDelta(t, 90.0, got, 1.0)
	})
}

func TestAngleSmallYawKeepsSign(t *testing.T) {
	in := NewIntegrator()
	in.OnGravity(flatGravity())

	// 30 degrees split into many small steps.
	rate := math.Pi / 6
	for i := int64(0); i <= 100; i++ {
		in.OnAngular(imu.AngularSample{TimestampNanos: i * second / 100, Z: rate})
	}
	got, ok := in.Angle()
	require.True(t, ok)
	assert.InDelta(t, -30.0, got, 0.5)
}

func TestAngleIgnoresRotationAboutReferenceAxis(t *testing.T) {
	in := NewIntegrator()
	in.OnGravity(flatGravity())

	// Rolling about the reference axis does not move its horizontal projection.
	in.OnAngular(imu.AngularSample{TimestampNanos: 0})
	in.OnAngular(imu.AngularSample{TimestampNanos: second, X: 0.4})
	got, ok := in.Angle()
	require.True(t, ok)
	assert.InDelta(t, 0.0, got, 1e-6)
}

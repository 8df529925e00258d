// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/gyro_heading/internal/imu"
)

type mockSource struct {
	start   time.Time
	now     func() time.Time
	yawRate float64 // rad/s about +Z
}

// NewMockSource creates a mock source for a device lying flat and turning
// at a constant yaw rate.
func NewMockSource(yawRateDegPerSec float64) Source {
	return newMockSource(time.Now, yawRateDegPerSec)
}

func newMockSource(now func() time.Time, yawRateDegPerSec float64) *mockSource {
	return &mockSource{
		start:   now(),
		now:     now,
		yawRate: yawRateDegPerSec * math.Pi / 180.0,
	}
}

func (m *mockSource) Next() (imu.Frame, error) {
	elapsed := m.now().Sub(m.start)
	yawDeg := m.yawRate * elapsed.Seconds() * 180.0 / math.Pi

	// Azimuth grows clockwise seen from above, yaw counter-clockwise.
	azimuth := float32(math.Mod(-yawDeg, 360))

	return imu.Frame{
		Source:  "mock",
		Angular: imu.AngularSample{TimestampNanos: elapsed.Nanoseconds(), Z: m.yawRate},
		Gravity: imu.GravitySample{Z: StandardGravity},
		Compass: &imu.CompassSample{Degrees: azimuth},
	}, nil
}

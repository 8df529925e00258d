package sensors

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// StandardGravity in m/s².
const StandardGravity = 9.80665

// Sensitivities indexed by the MPU9250 full-scale select value (0-3).
var (
	// ±250, ±500, ±1000, ±2000 °/s
	gyroLSBPerDPS = [4]float64{131, 65.5, 32.8, 16.4}
	// ±2, ±4, ±8, ±16 g
	accelLSBPerG = [4]float64{16384, 8192, 4096, 2048}
)

func checkRange(sel byte) error {
	if sel > 3 {
		return fmt.Errorf("range select must be 0-3, got %d", sel)
	}
	return nil
}

// GyroToRadPerSec converts raw gyro counts to rad/s.
func GyroToRadPerSec(counts int16, rangeSel byte) float64 {
	return float64(counts) / gyroLSBPerDPS[rangeSel] * math.Pi / 180.0
}

// AccelToMPS2 converts raw accelerometer counts to m/s².
func AccelToMPS2(counts int16, rangeSel byte) float64 {
	return float64(counts) / accelLSBPerG[rangeSel] * StandardGravity
}

// GravityFilter estimates gravity by low-pass filtering the accelerometer.
// alpha close to 1 means a slow, smooth estimate.
type GravityFilter struct {
	alpha  float64
	g      r3.Vec
	primed bool
}

// NewGravityFilter returns a filter with the given smoothing factor in [0, 1).
func NewGravityFilter(alpha float64) *GravityFilter {
	return &GravityFilter{alpha: alpha}
}

// Update feeds one accelerometer reading and returns the current estimate.
// The first reading is taken as-is.
func (f *GravityFilter) Update(accel r3.Vec) r3.Vec {
	if !f.primed {
		f.g = accel
		f.primed = true
		return f.g
	}
	f.g = r3.Add(r3.Scale(f.alpha, f.g), r3.Scale(1-f.alpha, accel))
	return f.g
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration estimates the static gyro drift offset from samples
// taken while the device is held still.
package calibration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/relabs-tech/gyro_heading/internal/imu"
	"github.com/relabs-tech/gyro_heading/internal/orientation"
	"github.com/relabs-tech/gyro_heading/internal/sensors"
)

// Stillness thresholds on the mean per-axis standard deviation (rad/s).
const (
	stillStdGood = 0.002
	stillStdBad  = 0.02

	// Confidence floor (we never want hard zero unless we error out)
	confFloor = 0.05
)

// ErrNoSamples is returned when a result is requested before any sample.
var ErrNoSamples = errors.New("calibration: no samples")

// Result is a finished drift calibration.
type Result struct {
	SchemaVersion int                     `json:"schema_version"`
	CalibrationAt time.Time               `json:"calibration_at"`
	Drift         orientation.DriftOffset `json:"drift"`
	StdDev        orientation.DriftOffset `json:"stddev"`
	Samples       int                     `json:"samples"`
	Confidence    float64                 `json:"confidence"`
}

// Estimator accumulates stationary gyro samples.
type Estimator struct {
	xs, ys, zs []float64
}

// Add records one sample.
func (e *Estimator) Add(s imu.AngularSample) {
	e.xs = append(e.xs, s.X)
	e.ys = append(e.ys, s.Y)
	e.zs = append(e.zs, s.Z)
}

// Len returns the number of recorded samples.
func (e *Estimator) Len() int {
	return len(e.xs)
}

// Result computes the per-axis mean (the drift offset) and spread.
func (e *Estimator) Result() (Result, error) {
	if len(e.xs) == 0 {
		return Result{}, ErrNoSamples
	}

	mean, err := axisStats(e.xs, e.ys, e.zs, stats.Mean)
	if err != nil {
		return Result{}, fmt.Errorf("calibration: mean: %w", err)
	}
	std, err := axisStats(e.xs, e.ys, e.zs, stats.StandardDeviation)
	if err != nil {
		return Result{}, fmt.Errorf("calibration: stddev: %w", err)
	}

	return Result{
		SchemaVersion: 1,
		CalibrationAt: time.Now().UTC(),
		Drift:         mean,
		StdDev:        std,
		Samples:       len(e.xs),
		Confidence:    stillnessConfidence(std),
	}, nil
}

func axisStats(xs, ys, zs []float64, fn func(stats.Float64Data) (float64, error)) (orientation.DriftOffset, error) {
	x, err := fn(xs)
	if err != nil {
		return orientation.DriftOffset{}, err
	}
	y, err := fn(ys)
	if err != nil {
		return orientation.DriftOffset{}, err
	}
	z, err := fn(zs)
	if err != nil {
		return orientation.DriftOffset{}, err
	}
	return orientation.DriftOffset{X: x, Y: y, Z: z}, nil
}

func stillnessConfidence(std orientation.DriftOffset) float64 {
	// Use average std dev across axes.
	s := (std.X + std.Y + std.Z) / 3
	switch {
	case s <= stillStdGood:
		return 1.0
	case s >= stillStdBad:
		return confFloor
	default:
		// Linear interpolation between good and bad
		t := (s - stillStdGood) / (stillStdBad - stillStdGood)
		return 1.0 - 0.95*t
	}
}

// Capture reads src every interval for dur and returns the estimate.
func Capture(ctx context.Context, src sensors.Source, dur, interval time.Duration) (Result, error) {
	var est Estimator

	deadline := time.NewTimer(dur)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-deadline.C:
			return est.Result()
		case <-ticker.C:
			f, err := src.Next()
			if err != nil {
				return Result{}, fmt.Errorf("calibration: read: %w", err)
			}
			est.Add(f.Angular)
		}
	}
}

// WriteFile stores the result as indented JSON.
func (r Result) WriteFile(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("calibration: write %s: %w", path, err)
	}
	return nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tracker wires the orientation integrator and the compass into a
// single heading-tracking session that can be fed from concurrent sources.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/gyro_heading/internal/compass"
	"github.com/relabs-tech/gyro_heading/internal/imu"
	"github.com/relabs-tech/gyro_heading/internal/orientation"
)

// Snapshot is the published view of a session.
type Snapshot struct {
	SessionID  string                  `json:"session_id"`
	Ready      bool                    `json:"ready"`
	AngleDeg   *float64                `json:"angle_deg"` // null when not ready
	CompassDeg float32                 `json:"compass_deg"`
	Drift      orientation.DriftOffset `json:"drift"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// Tracker is one heading-tracking session. All methods are safe for
// concurrent use.
type Tracker struct {
	id uuid.UUID

	// mu guards integ: rotation, ready flag and gravity are read together.
	mu    sync.RWMutex
	integ *orientation.Integrator

	compass compass.Compass
}

// New starts a session with the given drift offset.
func New(drift orientation.DriftOffset) *Tracker {
	integ := orientation.NewIntegrator()
	integ.SetDrift(drift)
	return &Tracker{
		id:    uuid.New(),
		integ: integ,
	}
}

// ID identifies this session.
func (t *Tracker) ID() uuid.UUID {
	return t.id
}

// SetDriftOffset replaces the gyro bias.
func (t *Tracker) SetDriftOffset(x, y, z float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.integ.SetDrift(orientation.DriftOffset{X: x, Y: y, Z: z})
}

// OnAngularSample integrates one gyro reading (rad/s, monotonic ns).
func (t *Tracker) OnAngularSample(timestampNanos int64, x, y, z float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.integ.OnAngular(imu.AngularSample{TimestampNanos: timestampNanos, X: x, Y: y, Z: z})
}

// OnGravitySample updates the gravity reference.
func (t *Tracker) OnGravitySample(x, y, z float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.integ.OnGravity(imu.GravitySample{X: x, Y: y, Z: z})
}

// OnCompassSample stores a raw compass azimuth.
func (t *Tracker) OnCompassSample(rawDegrees float32) {
	t.compass.OnSample(rawDegrees)
}

// Reset makes the current attitude the zero heading.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.integ.Reset()
}

// Angle returns the signed heading in degrees, or ok=false while not ready.
func (t *Tracker) Angle() (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.integ.Angle()
}

// Ready reports whether Angle has a reference to measure against.
func (t *Tracker) Ready() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.integ.Ready()
}

// CompassDirection returns the normalized compass bearing.
func (t *Tracker) CompassDirection() float32 {
	return t.compass.Direction()
}

// Snapshot captures the current outputs.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	angle, ok := t.integ.Angle()
	drift := t.integ.Drift()
	t.mu.RUnlock()

	snap := Snapshot{
		SessionID:  t.id.String(),
		Ready:      ok,
		CompassDeg: t.compass.Direction(),
		Drift:      drift,
		UpdatedAt:  time.Now().UTC(),
	}
	if ok {
		snap.AngleDeg = &angle
	}
	return snap
}

// Dispatch routes one message to the matching update entry point.
func (t *Tracker) Dispatch(s imu.Sample) {
	switch s.Kind {
	case imu.KindAngular:
		a := s.Angular
		t.OnAngularSample(a.TimestampNanos, a.X, a.Y, a.Z)
	case imu.KindGravity:
		g := s.Gravity
		t.OnGravitySample(g.X, g.Y, g.Z)
	case imu.KindCompass:
		t.OnCompassSample(s.Compass.Degrees)
	}
}

// Run consumes samples until ctx is done or samples is closed. Samples are
// applied in channel order.
func (t *Tracker) Run(ctx context.Context, samples <-chan imu.Sample) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-samples:
			if !ok {
				return nil
			}
			t.Dispatch(s)
		}
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package compass keeps the latest compass bearing, normalized to [0, 360).
package compass

import (
	"math"
	"sync"
)

// Normalize maps d into [0, 360) for inputs in [-720, 720).
// Inputs outside that range go through the same formula unchanged.
// d+720 is rounded in float32 first, so tiny negative inputs map to 0.
func Normalize(d float32) float32 {
	r := float32(math.Mod(float64(d+720), 360))
	if r >= 360 {
		r = 0
	}
	return r
}

// Compass holds the bearing derived from the last raw sample.
type Compass struct {
	mu      sync.RWMutex
	bearing float32
}

// OnSample stores the bearing for a raw azimuth. The raw value is negated
// before normalization.
func (c *Compass) OnSample(rawDegrees float32) {
	b := Normalize(-rawDegrees)
	c.mu.Lock()
	c.bearing = b
	c.mu.Unlock()
}

// Direction returns the last stored bearing, 0 before any sample.
func (c *Compass) Direction() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bearing
}

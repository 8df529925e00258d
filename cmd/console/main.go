// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"time"

	"github.com/relabs-tech/gyro_heading/internal/app"
)

func main() {
	rate := flag.Float64("rate", 15, "simulated yaw rate in °/s")
	poll := flag.Duration("poll", 500*time.Millisecond, "print interval")
	flag.Parse()

	log.Println("starting gyro-heading (mock console)")

	if err := app.RunMockConsole(*rate, *poll); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

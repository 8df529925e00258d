// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/gyro_heading/internal/orientation"
	"github.com/relabs-tech/gyro_heading/internal/sensors"
	"github.com/relabs-tech/gyro_heading/internal/tracker"
)

// runLocal feeds frames from src into tr every sampleEvery and writes a
// heading line to w every pollEvery, until ctx is done.
func runLocal(ctx context.Context, src sensors.Source, tr *tracker.Tracker, sampleEvery, pollEvery time.Duration, w io.Writer) error {
	sampleTicker := time.NewTicker(sampleEvery)
	defer sampleTicker.Stop()
	pollTicker := time.NewTicker(pollEvery)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sampleTicker.C:
			frame, err := src.Next()
			if err != nil {
				return err
			}
			for _, s := range frame.Samples() {
				tr.Dispatch(s)
			}
		case <-pollTicker.C:
			fmt.Fprintln(w, formatHeading(tr.Snapshot()))
		}
	}
}

// RunMockConsole runs a heading session against the mock source without a
// broker and prints it every pollEvery.
func RunMockConsole(yawRateDPS float64, pollEvery time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr := tracker.New(orientation.DriftOffset{})
	tr.Reset()

	return runLocal(ctx, sensors.NewMockSource(yawRateDPS), tr, 10*time.Millisecond, pollEvery, os.Stdout)
}

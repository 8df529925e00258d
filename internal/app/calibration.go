// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/gyro_heading/internal/calibration"
	"github.com/relabs-tech/gyro_heading/internal/config"
	"github.com/relabs-tech/gyro_heading/internal/sensors"
	"github.com/relabs-tech/gyro_heading/internal/settings"
)

// calibrateDrift captures a drift offset from src, stores it in the
// settings database and writes the JSON report.
func calibrateDrift(ctx context.Context, src sensors.Source, cfg *config.Config) (calibration.Result, error) {
	dur := time.Duration(cfg.CalibrationDuration) * time.Second
	interval := time.Duration(cfg.IMUSampleInterval) * time.Millisecond

	res, err := calibration.Capture(ctx, src, dur, interval)
	if err != nil {
		return calibration.Result{}, err
	}

	store, err := settings.Open(cfg.SettingsDBPath)
	if err != nil {
		return calibration.Result{}, err
	}
	defer store.Close()

	if err := store.SaveDrift(res.Drift); err != nil {
		return calibration.Result{}, err
	}

	if cfg.CalibrationOutput != "" {
		if err := res.WriteFile(cfg.CalibrationOutput); err != nil {
			return calibration.Result{}, err
		}
	}
	return res, nil
}

func waitForEnter(in io.Reader, prompt string) error {
	fmt.Print(prompt)
	_, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

// RunCalibration guides the user through a still capture and persists the
// resulting drift offset.
func RunCalibration() error {
	cfg := config.Get()

	src, err := newSource(cfg)
	if err != nil {
		return err
	}

	fmt.Println("=== Gyro drift calibration ===")
	fmt.Printf("Place the device on a stable surface. Sampling lasts %ds.\n", cfg.CalibrationDuration)
	if err := waitForEnter(os.Stdin, "Press ENTER to start..."); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := calibrateDrift(ctx, src, cfg)
	if err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}

	log.Printf("calibration: %d samples, confidence %.2f", res.Samples, res.Confidence)
	fmt.Printf("Drift offset (rad/s): x=%.6f y=%.6f z=%.6f\n", res.Drift.X, res.Drift.Y, res.Drift.Z)
	fmt.Printf("Std dev (rad/s):      x=%.6f y=%.6f z=%.6f\n", res.StdDev.X, res.StdDev.Y, res.StdDev.Z)
	fmt.Printf("Saved to %s", cfg.SettingsDBPath)
	if cfg.CalibrationOutput != "" {
		fmt.Printf(" and %s", cfg.CalibrationOutput)
	}
	fmt.Println()
	if res.Confidence < 0.5 {
		fmt.Println("WARNING: the device moved during capture, consider running again.")
	}
	return nil
}

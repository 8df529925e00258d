// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gyro_heading/internal/imu"
)

// IMUOptions selects and configures the MPU9250.
type IMUOptions struct {
	SPIDevice string
	CSPin     string

	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	AccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	GyroRange byte

	// GravityAlpha is the accelerometer low-pass factor used to
	// estimate gravity.
	GravityAlpha float64
}

type imuSource struct {
	imu     *mpu9250.MPU9250
	opts    IMUOptions
	start   time.Time
	gravity *GravityFilter
}

// NewIMUSource initializes the MPU9250 over SPI and returns a Source
// producing gyro rates in rad/s and a filtered gravity estimate in m/s².
func NewIMUSource(opts IMUOptions) (Source, error) {
	if err := checkRange(opts.AccelRange); err != nil {
		return nil, fmt.Errorf("IMU accel: %w", err)
	}
	if err := checkRange(opts.GyroRange); err != nil {
		return nil, fmt.Errorf("IMU gyro: %w", err)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(opts.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", opts.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(opts.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", opts.SPIDevice, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := dev.SetAccelRange(opts.AccelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}
	log.Printf("IMU: accelerometer range set to %d (±%dg)", opts.AccelRange, []int{2, 4, 8, 16}[opts.AccelRange])

	if err := dev.SetGyroRange(opts.GyroRange); err != nil {
		return nil, fmt.Errorf("IMU: set gyro range: %w", err)
	}
	log.Printf("IMU: gyroscope range set to %d (±%d°/s)", opts.GyroRange, []int{250, 500, 1000, 2000}[opts.GyroRange])

	// The drift offset is applied downstream; this only trims the
	// factory offsets on the chip.
	if err := dev.Calibrate(); err != nil {
		log.Printf("Warning: IMU calibration failed: %v", err)
	} else {
		log.Printf("IMU calibration complete")
	}

	return &imuSource{
		imu:     dev,
		opts:    opts,
		start:   time.Now(),
		gravity: NewGravityFilter(opts.GravityAlpha),
	}, nil
}

// Next reads accelerometer and gyroscope and returns them in SI units.
func (s *imuSource) Next() (imu.Frame, error) {
	// Read accelerometer
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.Frame{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.Frame{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.Frame{}, fmt.Errorf("IMU accel Z: %w", err)
	}

	// Read gyroscope
	gx, err := s.imu.GetRotationX()
	if err != nil {
		return imu.Frame{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return imu.Frame{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return imu.Frame{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	// time.Since uses the monotonic clock reading.
	ts := time.Since(s.start).Nanoseconds()

	g := s.gravity.Update(r3.Vec{
		X: AccelToMPS2(ax, s.opts.AccelRange),
		Y: AccelToMPS2(ay, s.opts.AccelRange),
		Z: AccelToMPS2(az, s.opts.AccelRange),
	})

	return imu.Frame{
		Source: "mpu9250",
		Angular: imu.AngularSample{
			TimestampNanos: ts,
			X:              GyroToRadPerSec(gx, s.opts.GyroRange),
			Y:              GyroToRadPerSec(gy, s.opts.GyroRange),
			Z:              GyroToRadPerSec(gz, s.opts.GyroRange),
		},
		Gravity: imu.GravitySample{X: g.X, Y: g.Y, Z: g.Z},
	}, nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/gyro_heading/internal/config"
	"github.com/relabs-tech/gyro_heading/internal/sensors"
)

// newSource builds the sample source selected by SAMPLE_SOURCE.
func newSource(cfg *config.Config) (sensors.Source, error) {
	switch cfg.SampleSource {
	case "mock":
		log.Printf("using mock sample source (%.1f°/s)", cfg.MockYawRateDPS)
		return sensors.NewMockSource(cfg.MockYawRateDPS), nil
	case "imu":
		log.Printf("using MPU9250 on %s (CS %s)", cfg.IMUSPIDevice, cfg.IMUCSPin)
		return sensors.NewIMUSource(sensors.IMUOptions{
			SPIDevice:    cfg.IMUSPIDevice,
			CSPin:        cfg.IMUCSPin,
			AccelRange:   cfg.IMUAccelRange,
			GyroRange:    cfg.IMUGyroRange,
			GravityAlpha: cfg.GravityFilterAlpha,
		})
	default:
		return nil, fmt.Errorf("unknown sample source %q", cfg.SampleSource)
	}
}

// RunProducer reads frames from the configured source and publishes each
// stream on its own topic.
func RunProducer() error {
	log.Println("starting heading sample producer")

	cfg := config.Get()

	src, err := newSource(cfg)
	if err != nil {
		return err
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	topics := sampleTopics(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("producer: starting publish loop")

	published := 0
	for {
		select {
		case <-sigCh:
			log.Printf("producer: shutting down after %d frames", published)
			return nil
		case <-ticker.C:
		}

		frame, err := src.Next()
		if err != nil {
			log.Printf("producer: read error: %v", err)
			continue
		}

		for _, s := range frame.Samples() {
			payload, err := encodeSample(s)
			if err != nil {
				log.Printf("producer: %v", err)
				continue
			}
			if token := client.Publish(topics[s.Kind], 0, false, payload); token.Wait() && token.Error() != nil {
				log.Printf("producer: MQTT publish error (%s): %v", s.Kind, token.Error())
			}
		}

		published++
		if published%1000 == 0 {
			log.Printf("producer: %d frames published", published)
		}
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/gyro_heading/internal/config"
	"github.com/relabs-tech/gyro_heading/internal/imu"
	"github.com/relabs-tech/gyro_heading/internal/orientation"
	"github.com/relabs-tech/gyro_heading/internal/settings"
	"github.com/relabs-tech/gyro_heading/internal/tracker"
)

const sampleBuffer = 256

// loadDrift reads the stored drift offset. The store is closed right away so
// a calibration run can write to it while the tracker is up.
func loadDrift(path string) (orientation.DriftOffset, error) {
	store, err := settings.Open(path)
	if err != nil {
		return orientation.DriftOffset{}, err
	}
	defer store.Close()
	return store.LoadDrift()
}

// sampleHandler decodes messages for one stream and queues them for the
// tracker. It blocks while the queue is full so no gyro sample is lost,
// and gives up once ctx is done.
func sampleHandler(ctx context.Context, kind imu.Kind, out chan<- imu.Sample) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		s, err := decodeSample(kind, msg.Payload())
		if err != nil {
			log.Printf("tracker: %v", err)
			return
		}
		select {
		case out <- s:
		case <-ctx.Done():
		}
	}
}

// publishSnapshots publishes the tracker state every interval until ctx is
// done.
func publishSnapshots(ctx context.Context, client mqtt.Client, topic string, tr *tracker.Tracker, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := publishJSON(client, topic, true, tr.Snapshot()); err != nil {
				log.Printf("tracker: %v", err)
			}
		}
	}
}

// serveHTTP runs srv until ctx is done.
func serveHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("web server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	}
}

// RunTracker runs one heading session fed from MQTT, publishes its
// snapshots and serves the web API until interrupted.
func RunTracker() error {
	log.Println("starting heading tracker")

	cfg := config.Get()

	drift, err := loadDrift(cfg.SettingsDBPath)
	if err != nil {
		return fmt.Errorf("load drift offset: %w", err)
	}
	log.Printf("tracker: drift offset x=%.6f y=%.6f z=%.6f rad/s", drift.X, drift.Y, drift.Z)

	tr := tracker.New(drift)
	tr.Reset()
	log.Printf("tracker: session %s", tr.ID())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDTracker)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	g, gctx := errgroup.WithContext(ctx)

	samples := make(chan imu.Sample, sampleBuffer)
	for kind, topic := range sampleTopics(cfg) {
		if err := subscribe(client, topic, sampleHandler(gctx, kind, samples)); err != nil {
			return err
		}
	}

	err = subscribe(client, cfg.TopicReset, func(_ mqtt.Client, _ mqtt.Message) {
		tr.Reset()
		log.Println("tracker: heading reset (MQTT)")
	})
	if err != nil {
		return err
	}

	poll := time.Duration(cfg.PollInterval) * time.Millisecond
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           newWebHandler(tr, poll),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		if err := tr.Run(gctx, samples); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return publishSnapshots(gctx, client, cfg.TopicHeading, tr, poll)
	})
	g.Go(func() error {
		return serveHTTP(gctx, srv)
	})

	err = g.Wait()
	log.Println("tracker: shutting down")
	return err
}

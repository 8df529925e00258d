package app

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gyro_heading/internal/config"
	"github.com/relabs-tech/gyro_heading/internal/tracker"
)

// formatHeading renders one console line. The angle prints as NaN while the
// session has no reference.
func formatHeading(snap tracker.Snapshot) string {
	angle := math.NaN()
	if snap.AngleDeg != nil {
		angle = *snap.AngleDeg
	}
	return fmt.Sprintf("[HEADING] ANGLE=%7.2f  COMPASS=%6.2f", angle, snap.CompassDeg)
}

func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}

	err = subscribe(client, cfg.TopicHeading, func(_ mqtt.Client, msg mqtt.Message) {
		var snap tracker.Snapshot
		if err := json.Unmarshal(msg.Payload(), &snap); err != nil {
			log.Printf("console: heading unmarshal error: %v", err)
			return
		}
		fmt.Println(formatHeading(snap))
	})
	if err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

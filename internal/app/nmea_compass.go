package app

import (
	"log"

	"github.com/relabs-tech/gyro_heading/internal/compass"
	"github.com/relabs-tech/gyro_heading/internal/config"
	"github.com/relabs-tech/gyro_heading/internal/imu"
)

// RunNMEACompass reads heading sentences from an NMEA compass on a serial
// port and publishes them as raw compass samples.
func RunNMEACompass() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDCompass)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	// ---- 2) Open compass serial port ----
	reader, err := compass.OpenSerial(cfg.NMEASerialPort, cfg.NMEABaudRate)
	if err != nil {
		return err
	}
	defer reader.Close()
	log.Printf("compass serial port opened on %s at %d baud", cfg.NMEASerialPort, cfg.NMEABaudRate)

	for {
		heading, err := reader.NextHeading()
		if err != nil {
			log.Printf("compass read error: %v", err)
			return err
		}

		if err := publishJSON(client, cfg.TopicCompassRaw, false, imu.CompassSample{Degrees: heading}); err != nil {
			log.Printf("compass: %v", err)
		}
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gyro_heading/internal/config"
	"github.com/relabs-tech/gyro_heading/internal/imu"
)

func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect to %s: %w", broker, token.Error())
	}
	log.Printf("connected to MQTT broker at %s as %s", broker, clientID)
	return client, nil
}

func publishJSON(client mqtt.Client, topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", topic, err)
	}
	if token := client.Publish(topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish (%s): %w", topic, token.Error())
	}
	return nil
}

func subscribe(client mqtt.Client, topic string, cb mqtt.MessageHandler) error {
	token := client.Subscribe(topic, 0, cb)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("MQTT subscribe (%s): %w", topic, token.Error())
	}
	log.Printf("subscribed to MQTT topic %s", topic)
	return nil
}

// sampleTopics maps each sample stream to its topic.
func sampleTopics(cfg *config.Config) map[imu.Kind]string {
	return map[imu.Kind]string{
		imu.KindAngular: cfg.TopicGyro,
		imu.KindGravity: cfg.TopicGravity,
		imu.KindCompass: cfg.TopicCompassRaw,
	}
}

// encodeSample returns the wire payload of the stream-specific part of s.
func encodeSample(s imu.Sample) ([]byte, error) {
	switch s.Kind {
	case imu.KindAngular:
		return json.Marshal(s.Angular)
	case imu.KindGravity:
		return json.Marshal(s.Gravity)
	case imu.KindCompass:
		return json.Marshal(s.Compass)
	default:
		return nil, fmt.Errorf("unknown sample kind %d", s.Kind)
	}
}

// decodeSample parses a payload received on the topic for kind.
func decodeSample(kind imu.Kind, payload []byte) (imu.Sample, error) {
	switch kind {
	case imu.KindAngular:
		var a imu.AngularSample
		if err := json.Unmarshal(payload, &a); err != nil {
			return imu.Sample{}, fmt.Errorf("%s payload: %w", kind, err)
		}
		return imu.Angular(a), nil
	case imu.KindGravity:
		var g imu.GravitySample
		if err := json.Unmarshal(payload, &g); err != nil {
			return imu.Sample{}, fmt.Errorf("%s payload: %w", kind, err)
		}
		return imu.Gravity(g), nil
	case imu.KindCompass:
		var c imu.CompassSample
		if err := json.Unmarshal(payload, &c); err != nil {
			return imu.Sample{}, fmt.Errorf("%s payload: %w", kind, err)
		}
		return imu.Compass(c), nil
	default:
		return imu.Sample{}, fmt.Errorf("unknown sample kind %d", kind)
	}
}

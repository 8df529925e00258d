package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gyro_heading/internal/app"
	"github.com/relabs-tech/gyro_heading/internal/config"
)

func main() {
	configPath := flag.String("config", "./heading_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting gyro-heading console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

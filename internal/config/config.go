package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDTracker  string
	MQTTClientIDConsole  string
	MQTTClientIDDisplay  string
	MQTTClientIDCompass  string

	// Topics
	TopicGyro       string
	TopicGravity    string
	TopicCompassRaw string
	TopicHeading    string
	TopicReset      string

	// Sample source: "imu" or "mock"
	SampleSource   string
	MockYawRateDPS float64

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	IMUSampleInterval  int     // milliseconds
	GravityFilterAlpha float64 // accelerometer low-pass factor, 0-1

	// External NMEA compass
	NMEASerialPort string
	NMEABaudRate   int

	// Drift calibration
	SettingsDBPath      string
	CalibrationDuration int // seconds
	CalibrationOutput   string

	// Heading poll / publish interval
	PollInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages go through InitGlobal/Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock for initialization,
//     read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration with every optional value filled in.
// MQTT_BROKER has no default.
func Default() *Config {
	return &Config{
		MQTTClientIDProducer: "heading-producer",
		MQTTClientIDTracker:  "heading-tracker",
		MQTTClientIDConsole:  "heading-console",
		MQTTClientIDDisplay:  "heading-display",
		MQTTClientIDCompass:  "heading-compass",

		TopicGyro:       "heading/sample/gyro",
		TopicGravity:    "heading/sample/gravity",
		TopicCompassRaw: "heading/sample/compass",
		TopicHeading:    "heading/output",
		TopicReset:      "heading/control/reset",

		SampleSource:   "imu",
		MockYawRateDPS: 15,

		IMUSPIDevice:       "/dev/spidev0.0",
		IMUCSPin:           "8",
		IMUAccelRange:      0,
		IMUGyroRange:       0,
		IMUSampleInterval:  10,
		GravityFilterAlpha: 0.8,

		NMEASerialPort: "/dev/ttyUSB0",
		NMEABaudRate:   4800,

		SettingsDBPath:      "heading_settings.db",
		CalibrationDuration: 10,
		CalibrationOutput:   "drift_calibration.json",

		PollInterval: 500,

		WebServerPort: 8080,

		DisplayI2CBus:         "",
		DisplayUpdateInterval: 250,
	}
}

// Load reads the configuration file and returns a Config struct.
// Keys not present in the file keep their Default() value.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseRange(key, value string) (byte, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < 0 || v > 3 {
		return 0, fmt.Errorf("%s must be 0-3, got %d", key, v)
	}
	return byte(v), nil
}

func parsePositiveInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error

	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_TRACKER":
		c.MQTTClientIDTracker = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_COMPASS":
		c.MQTTClientIDCompass = value

	// Topics
	case "TOPIC_GYRO":
		c.TopicGyro = value
	case "TOPIC_GRAVITY":
		c.TopicGravity = value
	case "TOPIC_COMPASS_RAW":
		c.TopicCompassRaw = value
	case "TOPIC_HEADING":
		c.TopicHeading = value
	case "TOPIC_RESET":
		c.TopicReset = value

	// Source
	case "SAMPLE_SOURCE":
		if value != "imu" && value != "mock" {
			return fmt.Errorf("SAMPLE_SOURCE must be imu or mock, got %q", value)
		}
		c.SampleSource = value
	case "MOCK_YAW_RATE_DPS":
		c.MockYawRateDPS, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOCK_YAW_RATE_DPS %q: %w", value, err)
		}

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		c.IMUAccelRange, err = parseRange(key, value)
		return err
	case "IMU_GYRO_RANGE":
		c.IMUGyroRange, err = parseRange(key, value)
		return err
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = parsePositiveInt(key, value)
		return err
	case "GRAVITY_FILTER_ALPHA":
		alpha, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid GRAVITY_FILTER_ALPHA %q: %w", value, err)
		}
		if alpha < 0 || alpha >= 1 {
			return fmt.Errorf("GRAVITY_FILTER_ALPHA must be in [0, 1), got %v", alpha)
		}
		c.GravityFilterAlpha = alpha

	// NMEA compass
	case "NMEA_SERIAL_PORT":
		c.NMEASerialPort = value
	case "NMEA_BAUD_RATE":
		c.NMEABaudRate, err = parsePositiveInt(key, value)
		return err

	// Calibration
	case "SETTINGS_DB_PATH":
		c.SettingsDBPath = value
	case "CALIBRATION_DURATION":
		c.CalibrationDuration, err = parsePositiveInt(key, value)
		return err
	case "CALIBRATION_OUTPUT":
		c.CalibrationOutput = value

	// Timing
	case "POLL_INTERVAL":
		c.PollInterval, err = parsePositiveInt(key, value)
		return err

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parsePositiveInt(key, value)
		return err

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parsePositiveInt(key, value)
		return err

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.SettingsDBPath == "" {
		return fmt.Errorf("SETTINGS_DB_PATH is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

package sensors

import (
	"github.com/relabs-tech/gyro_heading/internal/imu"
)

// Source is anything that can provide sample frames over time:
// the MPU9250 over SPI, the mock source, maybe a replay source later.
type Source interface {
	Next() (imu.Frame, error)
}

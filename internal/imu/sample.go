package imu

import "gonum.org/v1/gonum/spatial/r3"

// AngularSample is one gyroscope reading.
type AngularSample struct {
	TimestampNanos int64 `json:"t_ns"` // monotonic

	X float64 `json:"x"` // rad/s
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns the angular velocity as a vector.
func (s AngularSample) Vec() r3.Vec {
	return r3.Vec{X: s.X, Y: s.Y, Z: s.Z}
}

// GravitySample is the current estimate of "down" in the sensor frame.
type GravitySample struct {
	X float64 `json:"x"` // m/s²
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns the gravity vector.
func (s GravitySample) Vec() r3.Vec {
	return r3.Vec{X: s.X, Y: s.Y, Z: s.Z}
}

// CompassSample is a raw azimuth as reported by an orientation/compass source.
type CompassSample struct {
	Degrees float32 `json:"deg"`
}

// Kind tags which stream a Sample belongs to.
type Kind int

const (
	KindAngular Kind = iota + 1
	KindGravity
	KindCompass
)

func (k Kind) String() string {
	switch k {
	case KindAngular:
		return "angular"
	case KindGravity:
		return "gravity"
	case KindCompass:
		return "compass"
	default:
		return "unknown"
	}
}

// Sample is a single message on the ingestion channel. Only the field
// matching Kind is meaningful.
type Sample struct {
	Kind    Kind
	Angular AngularSample
	Gravity GravitySample
	Compass CompassSample
}

func Angular(s AngularSample) Sample { return Sample{Kind: KindAngular, Angular: s} }
func Gravity(s GravitySample) Sample { return Sample{Kind: KindGravity, Gravity: s} }
func Compass(s CompassSample) Sample { return Sample{Kind: KindCompass, Compass: s} }

// Frame is everything a source produced in one read.
type Frame struct {
	Source string `json:"source"`

	Angular AngularSample  `json:"angular"`
	Gravity GravitySample  `json:"gravity"`
	Compass *CompassSample `json:"compass,omitempty"`
}

// Samples splits the frame into ingestion messages. Gravity goes first so a
// fresh session warm-starts before the first gyro sample is seen.
func (f Frame) Samples() []Sample {
	out := []Sample{Gravity(f.Gravity), Angular(f.Angular)}
	if f.Compass != nil {
		out = append(out, Compass(*f.Compass))
	}
	return out
}

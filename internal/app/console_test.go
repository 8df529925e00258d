package app

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/gyro_heading/internal/orientation"
	"github.com/relabs-tech/gyro_heading/internal/sensors"
	"github.com/relabs-tech/gyro_heading/internal/tracker"
)

func TestFormatHeading(t *testing.T) {
	angle := -12.5
	assert.Equal(t, "[HEADING] ANGLE= -12.50  COMPASS= 90.00",
		formatHeading(tracker.Snapshot{AngleDeg: &angle, CompassDeg: 90}))
	assert.Equal(t, "[HEADING] ANGLE=    NaN  COMPASS=  0.00",
		formatHeading(tracker.Snapshot{}))
}

// syncBuffer lets the test read output while runLocal writes it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunLocalPrintsHeading(t *testing.T) {
	tr := tracker.New(orientation.DriftOffset{})
	tr.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	errCh := make(chan error, 1)
	go func() {
		errCh <- runLocal(ctx, sensors.NewMockSource(30), tr, time.Millisecond, 5*time.Millisecond, out)
	}()

	assert.Eventually(t, func() bool {
		return strings.Count(out.String(), "[HEADING]") >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-errCh)

	assert.True(t, tr.Ready())
	angle, ok := tr.Angle()
	assert.True(t, ok)
	// A positive yaw rate turns the heading negative.
	assert.Less(t, angle, 0.0)
}

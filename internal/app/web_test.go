package app

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gyro_heading/internal/orientation"
	"github.com/relabs-tech/gyro_heading/internal/tracker"
)

// turn rotates tr by deg about +Z in one 1 s step.
func turn(tr *tracker.Tracker, startNanos int64, deg float64) {
	rate := deg * math.Pi / 180
	tr.OnAngularSample(startNanos, 0, 0, rate)
	tr.OnAngularSample(startNanos+int64(time.Second), 0, 0, rate)
}

func newReadyTracker() *tracker.Tracker {
	tr := tracker.New(orientation.DriftOffset{})
	tr.OnGravitySample(0, 0, 9.81)
	return tr
}

func getSnapshot(t *testing.T, resp *http.Response) tracker.Snapshot {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap tracker.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func TestWebHeadingAndReset(t *testing.T) {
	tr := newReadyTracker()
	turn(tr, 0, 90)

	srv := httptest.NewServer(newWebHandler(tr, 10*time.Millisecond))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/heading")
	require.NoError(t, err)
	snap := getSnapshot(t, resp)
	assert.True(t, snap.Ready)
	require.NotNil(t, snap.AngleDeg)
	assert.InDelta(t, -90.0, *snap.AngleDeg, 1e-6)
	assert.Equal(t, tr.ID().String(), snap.SessionID)

	resp, err = http.Post(srv.URL+"/api/reset", "application/json", nil)
	require.NoError(t, err)
	snap = getSnapshot(t, resp)
	require.NotNil(t, snap.AngleDeg)
	assert.InDelta(t, 0.0, *snap.AngleDeg, 1e-9)
}

func TestWebNotReady(t *testing.T) {
	tr := tracker.New(orientation.DriftOffset{})
	srv := httptest.NewServer(newWebHandler(tr, 10*time.Millisecond))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/heading")
	require.NoError(t, err)
	snap := getSnapshot(t, resp)
	assert.False(t, snap.Ready)
	assert.Nil(t, snap.AngleDeg)
}

func TestWebMethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(newWebHandler(newReadyTracker(), 10*time.Millisecond))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/reset")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWebSocketStreamAndReset(t *testing.T) {
	tr := newReadyTracker()
	turn(tr, 0, 45)

	srv := httptest.NewServer(newWebHandler(tr, 10*time.Millisecond))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var snap tracker.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	require.NotNil(t, snap.AngleDeg)
	assert.InDelta(t, -45.0, *snap.AngleDeg, 1e-6)

	require.NoError(t, conn.WriteJSON(WSMessage{Action: "reset"}))

	assert.Eventually(t, func() bool {
		var s tracker.Snapshot
		if err := conn.ReadJSON(&s); err != nil || s.AngleDeg == nil {
			return false
		}
		return math.Abs(*s.AngleDeg) < 1e-9
	}, 2*time.Second, time.Millisecond)
}

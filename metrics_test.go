package reflector

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l2reflect/reflect/internal/worker"
)

func TestHeartbeatJSONUsesStableKeys(t *testing.T) {
	snap := worker.Snapshot{
		Received: 100, Reflected: 90, Dropped: 10,
		BytesReceived: 5000, BytesReflected: 4500,
		SigProbeOt: 50, SigDataOt: 30, SigLatency: 10, SigUnknown: 0,
		ErrInvalidMac: 5, ErrTooShort: 5,
		LatencyCount: 10, LatencyMinNs: 1000, LatencyMaxNs: 9000, LatencySumNs: 50000,
	}
	hb := NewHeartbeat(snap, time.Now().Add(-time.Second), worker.Snapshot{}, time.Second)

	b, err := hb.JSON()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))

	packets := m["packets"].(map[string]any)
	assert.Equal(t, float64(100), packets["received"])
	assert.Equal(t, float64(90), packets["reflected"])
	assert.Equal(t, float64(10), packets["dropped"])

	sig := m["signatures"].(map[string]any)
	assert.Equal(t, float64(50), sig["probeot"])

	lat := m["latency"].(map[string]any)
	assert.Equal(t, float64(10), lat["count"])
	assert.Equal(t, float64(5000), lat["avg_ns"])

	perf := m["performance"].(map[string]any)
	assert.Greater(t, perf["pps"], float64(0))
}

func TestHeartbeatCSVRowMatchesFixedColumnOrder(t *testing.T) {
	snap := worker.Snapshot{Received: 10, Reflected: 8, Dropped: 2}
	hb := NewHeartbeat(snap, time.Now().Add(-time.Second), worker.Snapshot{}, time.Second)

	var buf bytes.Buffer
	require.NoError(t, WriteCSVHeader(&buf))
	require.NoError(t, hb.WriteCSVRow(&buf))

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "10", rows[1][0])
	assert.Equal(t, "8", rows[1][1])
	assert.Equal(t, "2", rows[1][2])
}

func TestHeartbeatZeroIntervalYieldsZeroWindowRate(t *testing.T) {
	snap := worker.Snapshot{Reflected: 5}
	hb := NewHeartbeat(snap, time.Now(), worker.Snapshot{}, 0)
	assert.Equal(t, float64(0), hb.PPSWindow)
}

func TestHeartbeatTextIncludesCounters(t *testing.T) {
	snap := worker.Snapshot{Received: 3, Reflected: 2, Dropped: 1}
	hb := NewHeartbeat(snap, time.Now().Add(-time.Second), worker.Snapshot{}, time.Second)
	assert.Contains(t, hb.Text(), "rx=3")
	assert.Contains(t, hb.Text(), "tx=2")
}

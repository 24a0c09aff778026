package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestApplyAddsOnlyTheDelta(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	prev := c.Apply(SnapshotFields{}, SnapshotFields{Received: 10, Reflected: 8})
	assert.Equal(t, float64(10), counterValue(t, c.PacketsReceived))
	assert.Equal(t, float64(8), counterValue(t, c.PacketsReflected))

	c.Apply(prev, SnapshotFields{Received: 25, Reflected: 20})
	assert.Equal(t, float64(25), counterValue(t, c.PacketsReceived))
	assert.Equal(t, float64(20), counterValue(t, c.PacketsReflected))
}

func TestApplySetsRateGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.Apply(SnapshotFields{}, SnapshotFields{PPS: 1_500_000, Mbps: 9600})

	var m dto.Metric
	require.NoError(t, c.PacketsPerSecond.Write(&m))
	assert.Equal(t, float64(1_500_000), m.GetGauge().GetValue())
}

func TestNewServerDefaultsPath(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := NewServer(ServerConfig{Addr: "127.0.0.1:0"}, reg)
	assert.NotNil(t, srv.Handler)
	mux, ok := srv.Handler.(*http.ServeMux)
	require.True(t, ok)
	_, pattern := mux.Handler(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "/metrics", pattern)
}

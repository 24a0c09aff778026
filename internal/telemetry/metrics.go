// Package telemetry exposes reflector statistics as Prometheus metrics,
// gated behind an optional HTTP server — the text/JSON/CSV heartbeat
// remains the default output; this is an additive, opt-in surface for
// scrape-based monitoring.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "l2reflect"

// Collector holds every Prometheus series the reflector publishes. Field
// names mirror the stable stats keys (packets/bytes/signatures/errors/
// latency/performance) so a dashboard built against the JSON heartbeat
// translates directly to PromQL.
type Collector struct {
	PacketsReceived  prometheus.Counter
	PacketsReflected prometheus.Counter
	PacketsDropped   prometheus.Counter

	BytesReceived  prometheus.Counter
	BytesReflected prometheus.Counter

	Signatures *prometheus.CounterVec // label: family = probeot|dataot|latency|unknown
	Errors     *prometheus.CounterVec // label: reason = invalid_mac|invalid_ethertype|...

	LatencyNs prometheus.Histogram

	PacketsPerSecond prometheus.Gauge
	MegabitsPerSec   prometheus.Gauge
}

// NewCollector builds and registers a Collector against reg. If reg is
// nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		PacketsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "packets_received_total",
			Help: "Total frames received across all workers.",
		}),
		PacketsReflected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "packets_reflected_total",
			Help: "Total frames classified, rewritten, and retransmitted.",
		}),
		PacketsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "packets_dropped_total",
			Help: "Total frames rejected by the classifier.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_received_total",
			Help: "Total bytes received across all workers.",
		}),
		BytesReflected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_reflected_total",
			Help: "Total bytes retransmitted across all workers.",
		}),
		Signatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "signatures_total",
			Help: "Accepted frames by signature family.",
		}, []string{"family"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "errors_total",
			Help: "Rejected or failed frames by reason.",
		}, []string{"reason"}),
		LatencyNs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "latency_nanoseconds",
			Help:    "Rx-to-reflect latency, when latency measurement is enabled.",
			Buckets: prometheus.ExponentialBuckets(1000, 4, 12), // 1us .. ~4.2s
		}),
		PacketsPerSecond: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "packets_per_second",
			Help: "Cumulative-average packet rate since start.",
		}),
		MegabitsPerSec: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "megabits_per_second",
			Help: "Cumulative-average bit rate since start.",
		}),
	}

	reg.MustRegister(
		c.PacketsReceived, c.PacketsReflected, c.PacketsDropped,
		c.BytesReceived, c.BytesReflected,
		c.Signatures, c.Errors, c.LatencyNs,
		c.PacketsPerSecond, c.MegabitsPerSec,
	)

	return c
}

// SignatureFamily names accepted by Signatures' "family" label.
const (
	FamilyProbeOt = "probeot"
	FamilyDataOt  = "dataot"
	FamilyLatency = "latency"
	FamilyUnknown = "unknown"
)

// Error reason names accepted by Errors' "reason" label, matching the
// stable JSON/CSV error keys.
const (
	ReasonInvalidMac       = "invalid_mac"
	ReasonInvalidEtherType = "invalid_ethertype"
	ReasonInvalidProtocol  = "invalid_protocol"
	ReasonInvalidSignature = "invalid_signature"
	ReasonTooShort         = "too_short"
	ReasonTxFailed         = "tx_failed"
	ReasonNoMemory         = "no_memory"
)

// SnapshotFields is a cumulative counters snapshot, matching the stable
// stats keys. Prometheus counters only move forward, so Collector.Apply
// takes the previous snapshot and adds only the delta.
type SnapshotFields struct {
	Received, Reflected, Dropped  uint64
	BytesReceived, BytesReflected uint64

	SigProbeOt, SigDataOt, SigLatency, SigUnknown uint64

	ErrMac, ErrEtherType, ErrProtocol, ErrSignature, ErrTooShort, ErrTxFailed, ErrNoMemory uint64

	PPS, Mbps float64
}

// Apply records the delta between prev and cur into c, then returns cur
// so the caller can pass it back in as prev on the next call.
func (c *Collector) Apply(prev, cur SnapshotFields) SnapshotFields {
	c.PacketsReceived.Add(float64(cur.Received - prev.Received))
	c.PacketsReflected.Add(float64(cur.Reflected - prev.Reflected))
	c.PacketsDropped.Add(float64(cur.Dropped - prev.Dropped))
	c.BytesReceived.Add(float64(cur.BytesReceived - prev.BytesReceived))
	c.BytesReflected.Add(float64(cur.BytesReflected - prev.BytesReflected))

	c.Signatures.WithLabelValues(FamilyProbeOt).Add(float64(cur.SigProbeOt - prev.SigProbeOt))
	c.Signatures.WithLabelValues(FamilyDataOt).Add(float64(cur.SigDataOt - prev.SigDataOt))
	c.Signatures.WithLabelValues(FamilyLatency).Add(float64(cur.SigLatency - prev.SigLatency))
	c.Signatures.WithLabelValues(FamilyUnknown).Add(float64(cur.SigUnknown - prev.SigUnknown))

	c.Errors.WithLabelValues(ReasonInvalidMac).Add(float64(cur.ErrMac - prev.ErrMac))
	c.Errors.WithLabelValues(ReasonInvalidEtherType).Add(float64(cur.ErrEtherType - prev.ErrEtherType))
	c.Errors.WithLabelValues(ReasonInvalidProtocol).Add(float64(cur.ErrProtocol - prev.ErrProtocol))
	c.Errors.WithLabelValues(ReasonInvalidSignature).Add(float64(cur.ErrSignature - prev.ErrSignature))
	c.Errors.WithLabelValues(ReasonTooShort).Add(float64(cur.ErrTooShort - prev.ErrTooShort))
	c.Errors.WithLabelValues(ReasonTxFailed).Add(float64(cur.ErrTxFailed - prev.ErrTxFailed))
	c.Errors.WithLabelValues(ReasonNoMemory).Add(float64(cur.ErrNoMemory - prev.ErrNoMemory))

	c.PacketsPerSecond.Set(cur.PPS)
	c.MegabitsPerSec.Set(cur.Mbps)

	return cur
}

package reflector

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/l2reflect/reflect/internal/worker"
)

// Heartbeat is a point-in-time view of the aggregated worker snapshot,
// plus the rate metrics derived from it against a start baseline. Field
// names and, for JSON, tag names follow the stable key set the CLI
// emits — dashboards built against one interval's JSON keep working
// across releases.
type Heartbeat struct {
	Snapshot worker.Snapshot
	Elapsed  time.Duration

	// PPS/Mbps are cumulative averages from a single start baseline, not
	// a sliding window. PPSWindow/MbpsWindow are the additional windowed
	// rate sampled over the most recent stats interval.
	PPS, Mbps             float64
	PPSWindow, MbpsWindow float64
}

// NewHeartbeat computes a Heartbeat from cur (the latest aggregated
// snapshot), start (process start time), prev (the snapshot one interval
// ago, for the windowed rate — zero value on the first call), and the
// wall-clock duration of that interval.
func NewHeartbeat(cur worker.Snapshot, start time.Time, prev worker.Snapshot, interval time.Duration) Heartbeat {
	elapsed := time.Since(start)
	hb := Heartbeat{Snapshot: cur, Elapsed: elapsed}

	if elapsed > 0 {
		secs := elapsed.Seconds()
		hb.PPS = float64(cur.Reflected) / secs
		hb.Mbps = float64(cur.BytesReflected) * 8 / secs / 1_000_000
	}
	if interval > 0 {
		secs := interval.Seconds()
		hb.PPSWindow = float64(cur.Reflected-prev.Reflected) / secs
		hb.MbpsWindow = float64(cur.BytesReflected-prev.BytesReflected) * 8 / secs / 1_000_000
	}
	return hb
}

func avgNs(sumNs, count uint64) uint64 {
	if count == 0 {
		return 0
	}
	return sumNs / count
}

// Text renders the single-line, update-in-place heartbeat format.
func (h Heartbeat) Text() string {
	s := h.Snapshot
	return fmt.Sprintf(
		"\rrx=%d tx=%d drop=%d | probeot=%d dataot=%d latency=%d unknown=%d | pps=%.0f mbps=%.2f",
		s.Received, s.Reflected, s.Dropped,
		s.SigProbeOt, s.SigDataOt, s.SigLatency, s.SigUnknown,
		h.PPS, h.Mbps,
	)
}

// jsonHeartbeat mirrors the stable JSON key layout documented for the
// stats output: packets/bytes/signatures/errors/latency/performance
// blocks, each with fixed field names.
type jsonHeartbeat struct {
	Packets struct {
		Received  uint64 `json:"received"`
		Reflected uint64 `json:"reflected"`
		Dropped   uint64 `json:"dropped"`
	} `json:"packets"`
	Bytes struct {
		Received  uint64 `json:"received"`
		Reflected uint64 `json:"reflected"`
	} `json:"bytes"`
	Signatures struct {
		ProbeOt uint64 `json:"probeot"`
		DataOt  uint64 `json:"dataot"`
		Latency uint64 `json:"latency"`
		Unknown uint64 `json:"unknown"`
	} `json:"signatures"`
	Errors struct {
		InvalidMac       uint64 `json:"invalid_mac"`
		InvalidEtherType uint64 `json:"invalid_ethertype"`
		InvalidProtocol  uint64 `json:"invalid_protocol"`
		InvalidSignature uint64 `json:"invalid_signature"`
		TooShort         uint64 `json:"too_short"`
		TxFailed         uint64 `json:"tx_failed"`
		NoMemory         uint64 `json:"no_memory"`
	} `json:"errors"`
	Latency struct {
		Count  uint64  `json:"count"`
		MinNs  uint64  `json:"min_ns"`
		MaxNs  uint64  `json:"max_ns"`
		AvgNs  uint64  `json:"avg_ns"`
		MinUs  float64 `json:"min_us"`
		MaxUs  float64 `json:"max_us"`
		AvgUs  float64 `json:"avg_us"`
	} `json:"latency"`
	Performance struct {
		PPS       float64 `json:"pps"`
		Mbps      float64 `json:"mbps"`
		PPSWindow float64 `json:"pps_window"`
		MbpsWindow float64 `json:"mbps_window"`
	} `json:"performance"`
}

func (h Heartbeat) toJSON() jsonHeartbeat {
	s := h.Snapshot
	var j jsonHeartbeat
	j.Packets.Received = s.Received
	j.Packets.Reflected = s.Reflected
	j.Packets.Dropped = s.Dropped
	j.Bytes.Received = s.BytesReceived
	j.Bytes.Reflected = s.BytesReflected
	j.Signatures.ProbeOt = s.SigProbeOt
	j.Signatures.DataOt = s.SigDataOt
	j.Signatures.Latency = s.SigLatency
	j.Signatures.Unknown = s.SigUnknown
	j.Errors.InvalidMac = s.ErrInvalidMac
	j.Errors.InvalidEtherType = s.ErrInvalidEtherType
	j.Errors.InvalidProtocol = s.ErrInvalidProtocol
	j.Errors.InvalidSignature = s.ErrInvalidSignature
	j.Errors.TooShort = s.ErrTooShort
	j.Errors.TxFailed = s.ErrTxFailed
	j.Errors.NoMemory = s.ErrNoMemory
	j.Latency.Count = s.LatencyCount
	j.Latency.MinNs = s.LatencyMinNs
	j.Latency.MaxNs = s.LatencyMaxNs
	j.Latency.AvgNs = avgNs(s.LatencySumNs, s.LatencyCount)
	j.Latency.MinUs = float64(s.LatencyMinNs) / 1000
	j.Latency.MaxUs = float64(s.LatencyMaxNs) / 1000
	j.Latency.AvgUs = float64(j.Latency.AvgNs) / 1000
	j.Performance.PPS = h.PPS
	j.Performance.Mbps = h.Mbps
	j.Performance.PPSWindow = h.PPSWindow
	j.Performance.MbpsWindow = h.MbpsWindow
	return j
}

// JSON marshals the heartbeat to its stable-key JSON object.
func (h Heartbeat) JSON() ([]byte, error) {
	return json.Marshal(h.toJSON())
}

// csvHeader is the fixed column order for CSV output.
var csvHeader = []string{
	"pkts_rx", "pkts_tx", "pkts_drop", "bytes_rx", "bytes_tx",
	"sig_probeot", "sig_dataot", "sig_latency", "sig_unknown",
	"err_mac", "err_etype", "err_proto", "err_sig", "err_short", "err_tx", "err_nomem",
	"lat_count", "lat_min_us", "lat_max_us", "lat_avg_us",
	"pps", "mbps",
}

// WriteCSVHeader writes the fixed CSV column header to w.
func WriteCSVHeader(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVRow writes one CSV row for h, in the documented fixed column
// order, to w.
func (h Heartbeat) WriteCSVRow(w io.Writer) error {
	s := h.Snapshot
	avg := float64(avgNs(s.LatencySumNs, s.LatencyCount)) / 1000
	row := []string{
		fmt.Sprint(s.Received), fmt.Sprint(s.Reflected), fmt.Sprint(s.Dropped),
		fmt.Sprint(s.BytesReceived), fmt.Sprint(s.BytesReflected),
		fmt.Sprint(s.SigProbeOt), fmt.Sprint(s.SigDataOt), fmt.Sprint(s.SigLatency), fmt.Sprint(s.SigUnknown),
		fmt.Sprint(s.ErrInvalidMac), fmt.Sprint(s.ErrInvalidEtherType), fmt.Sprint(s.ErrInvalidProtocol),
		fmt.Sprint(s.ErrInvalidSignature), fmt.Sprint(s.ErrTooShort), fmt.Sprint(s.ErrTxFailed), fmt.Sprint(s.ErrNoMemory),
		fmt.Sprint(s.LatencyCount), fmt.Sprintf("%.3f", float64(s.LatencyMinNs)/1000), fmt.Sprintf("%.3f", float64(s.LatencyMaxNs)/1000), fmt.Sprintf("%.3f", avg),
		fmt.Sprintf("%.0f", h.PPS), fmt.Sprintf("%.2f", h.Mbps),
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

package worker

// StatsBatch accumulates one worker iteration's counters on the stack
// before being flushed into the worker's SharedCounters block. Splitting
// the two lets the hot path increment plain local fields instead of
// touching shared, cross-thread-visible memory on every frame.
type StatsBatch struct {
	Received uint64
	Reflected uint64
	Dropped   uint64

	BytesReceived  uint64
	BytesReflected uint64

	SigProbeOt uint64
	SigDataOt  uint64
	SigLatency uint64
	SigUnknown uint64

	ErrInvalidMac       uint64
	ErrInvalidEtherType uint64
	ErrInvalidProtocol  uint64
	ErrInvalidSignature uint64
	ErrTooShort         uint64
	ErrTxFailed         uint64
	ErrNoMemory         uint64

	LatencyCount uint64
	LatencyMinNs uint64
	LatencyMaxNs uint64
	LatencySumNs uint64
}

// addLatencySample folds one Rx-to-now latency sample into the batch.
func (b *StatsBatch) addLatencySample(ns uint64) {
	if b.LatencyCount == 0 || ns < b.LatencyMinNs {
		b.LatencyMinNs = ns
	}
	if ns > b.LatencyMaxNs {
		b.LatencyMaxNs = ns
	}
	b.LatencyCount++
	b.LatencySumNs += ns
}

// SharedCounters is the per-worker block the Controller aggregates from.
// It is written only by the owning worker (plain writes, no atomics) and
// read only by the aggregator (unsynchronized, best-effort) — momentary
// staleness is acceptable, regression is not: every field here is
// monotonically non-decreasing for the lifetime of the worker.
type SharedCounters struct {
	Received uint64
	Reflected uint64
	Dropped   uint64

	BytesReceived  uint64
	BytesReflected uint64

	SigProbeOt uint64
	SigDataOt  uint64
	SigLatency uint64
	SigUnknown uint64

	ErrInvalidMac       uint64
	ErrInvalidEtherType uint64
	ErrInvalidProtocol  uint64
	ErrInvalidSignature uint64
	ErrTooShort         uint64
	ErrTxFailed         uint64
	ErrNoMemory         uint64

	LatencyCount uint64
	LatencyMinNs uint64
	LatencyMaxNs uint64
	LatencySumNs uint64
}

// Flush adds batch's deltas into c and resets batch counters to zero.
// Min/Max are merged rather than summed.
func (c *SharedCounters) Flush(batch *StatsBatch) {
	c.Received += batch.Received
	c.Reflected += batch.Reflected
	c.Dropped += batch.Dropped
	c.BytesReceived += batch.BytesReceived
	c.BytesReflected += batch.BytesReflected

	c.SigProbeOt += batch.SigProbeOt
	c.SigDataOt += batch.SigDataOt
	c.SigLatency += batch.SigLatency
	c.SigUnknown += batch.SigUnknown

	c.ErrInvalidMac += batch.ErrInvalidMac
	c.ErrInvalidEtherType += batch.ErrInvalidEtherType
	c.ErrInvalidProtocol += batch.ErrInvalidProtocol
	c.ErrInvalidSignature += batch.ErrInvalidSignature
	c.ErrTooShort += batch.ErrTooShort
	c.ErrTxFailed += batch.ErrTxFailed
	c.ErrNoMemory += batch.ErrNoMemory

	if batch.LatencyCount > 0 {
		if c.LatencyCount == 0 || batch.LatencyMinNs < c.LatencyMinNs {
			c.LatencyMinNs = batch.LatencyMinNs
		}
		if batch.LatencyMaxNs > c.LatencyMaxNs {
			c.LatencyMaxNs = batch.LatencyMaxNs
		}
		c.LatencyCount += batch.LatencyCount
		c.LatencySumNs += batch.LatencySumNs
	}

	*batch = StatsBatch{}
}

// Snapshot is an immutable copy of SharedCounters taken during aggregation.
type Snapshot = SharedCounters

// Aggregate sums a set of per-worker counter blocks into one snapshot.
// Reads are unsynchronized by design (spec 5): momentarily stale values
// are acceptable, counters never regress.
func Aggregate(workers []*SharedCounters) Snapshot {
	var total Snapshot
	for _, w := range workers {
		if w == nil {
			continue
		}
		total.Received += w.Received
		total.Reflected += w.Reflected
		total.Dropped += w.Dropped
		total.BytesReceived += w.BytesReceived
		total.BytesReflected += w.BytesReflected

		total.SigProbeOt += w.SigProbeOt
		total.SigDataOt += w.SigDataOt
		total.SigLatency += w.SigLatency
		total.SigUnknown += w.SigUnknown

		total.ErrInvalidMac += w.ErrInvalidMac
		total.ErrInvalidEtherType += w.ErrInvalidEtherType
		total.ErrInvalidProtocol += w.ErrInvalidProtocol
		total.ErrInvalidSignature += w.ErrInvalidSignature
		total.ErrTooShort += w.ErrTooShort
		total.ErrTxFailed += w.ErrTxFailed
		total.ErrNoMemory += w.ErrNoMemory

		if w.LatencyCount > 0 {
			if total.LatencyCount == 0 || w.LatencyMinNs < total.LatencyMinNs {
				total.LatencyMinNs = w.LatencyMinNs
			}
			if w.LatencyMaxNs > total.LatencyMaxNs {
				total.LatencyMaxNs = w.LatencyMaxNs
			}
			total.LatencyCount += w.LatencyCount
			total.LatencySumNs += w.LatencySumNs
		}
	}
	return total
}

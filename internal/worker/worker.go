// Package worker runs the per-queue reflect loop: pull a receive batch,
// classify and rewrite each frame, submit the accepted ones for
// transmission, recycle the rest, and periodically fold local counters
// into a shared block the Controller aggregates from.
package worker

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/l2reflect/reflect/internal/classify"
	"github.com/l2reflect/reflect/internal/logging"
	"github.com/l2reflect/reflect/internal/rewrite"
	"github.com/l2reflect/reflect/internal/ring"
)

// Config parameterizes a single worker's behavior. It is copied into the
// Worker at construction time and never mutated afterward.
type Config struct {
	ID     int
	Driver ring.Driver
	Policy classify.Policy
	Mode   rewrite.Mode

	ComputeChecksum bool
	LatencyEnabled  bool

	// CPUID, if >= 0, pins this worker's OS thread to that core. A
	// negative value leaves the thread schedulable freely.
	CPUID int

	BatchSize          int
	StatsFlushInterval int // iterations between counter flushes (K)

	Shared *SharedCounters
	Logger *logging.Logger
}

// Worker owns one Driver and runs its loop on a dedicated, LockOSThread'd
// goroutine until its running flag is cleared.
type Worker struct {
	cfg     Config
	running int32 // atomic; 1 while the loop should keep iterating
	logger  *logging.Logger
}

// New constructs a Worker from cfg. Defaults are filled in for zero-value
// BatchSize/StatsFlushInterval so callers can omit them in tests.
func New(cfg Config) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.StatsFlushInterval <= 0 {
		cfg.StatsFlushInterval = 8
	}
	if cfg.Shared == nil {
		cfg.Shared = &SharedCounters{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.WithWorker(cfg.ID)

	return &Worker{cfg: cfg, running: 1, logger: logger}
}

// Stop clears the running flag; the loop observes it at the top of its
// next iteration (bounded by the driver's poll timeout) and exits after
// one final stats flush.
func (w *Worker) Stop() {
	atomic.StoreInt32(&w.running, 0)
}

// Run pins the calling goroutine's OS thread, applies CPU affinity, and
// executes the reflect loop until Stop is called or ctx is done. It
// returns only after a final statistics flush.
func (w *Worker) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if w.cfg.CPUID >= 0 {
		if err := setAffinity(w.cfg.CPUID); err != nil {
			w.logger.Warn("failed to set CPU affinity", "cpu", w.cfg.CPUID, "error", err)
		} else {
			w.logger.Debug("set CPU affinity", "cpu", w.cfg.CPUID)
		}
	}

	w.logger.Info("worker loop starting", "driver", w.cfg.Driver.Name())

	batch := &StatsBatch{}
	iter := 0
	tx := make([]ring.Descriptor, 0, w.cfg.BatchSize)
	rel := make([]ring.Descriptor, 0, w.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			w.cfg.Shared.Flush(batch)
			w.logger.Info("worker loop stopping (context canceled)")
			return ctx.Err()
		default:
		}

		if atomic.LoadInt32(&w.running) == 0 {
			w.cfg.Shared.Flush(batch)
			w.logger.Info("worker loop stopping")
			return nil
		}

		if err := w.iterate(batch, tx[:0], rel[:0]); err != nil {
			w.cfg.Shared.Flush(batch)
			return err
		}

		iter++
		if iter >= w.cfg.StatsFlushInterval {
			w.cfg.Shared.Flush(batch)
			iter = 0
		}
	}
}

// iterate runs one pass of the reflect loop: recv, classify+rewrite,
// send, release, and an optional latency sample — steps 1-5 of the
// per-iteration procedure. tx/rel are caller-owned scratch slices reset
// to length zero on every call to avoid a per-iteration allocation.
func (w *Worker) iterate(batch *StatsBatch, tx, rel []ring.Descriptor) error {
	descs, err := w.cfg.Driver.Recv(w.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(descs) == 0 {
		return nil // quiet poll, not an error
	}

	now := time.Now()

	for _, d := range descs {
		frame := w.cfg.Driver.Frame(d)
		result := classify.Classify(frame, w.cfg.Policy)

		if !result.Accept {
			batch.Dropped++
			batch.Received++
			batch.BytesReceived += uint64(d.Length)
			countRejectReason(batch, result.Reason)
			rel = append(rel, d)
			continue
		}

		rewrite.Rewrite(frame, result.Layout, w.cfg.Mode, w.cfg.ComputeChecksum)

		batch.Received++
		batch.Reflected++
		batch.BytesReceived += uint64(d.Length)
		batch.BytesReflected += uint64(d.Length)
		countSignature(batch, result.Sig)

		if w.cfg.LatencyEnabled && d.RxTimestampNs != 0 {
			elapsed := now.UnixNano() - d.RxTimestampNs
			if elapsed > 0 {
				batch.addLatencySample(uint64(elapsed))
			}
		}

		tx = append(tx, d)
	}

	sent, err := w.cfg.Driver.Send(tx)
	if err != nil {
		return err
	}
	if sent < len(tx) {
		failed := tx[sent:]
		batch.ErrTxFailed += uint64(len(failed))
		rel = append(rel, failed...)
	}

	if len(rel) > 0 {
		if err := w.cfg.Driver.Release(rel); err != nil {
			return err
		}
	}

	return nil
}

func countRejectReason(batch *StatsBatch, reason classify.RejectReason) {
	switch reason {
	case classify.ReasonTooShort:
		batch.ErrTooShort++
	case classify.ReasonBadMac:
		batch.ErrInvalidMac++
	case classify.ReasonBadEtherType:
		batch.ErrInvalidEtherType++
	case classify.ReasonBadProtocol:
		batch.ErrInvalidProtocol++
	case classify.ReasonBadSignature:
		batch.ErrInvalidSignature++
	}
}

func countSignature(batch *StatsBatch, sig classify.SignatureTag) {
	switch sig {
	case classify.SigProbeOt:
		batch.SigProbeOt++
	case classify.SigDataOt:
		batch.SigDataOt++
	case classify.SigLatency:
		batch.SigLatency++
	default:
		batch.SigUnknown++
	}
}

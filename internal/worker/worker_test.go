package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l2reflect/reflect/internal/classify"
	"github.com/l2reflect/reflect/internal/rewrite"
	"github.com/l2reflect/reflect/internal/ring"
)

// mockDriver is a minimal in-memory ring.Driver used to drive the worker
// loop under test without any real socket or mmap'd ring.
type mockDriver struct {
	frames    [][]byte
	recvCalls int
	sendLimit int // max descriptors Send accepts per call; 0 = no limit

	sent     []ring.Descriptor
	released []ring.Descriptor
	polls    int
	closed   bool
}

func (m *mockDriver) Recv(max int) ([]ring.Descriptor, error) {
	m.recvCalls++
	if len(m.frames) == 0 {
		return nil, nil
	}
	n := len(m.frames)
	if n > max {
		n = max
	}
	descs := make([]ring.Descriptor, n)
	for i := 0; i < n; i++ {
		descs[i] = ring.Descriptor{Offset: uint64(i), Length: uint32(len(m.frames[i]))}
	}
	return descs, nil
}

func (m *mockDriver) Send(descs []ring.Descriptor) (int, error) {
	n := len(descs)
	if m.sendLimit > 0 && n > m.sendLimit {
		n = m.sendLimit
	}
	m.sent = append(m.sent, descs[:n]...)
	return n, nil
}

func (m *mockDriver) Release(descs []ring.Descriptor) error {
	m.released = append(m.released, descs...)
	return nil
}

func (m *mockDriver) PollCompletions() error { m.polls++; return nil }

func (m *mockDriver) Frame(d ring.Descriptor) []byte { return m.frames[d.Offset] }

func (m *mockDriver) Name() string { return "mock" }

func (m *mockDriver) Close() error { m.closed = true; return nil }

var _ ring.Driver = (*mockDriver)(nil)

func probeOtFrame() []byte {
	return []byte{
		0x00, 0x01, 0x55, 0x17, 0x1E, 0x1B,
		0x00, 0xC0, 0x17, 0x54, 0x05, 0x98,
		0x08, 0x00,
		0x45, 0x00, 0x00, 0x27, 0x00, 0x00, 0x40, 0x00, 0x40, 0x11, 0x00, 0x00,
		0xC0, 0xA8, 0x00, 0x0A,
		0xC0, 0xA8, 0x00, 0x01,
		0x0F, 0x02, 0x0F, 0x02, 0x00, 0x13, 0x00, 0x00,
		0x09, 0x10, 0xEA, 0x1D, 0x00,
		'P', 'R', 'O', 'B', 'E', 'O', 'T',
	}
}

func basePolicy() classify.Policy {
	oui := [3]byte{0x00, 0xC0, 0x17}
	return classify.Policy{
		LocalMAC:  [6]byte{0x00, 0x01, 0x55, 0x17, 0x1E, 0x1B},
		OUIFilter: &oui,
		UDPPort:   3842,
		SigMode:   classify.SigAll,
		AllowVLAN: false,
	}
}

func newTestWorker(driver *mockDriver) *Worker {
	return New(Config{
		ID:      0,
		Driver:  driver,
		Policy:  basePolicy(),
		Mode:    rewrite.ModeAll,
		CPUID:   -1,
		Shared:  &SharedCounters{},
	})
}

func TestWorkerIterateAcceptsAndReflects(t *testing.T) {
	driver := &mockDriver{frames: [][]byte{probeOtFrame()}}
	w := newTestWorker(driver)

	batch := &StatsBatch{}
	require.NoError(t, w.iterate(batch, nil, nil))

	assert.Equal(t, uint64(1), batch.Received)
	assert.Equal(t, uint64(1), batch.Reflected)
	assert.Equal(t, uint64(1), batch.SigProbeOt)
	assert.Len(t, driver.sent, 1)
	assert.Empty(t, driver.released)
}

func TestWorkerIterateRejectsAndReleases(t *testing.T) {
	frame := probeOtFrame()
	frame[0] = 0xFF // break the destination MAC match
	driver := &mockDriver{frames: [][]byte{frame}}
	w := newTestWorker(driver)

	batch := &StatsBatch{}
	require.NoError(t, w.iterate(batch, nil, nil))

	assert.Equal(t, uint64(1), batch.Received)
	assert.Equal(t, uint64(1), batch.Dropped)
	assert.Equal(t, uint64(1), batch.ErrInvalidMac)
	assert.Empty(t, driver.sent)
	assert.Len(t, driver.released, 1)
}

func TestWorkerIterateChargesPartialSendAsTxFailed(t *testing.T) {
	driver := &mockDriver{
		frames:    [][]byte{probeOtFrame(), probeOtFrame()},
		sendLimit: 1,
	}
	w := newTestWorker(driver)

	batch := &StatsBatch{}
	require.NoError(t, w.iterate(batch, nil, nil))

	assert.Equal(t, uint64(2), batch.Reflected)
	assert.Equal(t, uint64(1), batch.ErrTxFailed)
	assert.Len(t, driver.sent, 1)
	assert.Len(t, driver.released, 1)
}

func TestWorkerIterateQuietPollIsNotAnError(t *testing.T) {
	driver := &mockDriver{}
	w := newTestWorker(driver)

	batch := &StatsBatch{}
	require.NoError(t, w.iterate(batch, nil, nil))
	assert.Equal(t, uint64(0), batch.Received)
}

func TestWorkerRunStopsCleanly(t *testing.T) {
	driver := &mockDriver{frames: [][]byte{probeOtFrame()}}
	w := newTestWorker(driver)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	w.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop within timeout")
	}

	assert.NotEmpty(t, driver.sent, "at least one frame should have been sent before stop")
}

func TestWorkerRunRespectsContextCancellation(t *testing.T) {
	driver := &mockDriver{frames: [][]byte{probeOtFrame()}}
	w := newTestWorker(driver)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop within timeout")
	}
}

func TestSharedCountersFlushResetsBatch(t *testing.T) {
	shared := &SharedCounters{}
	batch := &StatsBatch{Received: 5, Reflected: 3}
	shared.Flush(batch)

	assert.Equal(t, uint64(5), shared.Received)
	assert.Equal(t, uint64(0), batch.Received, "flush must reset the batch")
}

func TestAggregateSumsAcrossWorkers(t *testing.T) {
	a := &SharedCounters{Received: 10, ErrTooShort: 2}
	b := &SharedCounters{Received: 20, ErrTooShort: 1}

	total := Aggregate([]*SharedCounters{a, b, nil})
	assert.Equal(t, uint64(30), total.Received)
	assert.Equal(t, uint64(3), total.ErrTooShort)
}

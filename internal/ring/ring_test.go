package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramePoolCheckoutCheckin(t *testing.T) {
	pool := NewFramePool(64, 4)
	require.Equal(t, 0, pool.OutstandingCount())

	off := pool.offsetOf(2)
	require.NoError(t, pool.Checkout(off))
	assert.Equal(t, 1, pool.OutstandingCount())

	require.Error(t, pool.Checkout(off), "double checkout must be rejected")

	require.NoError(t, pool.Checkin(off))
	assert.Equal(t, 0, pool.OutstandingCount())

	require.Error(t, pool.Checkin(off), "checkin without a matching checkout must be rejected")
}

func TestFramePoolFrameBounds(t *testing.T) {
	pool := NewFramePool(128, 8)
	assert.Equal(t, 128, pool.FrameSize())
	assert.Equal(t, 8, pool.FrameCount())

	for i := 0; i < pool.FrameCount(); i++ {
		frame := pool.Frame(pool.offsetOf(i))
		assert.Len(t, frame, 128)
	}
}

func TestFramePoolConservesAcrossRecvReleaseCycle(t *testing.T) {
	pool := NewFramePool(64, 16)
	driver := newFakeDriver(pool)

	descs, err := driver.Recv(4)
	require.NoError(t, err)
	require.Len(t, descs, 4)

	for _, d := range descs {
		require.NoError(t, pool.Checkout(d.Offset))
	}
	assert.Equal(t, 4, pool.OutstandingCount())

	require.NoError(t, driver.Release(descs))
	for _, d := range descs {
		require.NoError(t, pool.Checkin(d.Offset))
	}
	assert.Equal(t, 0, pool.OutstandingCount())
	assert.Equal(t, 4, len(driver.filled), "released descriptors must return to the fake Fill queue")
}

func TestFramePoolQuietPollReturnsNoDescriptors(t *testing.T) {
	pool := NewFramePool(64, 4)
	driver := newFakeDriver(pool)
	driver.available = 0

	descs, err := driver.Recv(4)
	require.NoError(t, err)
	assert.Empty(t, descs, "an empty, nil-error Recv result is a quiet poll, not an error")
}

// fakeDriver is a minimal in-memory Driver used only to exercise the pool
// conservation invariant without a real AF_XDP or AF_PACKET socket.
type fakeDriver struct {
	pool      *FramePool
	available int
	next      int
	filled    []uint64
}

func newFakeDriver(pool *FramePool) *fakeDriver {
	return &fakeDriver{pool: pool, available: pool.FrameCount()}
}

func (f *fakeDriver) Recv(max int) ([]Descriptor, error) {
	n := f.available
	if n > max {
		n = max
	}
	descs := make([]Descriptor, 0, n)
	for i := 0; i < n; i++ {
		descs = append(descs, Descriptor{Offset: f.pool.offsetOf(f.next), Length: uint32(f.pool.FrameSize())})
		f.next++
		f.available--
	}
	return descs, nil
}

func (f *fakeDriver) Send(descs []Descriptor) (int, error) { return len(descs), nil }

func (f *fakeDriver) Release(descs []Descriptor) error {
	for _, d := range descs {
		f.filled = append(f.filled, d.Offset)
	}
	return nil
}

func (f *fakeDriver) PollCompletions() error { return nil }

func (f *fakeDriver) Frame(d Descriptor) []byte { return f.pool.Frame(d.Offset)[:d.Length] }

func (f *fakeDriver) Name() string { return "fake" }

func (f *fakeDriver) Close() error { return nil }

var _ Driver = (*fakeDriver)(nil)

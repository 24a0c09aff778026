package reflector

import (
	"sync"

	"github.com/l2reflect/reflect/internal/ring"
)

// MockDriver is a ring.Driver implementation for tests that exercise the
// Controller without a real NIC. It serves frames from a fixed queue of
// descriptors on each Recv call and tracks every method invocation for
// assertions.
type MockDriver struct {
	mu sync.Mutex

	pool   *ring.FramePool
	queued []ring.Descriptor

	name      string
	sendLimit int // max descriptors accepted per Send call; 0 = unlimited

	recvCalls  int
	sent       []ring.Descriptor
	released   []ring.Descriptor
	pollCalls  int
	closed     bool
	closeErr   error
	recvErr    error
}

// NewMockDriver builds a MockDriver backed by pool, serving frame bytes
// copied into the pool under the given descriptors when Queue is called.
func NewMockDriver(pool *ring.FramePool, name string) *MockDriver {
	return &MockDriver{pool: pool, name: name}
}

// Queue appends frame to the descriptors the next Recv calls will return,
// copying it into the pool slot just past the descriptors still queued
// (slot len(queued)); slots already handed out by Recv may be reused.
func (m *MockDriver) Queue(frame []byte) ring.Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()

	offset := uint64(len(m.queued)) * uint64(m.pool.FrameSize())
	copy(m.pool.Frame(offset), frame)
	d := ring.Descriptor{Offset: offset, Length: uint32(len(frame))}
	m.queued = append(m.queued, d)
	return d
}

// SetSendLimit caps how many descriptors a single Send call accepts,
// simulating TX backpressure.
func (m *MockDriver) SetSendLimit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendLimit = n
}

// SetRecvErr makes the next Recv call return err.
func (m *MockDriver) SetRecvErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recvErr = err
}

func (m *MockDriver) Recv(max int) ([]ring.Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recvCalls++
	if m.recvErr != nil {
		err := m.recvErr
		m.recvErr = nil
		return nil, err
	}

	if len(m.queued) == 0 {
		return nil, nil
	}
	n := max
	if n > len(m.queued) {
		n = len(m.queued)
	}
	out := m.queued[:n]
	m.queued = m.queued[n:]
	return out, nil
}

func (m *MockDriver) Send(descs []ring.Descriptor) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(descs)
	if m.sendLimit > 0 && n > m.sendLimit {
		n = m.sendLimit
	}
	m.sent = append(m.sent, descs[:n]...)
	return n, nil
}

func (m *MockDriver) Release(descs []ring.Descriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, descs...)
	return nil
}

func (m *MockDriver) PollCompletions() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollCalls++
	return nil
}

func (m *MockDriver) Frame(d ring.Descriptor) []byte {
	return m.pool.Frame(d.Offset)[:d.Length]
}

func (m *MockDriver) Name() string { return m.name }

func (m *MockDriver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.closeErr
}

// Sent returns every descriptor ever accepted by Send.
func (m *MockDriver) Sent() []ring.Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ring.Descriptor(nil), m.sent...)
}

// Released returns every descriptor ever returned via Release.
func (m *MockDriver) Released() []ring.Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ring.Descriptor(nil), m.released...)
}

// Closed reports whether Close has been called.
func (m *MockDriver) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ ring.Driver = (*MockDriver)(nil)

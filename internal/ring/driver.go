// Package ring defines the Frame Ring Abstraction: the Driver contract a
// Worker pulls frames through, and the two implementations behind it — a
// zero-copy AF_XDP driver (internal/ring/xdpdriver_linux.go) and a
// copying AF_PACKET fallback (internal/ring/copydriver_linux.go).
package ring

import "time"

// Descriptor identifies a frame by its byte offset into the pool, its
// valid length, and — when latency measurement is enabled — the
// nanosecond Rx timestamp the driver attached to it.
type Descriptor struct {
	Offset        uint64
	Length        uint32
	RxTimestampNs int64 // 0 when no timestamp was captured
}

// Driver is the four-operation capability record every ring implementation
// satisfies: recv, send, release, poll_completions. There is no
// inheritance here, just a small interface value the Controller picks at
// driver-selection time.
type Driver interface {
	// Recv returns up to max descriptors borrowed from the pool. Frame
	// bytes behind a returned descriptor stay valid until the next Recv
	// or until the descriptor is passed to Send/Release.
	Recv(max int) ([]Descriptor, error)

	// Send submits descs for transmission and returns how many were
	// actually accepted; the caller must Release the remainder.
	Send(descs []Descriptor) (sent int, err error)

	// Release returns descriptors to the pool without transmitting them.
	Release(descs []Descriptor) error

	// PollCompletions moves frames the NIC has finished transmitting back
	// onto the Fill queue. It is idempotent and must be cheap to call on
	// every iteration.
	PollCompletions() error

	// Frame returns the mutable byte slice backing a descriptor, valid
	// under the same rules as Recv's return value.
	Frame(d Descriptor) []byte

	// Name identifies the driver for logging ("xdp-zerocopy", "af-packet").
	Name() string

	Close() error
}

// PollTimeout bounds how long Recv may block waiting for frames before
// returning zero descriptors and a nil error (a quiet poll, not a failure).
const PollTimeout = 100 * time.Millisecond

// A poll timeout is represented as a zero-length, nil-error return from
// Recv rather than a distinguished error value: it is routine, not
// exceptional, and callers must count it as a quiet poll, never log it as
// an error.

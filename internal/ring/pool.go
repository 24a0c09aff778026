package ring

import (
	"fmt"
	"sync"
)

// FramePool is a contiguous region of frameCount*frameSize bytes shared
// between the driver and a single worker. Pool offsets never alias: at
// any instant, each offset is owned by exactly one of Fill, Rx, the user
// worker, Tx, or Completion.
type FramePool struct {
	mem        []byte
	frameSize  int
	frameCount int

	mu    sync.Mutex
	owned map[uint64]bool // true while the offset is checked out to the user
}

// NewFramePool allocates frameCount frames of frameSize bytes each. Real
// zero-copy drivers back this with huge-page-backed, kernel-registered
// memory; the plain byte slice here is what the copying driver and all
// unit tests use.
func NewFramePool(frameSize, frameCount int) *FramePool {
	return &FramePool{
		mem:        make([]byte, frameSize*frameCount),
		frameSize:  frameSize,
		frameCount: frameCount,
		owned:      make(map[uint64]bool, frameCount),
	}
}

func (p *FramePool) FrameSize() int  { return p.frameSize }
func (p *FramePool) FrameCount() int { return p.frameCount }

// Frame returns the byte slice for the frame at offset.
func (p *FramePool) Frame(offset uint64) []byte {
	start := int(offset)
	return p.mem[start : start+p.frameSize]
}

// offsetOf returns the pool offset of the i'th frame.
func (p *FramePool) offsetOf(i int) uint64 {
	return uint64(i * p.frameSize)
}

// Checkout marks offset as held by the user worker. Used by tests and by
// driver implementations to maintain the conservation invariant outside
// of the kernel-owned rings.
func (p *FramePool) Checkout(offset uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owned[offset] {
		return fmt.Errorf("ring: offset %d already checked out", offset)
	}
	p.owned[offset] = true
	return nil
}

// Checkin releases offset back to the pool (no longer held by the user).
func (p *FramePool) Checkin(offset uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.owned[offset] {
		return fmt.Errorf("ring: offset %d was not checked out", offset)
	}
	delete(p.owned, offset)
	return nil
}

// OutstandingCount returns how many offsets are currently checked out to
// the user worker — used by tests to assert the pool drains to zero.
func (p *FramePool) OutstandingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.owned)
}

//go:build linux

package ring

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// CopyDriver is the portable fallback when zero-copy AF_XDP support is
// unavailable (no driver-mode support, no CAP_NET_RAW for mmap'd rings,
// or a non-NIC interface such as a veth in a test namespace). It moves
// frames through a single reusable buffer via ordinary read/write
// syscalls on an AF_PACKET/SOCK_RAW socket, trading zero-copy throughput
// for working everywhere.
type CopyDriver struct {
	fd      int
	ifindex int
	pool    *FramePool
	buf     []byte
}

// NewCopyDriver opens a raw AF_PACKET socket bound to ifindex and carrying
// every ethertype, with a receive timeout matching PollTimeout so Recv can
// return a quiet, countable poll instead of blocking forever.
func NewCopyDriver(ifindex int, pool *FramePool) (*CopyDriver, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, fmt.Errorf("af-packet: socket: %w", err)
	}

	sa := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  ifindex,
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("af-packet: bind: %w", err)
	}

	tv := unix.NsecToTimeval(PollTimeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("af-packet: SO_RCVTIMEO: %w", err)
	}

	return &CopyDriver{
		fd:      fd,
		ifindex: ifindex,
		pool:    pool,
		buf:     make([]byte, pool.FrameSize()),
	}, nil
}

func htons(v uint16) uint16 {
	return (v << 8) | (v >> 8)
}

// Recv implements Driver. It copies at most one frame per call into the
// driver's reusable buffer; the returned descriptor's bytes are valid
// only until the next Recv call, which this driver documents by handing
// out offset 0 every time rather than rotating through the pool.
func (d *CopyDriver) Recv(max int) ([]Descriptor, error) {
	if max <= 0 {
		return nil, nil
	}

	n, _, err := unix.Recvfrom(d.fd, d.buf, 0)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, nil
		}
		return nil, fmt.Errorf("af-packet: recvfrom: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	copy(d.pool.Frame(0), d.buf[:n])
	return []Descriptor{{Offset: 0, Length: uint32(n)}}, nil
}

// Send implements Driver: each descriptor's frame bytes go out via a
// plain write(2) on the bound socket.
func (d *CopyDriver) Send(descs []Descriptor) (int, error) {
	sent := 0
	for _, desc := range descs {
		frame := d.pool.Frame(desc.Offset)[:desc.Length]
		if _, err := syscall.Write(d.fd, frame); err != nil {
			return sent, fmt.Errorf("af-packet: write: %w", err)
		}
		sent++
	}
	return sent, nil
}

// Release implements Driver. There is no Fill queue to hand frames back
// to: the single shared buffer is simply overwritten on the next Recv.
func (d *CopyDriver) Release(descs []Descriptor) error { return nil }

// PollCompletions implements Driver. Writes above are synchronous, so
// there is no completion queue to drain.
func (d *CopyDriver) PollCompletions() error { return nil }

// Frame implements Driver.
func (d *CopyDriver) Frame(desc Descriptor) []byte {
	return d.pool.Frame(desc.Offset)[:desc.Length]
}

// Name implements Driver.
func (d *CopyDriver) Name() string { return "af-packet" }

// Close implements Driver.
func (d *CopyDriver) Close() error {
	return unix.Close(d.fd)
}

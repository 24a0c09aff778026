//go:build linux

package ring

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/l2reflect/reflect/internal/logging"
	"github.com/l2reflect/reflect/internal/xdpuapi"
)

// xdpRing is one memory-mapped AF_XDP ring: producer/consumer cursors and
// a descriptor array, all addressed by raw offsets returned from the
// kernel's XdpMmapOffsets getsockopt.
type xdpRing struct {
	mem     []byte
	addr    unsafe.Pointer
	off     xdpuapi.RingOffset
	entries uint32
	mask    uint32
}

func (r *xdpRing) producer() *uint32 { return (*uint32)(unsafe.Add(r.addr, uintptr(r.off.Producer))) }
func (r *xdpRing) consumer() *uint32 { return (*uint32)(unsafe.Add(r.addr, uintptr(r.off.Consumer))) }
func (r *xdpRing) flags() *uint32    { return (*uint32)(unsafe.Add(r.addr, uintptr(r.off.Flags))) }

// descSlot addresses an xdp_desc ring element (Rx/Tx rings).
func (r *xdpRing) descSlot(i uint32) *xdpuapi.Desc {
	idx := uintptr(i & r.mask)
	return (*xdpuapi.Desc)(unsafe.Add(r.addr, uintptr(r.off.Desc)+idx*unsafe.Sizeof(xdpuapi.Desc{})))
}

// u64Slot addresses a bare frame-address ring element (Fill/Completion
// rings, which carry only UMEM offsets, not full descriptors).
func (r *xdpRing) u64Slot(i uint32) *uint64 {
	idx := uintptr(i & r.mask)
	return (*uint64)(unsafe.Add(r.addr, uintptr(r.off.Desc)+idx*8))
}

// XDPDriver is the zero-copy ring driver: one UMEM-backed AF_XDP socket
// bound to (interface, queue_id) with its four rings memory-mapped
// directly over raw syscalls. The ring index arithmetic here is
// hand-rolled: local syscall numbers, manually laid out kernel structs
// (internal/xdpuapi), and unsafe pointer arithmetic over an mmap'd region
// instead of a CGO or generated binding.
type XDPDriver struct {
	fd   int
	pool *FramePool

	rx, tx, fill, cr xdpRing

	mu     sync.Mutex
	logger *logging.Logger
}

// NewXDPDriver opens an AF_XDP socket on ifindex/queueID, registers pool
// as its UMEM, sizes and maps the four rings, binds, and primes the Fill
// queue with half the pool.
func NewXDPDriver(ifindex int, queueID uint32, pool *FramePool, logger *logging.Logger) (*XDPDriver, error) {
	if pool.frameCount&(pool.frameCount-1) != 0 {
		return nil, fmt.Errorf("xdp: frame count %d must be a power of two", pool.frameCount)
	}

	fd, _, errno := syscall.Syscall(unix.SYS_SOCKET, uintptr(xdpuapi.AFXdp), uintptr(unix.SOCK_RAW), 0)
	if errno != 0 {
		return nil, fmt.Errorf("xdp: socket: %w", errno)
	}

	d := &XDPDriver{fd: int(fd), pool: pool, logger: logger}

	umem := xdpuapi.UmemReg{
		Addr:      uint64(uintptr(unsafe.Pointer(&pool.mem[0]))),
		Len:       uint64(len(pool.mem)),
		ChunkSize: uint32(pool.frameSize),
	}
	if err := d.setsockopt(xdpuapi.XdpUmemReg, xdpuapi.MarshalUmemReg(umem)); err != nil {
		d.closeFd()
		return nil, fmt.Errorf("xdp: umem reg: %w", err)
	}

	ringEntries := uint32(pool.frameCount)
	req := xdpuapi.MarshalRingReq(xdpuapi.RingReq{Entries: ringEntries})
	for _, opt := range []int{
		xdpuapi.XdpUmemFillRing,
		xdpuapi.XdpUmemCompletionRing,
		xdpuapi.XdpRxRing,
		xdpuapi.XdpTxRing,
	} {
		if err := d.setsockopt(opt, req); err != nil {
			d.closeFd()
			return nil, fmt.Errorf("xdp: ring size (opt %d): %w", opt, err)
		}
	}

	offsets, err := d.mmapOffsets()
	if err != nil {
		d.closeFd()
		return nil, fmt.Errorf("xdp: getting mmap offsets: %w", err)
	}

	if err := d.mmapRings(offsets, ringEntries); err != nil {
		d.closeFd()
		return nil, err
	}

	if err := d.bind(ifindex, queueID); err != nil {
		d.unmapAll()
		d.closeFd()
		return nil, fmt.Errorf("xdp: bind: %w", err)
	}

	d.primeFill()
	return d, nil
}

func (d *XDPDriver) setsockopt(opt int, val []byte) error {
	_, _, errno := syscall.Syscall6(unix.SYS_SETSOCKOPT,
		uintptr(d.fd), uintptr(xdpuapi.SolXdp), uintptr(opt),
		uintptr(unsafe.Pointer(&val[0])), uintptr(len(val)), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func (d *XDPDriver) mmapOffsets() (xdpuapi.MmapOffsets, error) {
	buf := make([]byte, 128)
	length := uint32(len(buf))
	_, _, errno := syscall.Syscall6(unix.SYS_GETSOCKOPT,
		uintptr(d.fd), uintptr(xdpuapi.SolXdp), uintptr(xdpuapi.XdpMmapOffsets),
		uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&length)), 0)
	if errno != 0 {
		return xdpuapi.MmapOffsets{}, errno
	}
	return xdpuapi.UnmarshalMmapOffsets(buf[:length]), nil
}

func (d *XDPDriver) mmapRings(off xdpuapi.MmapOffsets, entries uint32) error {
	mk := func(pgoff int64, ro xdpuapi.RingOffset, elemSize int) (xdpRing, error) {
		size := int(ro.Desc) + int(entries)*elemSize
		mem, err := unix.Mmap(d.fd, pgoff, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return xdpRing{}, err
		}
		return xdpRing{mem: mem, addr: unsafe.Pointer(&mem[0]), off: ro, entries: entries, mask: entries - 1}, nil
	}

	var err error
	if d.fill, err = mk(xdpuapi.XdpPgoffUmemPgoffFillRing, off.Fill, 8); err != nil {
		return fmt.Errorf("xdp: mmap fill ring: %w", err)
	}
	if d.cr, err = mk(xdpuapi.XdpPgoffUmemPgoffCompletionRing, off.Cr, 8); err != nil {
		return fmt.Errorf("xdp: mmap completion ring: %w", err)
	}
	if d.rx, err = mk(xdpuapi.XdpPgoffRxRing, off.Rx, int(unsafe.Sizeof(xdpuapi.Desc{}))); err != nil {
		return fmt.Errorf("xdp: mmap rx ring: %w", err)
	}
	if d.tx, err = mk(xdpuapi.XdpPgoffTxRing, off.Tx, int(unsafe.Sizeof(xdpuapi.Desc{}))); err != nil {
		return fmt.Errorf("xdp: mmap tx ring: %w", err)
	}
	return nil
}

func (d *XDPDriver) unmapAll() {
	for _, r := range []*xdpRing{&d.fill, &d.cr, &d.rx, &d.tx} {
		if r.mem != nil {
			_ = unix.Munmap(r.mem)
		}
	}
}

func (d *XDPDriver) closeFd() {
	_ = syscall.Close(d.fd)
}

func (d *XDPDriver) bind(ifindex int, queueID uint32) error {
	addr := xdpuapi.MarshalSockaddrXdp(xdpuapi.SockaddrXdp{
		Family:  xdpuapi.AFXdp,
		Flags:   xdpuapi.XdpUseNeedWakeup,
		IfIndex: uint32(ifindex),
		QueueID: queueID,
	})
	_, _, errno := syscall.Syscall(unix.SYS_BIND, uintptr(d.fd),
		uintptr(unsafe.Pointer(&addr[0])), uintptr(len(addr)))
	if errno != 0 {
		return errno
	}
	return nil
}

// primeFill hands the kernel the first half of the pool so Rx has
// somewhere to land incoming frames before the worker loop starts.
func (d *XDPDriver) primeFill() {
	d.mu.Lock()
	defer d.mu.Unlock()

	half := d.pool.frameCount / 2
	prod := *d.fill.producer()
	for i := 0; i < half; i++ {
		*d.fill.u64Slot(prod + uint32(i)) = d.pool.offsetOf(i)
	}
	*d.fill.producer() = prod + uint32(half)
}

// Recv implements Driver.
func (d *XDPDriver) Recv(max int) ([]Descriptor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prod := *d.rx.producer()
	cons := *d.rx.consumer()
	avail := prod - cons
	if avail == 0 {
		return nil, nil
	}
	if int(avail) > max {
		avail = uint32(max)
	}

	descs := make([]Descriptor, avail)
	for i := uint32(0); i < avail; i++ {
		slot := d.rx.descSlot(cons + i)
		descs[i] = Descriptor{Offset: slot.Addr, Length: slot.Len}
	}
	*d.rx.consumer() = cons + avail
	return descs, nil
}

// Send implements Driver. poll_completions runs first, per the pool
// conservation discipline: never reserve Tx space without having just
// drained whatever the kernel finished transmitting.
func (d *XDPDriver) Send(descs []Descriptor) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.pollCompletionsLocked(); err != nil {
		return 0, err
	}

	prod := *d.tx.producer()
	cons := *d.tx.consumer()
	free := d.tx.entries - (prod - cons)
	n := len(descs)
	if uint32(n) > free {
		n = int(free)
	}
	for i := 0; i < n; i++ {
		slot := d.tx.descSlot(prod + uint32(i))
		slot.Addr = descs[i].Offset
		slot.Len = descs[i].Length
		slot.Options = 0
	}
	*d.tx.producer() = prod + uint32(n)

	if (*d.tx.flags() & xdpuapi.RingFlagNeedWakeup) != 0 {
		d.kick()
	}
	return n, nil
}

// kick performs the zero-length send the "need wake" advisory asks for,
// nudging the kernel to drain the Tx ring.
func (d *XDPDriver) kick() {
	_ = unix.Sendto(d.fd, nil, unix.MSG_DONTWAIT, nil)
}

// Release implements Driver: descriptors that were received but never
// submitted for Tx go straight back to Fill.
func (d *XDPDriver) Release(descs []Descriptor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fillLocked(descsToOffsets(descs))
}

func descsToOffsets(descs []Descriptor) []uint64 {
	offsets := make([]uint64, len(descs))
	for i, d := range descs {
		offsets[i] = d.Offset
	}
	return offsets
}

func (d *XDPDriver) fillLocked(offsets []uint64) error {
	prod := *d.fill.producer()
	free := d.fill.entries - (prod - *d.fill.consumer())
	n := len(offsets)
	if uint32(n) > free {
		// The Fill ring has fewer free slots than offsets: only the first
		// free offsets are enqueued, and the rest are not kept by the
		// driver. The ring depth equals the pool's frame count, so this
		// does not happen while every offset is owned exactly once.
		n = int(free)
	}
	for i := 0; i < n; i++ {
		*d.fill.u64Slot(prod + uint32(i)) = offsets[i]
	}
	*d.fill.producer() = prod + uint32(n)
	return nil
}

// PollCompletions implements Driver: frames the NIC has finished
// transmitting move from Completion back to Fill. A just-submitted Tx
// batch is recovered here, not via a direct Release call — the batch is
// known to be in flight.
func (d *XDPDriver) PollCompletions() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pollCompletionsLocked()
}

func (d *XDPDriver) pollCompletionsLocked() error {
	prod := *d.cr.producer()
	cons := *d.cr.consumer()
	avail := prod - cons
	if avail == 0 {
		return nil
	}
	offsets := make([]uint64, avail)
	for i := uint32(0); i < avail; i++ {
		offsets[i] = *d.cr.u64Slot(cons + i)
	}
	*d.cr.consumer() = cons + avail
	return d.fillLocked(offsets)
}

// Frame implements Driver.
func (d *XDPDriver) Frame(desc Descriptor) []byte {
	return d.pool.Frame(desc.Offset)[:desc.Length]
}

// Name implements Driver.
func (d *XDPDriver) Name() string { return "xdp-zerocopy" }

// SocketFD exposes the underlying AF_XDP socket descriptor so an eBPF
// preselector can insert it into an XSKMAP. It is not part of the Driver
// interface: only the zero-copy driver has a socket worth redirecting to.
func (d *XDPDriver) SocketFD() int { return d.fd }

// Close implements Driver.
func (d *XDPDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unmapAll()
	return syscall.Close(d.fd)
}

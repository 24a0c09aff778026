// Package xdpuapi provides the Linux AF_XDP UAPI definitions the ring
// driver needs: socket family/protocol numbers, sockopt names, ring
// descriptor and offset layouts, defined here by hand directly from
// linux/if_xdp.h.
package xdpuapi

// Socket family / protocol. AF_XDP is not exposed by golang.org/x/sys/unix
// as a named constant on all supported kernel/arch combinations, so it is
// defined here from the kernel header value.
const (
	AFXdp  = 44
	SolXdp = 283
)

// Socket options (getsockopt/setsockopt level SolXdp).
const (
	XdpMmapOffsets        = 1
	XdpRxRing             = 2
	XdpTxRing             = 3
	XdpUmemReg            = 4
	XdpUmemFillRing       = 5
	XdpUmemCompletionRing = 6
	XdpStatistics         = 7
	XdpOptions            = 8
)

// Ring mmap offsets (pgoff values passed to mmap to select which ring).
const (
	XdpPgoffRxRing                  = 0
	XdpPgoffTxRing                  = 0x80000000
	XdpPgoffUmemPgoffFillRing       = 0x100000000
	XdpPgoffUmemPgoffCompletionRing = 0x180000000
)

// Per-socket bind flags.
const (
	XdpShared    = 1 << 0
	XdpCopy      = 1 << 1
	XdpZeroCopy  = 1 << 2
	XdpUseNeedWakeup = 1 << 3
)

// Descriptor / ring flags.
const (
	XdpPktContd = 1 << 0

	// RingFlagNeedWakeup, read from the Fill/Tx ring's flags word, asks
	// user space to perform a wake syscall before the kernel will make
	// further progress.
	RingFlagNeedWakeup = 1 << 0
)

// UmemReg flags.
const (
	XdpUmemUnalignedChunkFlag = 1 << 0
)

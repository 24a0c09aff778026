package xdpuapi

import "unsafe"

// Desc mirrors struct xdp_desc (16 bytes): one ring slot, describing a
// frame by its UMEM-relative byte address and length.
//
//	struct xdp_desc {
//	  __u64 addr;
//	  __u32 len;
//	  __u32 options;
//	};
type Desc struct {
	Addr    uint64
	Len     uint32
	Options uint32
}

var _ [16]byte = [unsafe.Sizeof(Desc{})]byte{}

// RingOffset mirrors struct xdp_ring_offset (part of xdp_mmap_offsets):
// byte offsets, from the start of the mmap'd region, of a ring's
// producer index, consumer index, descriptor array, and flags word.
type RingOffset struct {
	Producer uint64
	Consumer uint64
	Desc     uint64
	Flags    uint64
}

var _ [32]byte = [unsafe.Sizeof(RingOffset{})]byte{}

// MmapOffsets mirrors struct xdp_mmap_offsets, returned by getsockopt
// XdpMmapOffsets: the RingOffset layout for each of the four rings.
type MmapOffsets struct {
	Rx   RingOffset
	Tx   RingOffset
	Fill RingOffset
	Cr   RingOffset // Completion ring
}

var _ [128]byte = [unsafe.Sizeof(MmapOffsets{})]byte{}

// RingReq mirrors struct xdp_ring_req (the setsockopt payload for
// XdpRxRing/XdpTxRing/XdpUmemFillRing/XdpUmemCompletionRing): a single
// __u32 giving the requested ring depth in entries.
type RingReq struct {
	Entries uint32
}

var _ [4]byte = [unsafe.Sizeof(RingReq{})]byte{}

// UmemReg mirrors struct xdp_umem_reg, the setsockopt payload that hands
// the kernel the UMEM's base address, size, and chunking parameters.
type UmemReg struct {
	Addr        uint64
	Len         uint64
	ChunkSize   uint32
	Headroom    uint32
	Flags       uint32
	TxMetadataLen uint32
}

var _ [32]byte = [unsafe.Sizeof(UmemReg{})]byte{}

// Statistics mirrors struct xdp_statistics, the getsockopt XdpStatistics
// payload.
type Statistics struct {
	RxDropped       uint64
	RxInvalidDescs  uint64
	TxInvalidDescs  uint64
	RxRingFull      uint64
	RxFillRingEmptyDescs uint64
	TxRingEmptyDescs uint64
}

var _ [48]byte = [unsafe.Sizeof(Statistics{})]byte{}

// SockaddrXdp mirrors struct sockaddr_xdp, the bind() address for an
// AF_XDP socket.
type SockaddrXdp struct {
	Family        uint16
	Flags         uint16
	IfIndex       uint32
	QueueID       uint32
	SharedUmemFD  uint32
}

var _ [16]byte = [unsafe.Sizeof(SockaddrXdp{})]byte{}

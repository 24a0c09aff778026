package xdpuapi

import "encoding/binary"

// MarshalRingReq encodes RingReq into the bytes setsockopt expects.
func MarshalRingReq(r RingReq) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, r.Entries)
	return buf
}

// MarshalUmemReg encodes UmemReg into the bytes setsockopt XdpUmemReg
// expects.
func MarshalUmemReg(u UmemReg) []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf[0:8], u.Addr)
	binary.LittleEndian.PutUint64(buf[8:16], u.Len)
	binary.LittleEndian.PutUint32(buf[16:20], u.ChunkSize)
	binary.LittleEndian.PutUint32(buf[20:24], u.Headroom)
	binary.LittleEndian.PutUint32(buf[24:28], u.Flags)
	binary.LittleEndian.PutUint32(buf[28:32], u.TxMetadataLen)
	return buf
}

// UnmarshalRingOffset decodes a RingOffset from a 32-byte slice taken at
// some offset within an XdpMmapOffsets getsockopt result.
func UnmarshalRingOffset(data []byte) RingOffset {
	return RingOffset{
		Producer: binary.LittleEndian.Uint64(data[0:8]),
		Consumer: binary.LittleEndian.Uint64(data[8:16]),
		Desc:     binary.LittleEndian.Uint64(data[16:24]),
		Flags:    binary.LittleEndian.Uint64(data[24:32]),
	}
}

// UnmarshalMmapOffsets decodes the full 128-byte XdpMmapOffsets payload.
func UnmarshalMmapOffsets(data []byte) MmapOffsets {
	return MmapOffsets{
		Rx:   UnmarshalRingOffset(data[0:32]),
		Tx:   UnmarshalRingOffset(data[32:64]),
		Fill: UnmarshalRingOffset(data[64:96]),
		Cr:   UnmarshalRingOffset(data[96:128]),
	}
}

// UnmarshalStatistics decodes the XdpStatistics getsockopt payload. Older
// kernels return a shorter 24-byte struct (without the ring-full and two
// ring-empty counters); for a payload shorter than 48 bytes those three
// counters are left zero.
func UnmarshalStatistics(data []byte) Statistics {
	var s Statistics
	s.RxDropped = binary.LittleEndian.Uint64(data[0:8])
	s.RxInvalidDescs = binary.LittleEndian.Uint64(data[8:16])
	s.TxInvalidDescs = binary.LittleEndian.Uint64(data[16:24])
	if len(data) >= 48 {
		s.RxRingFull = binary.LittleEndian.Uint64(data[24:32])
		s.RxFillRingEmptyDescs = binary.LittleEndian.Uint64(data[32:40])
		s.TxRingEmptyDescs = binary.LittleEndian.Uint64(data[40:48])
	}
	return s
}

// MarshalSockaddrXdp encodes the bind() address for an AF_XDP socket.
func MarshalSockaddrXdp(a SockaddrXdp) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint16(buf[0:2], a.Family)
	binary.LittleEndian.PutUint16(buf[2:4], a.Flags)
	binary.LittleEndian.PutUint32(buf[4:8], a.IfIndex)
	binary.LittleEndian.PutUint32(buf[8:12], a.QueueID)
	binary.LittleEndian.PutUint32(buf[12:16], a.SharedUmemFD)
	return buf
}

package rewrite

import "github.com/l2reflect/reflect/internal/classify"

// onesComplementSum accumulates b as a sequence of big-endian 16-bit words
// into a 32-bit running sum, folding the carry on return.
func onesComplementSum(b []byte, seed uint32) uint16 {
	sum := seed
	n := len(b)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if n%2 == 1 {
		sum += uint32(b[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return uint16(sum)
}

func checksum(b []byte, seed uint32) uint16 {
	return ^onesComplementSum(b, seed)
}

// recomputeIPv4Checksum zeroes the header checksum field and recomputes it
// over the full header (ihl is implied by len(header)).
func recomputeIPv4Checksum(header []byte) {
	header[10] = 0
	header[11] = 0
	sum := checksum(header, 0)
	header[10] = byte(sum >> 8)
	header[11] = byte(sum)
}

// recomputeUDPChecksum recomputes the UDP checksum over the IPv4/IPv6
// pseudo-header, the UDP header, and the UDP payload. A zero result is
// encoded as 0xFFFF for IPv4 (per RFC 768); IPv6 never uses a zero UDP
// checksum (RFC 8200 §8.1).
func recomputeUDPChecksum(frame []byte, layout classify.Layout) {
	udp := frame[layout.UDPOffset:]
	udp[6] = 0
	udp[7] = 0

	udpLen := uint32(udp[4])<<8 | uint32(udp[5])

	var seed uint32
	if layout.IsIPv6 {
		ipOffset := layout.IPOffset
		seed = onesComplementSumSeed(frame[ipOffset+8:ipOffset+40], udpLen, 17)
	} else {
		ipOffset := layout.IPOffset
		seed = onesComplementSumSeed(frame[ipOffset+12:ipOffset+20], udpLen, 17)
	}

	sum := checksum(udp, seed)
	if sum == 0 {
		if layout.IsIPv6 {
			// IPv6 UDP checksum is mandatory and must never be transmitted
			// as zero; RFC 8200 reserves that encoding. A true zero result
			// folds to all-ones, matching the IPv4 convention below.
			sum = 0xFFFF
		} else {
			sum = 0xFFFF
		}
	}
	udp[6] = byte(sum >> 8)
	udp[7] = byte(sum)
}

// onesComplementSumSeed accumulates the pseudo-header (source/destination
// address, zero-padded protocol byte, and UDP length) as a starting sum fed
// into the UDP checksum.
func onesComplementSumSeed(addrs []byte, udpLen uint32, protocol uint32) uint32 {
	var sum uint32
	n := len(addrs)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(addrs[i])<<8 | uint32(addrs[i+1])
	}
	sum += protocol
	sum += udpLen
	return sum
}

// Package rewrite implements the in-place header swap applied to frames the
// classifier has already accepted: Mac, MacIp, and All modes, with optional
// checksum recomputation. The byte swaps are the portable scalar ones in
// scalar.go on every architecture; no SSE or NEON swap path is compiled in.
package rewrite

import (
	"github.com/l2reflect/reflect/internal/classify"
	"github.com/l2reflect/reflect/internal/cpufeature"
)

// Mode selects how much of the frame gets its address fields swapped.
type Mode int

const (
	// ModeMac swaps only the 6-byte destination/source MAC pair.
	ModeMac Mode = iota
	// ModeMacIp also swaps the IP source/destination addresses.
	ModeMacIp
	// ModeAll also swaps the UDP source/destination ports.
	ModeAll
)

func ParseMode(s string) (Mode, bool) {
	switch s {
	case "mac":
		return ModeMac, true
	case "mac-ip":
		return ModeMacIp, true
	case "all":
		return ModeAll, true
	default:
		return ModeMac, false
	}
}

func (m Mode) String() string {
	switch m {
	case ModeMac:
		return "mac"
	case ModeMacIp:
		return "mac-ip"
	default:
		return "all"
	}
}

// ActiveVariant reports the CPU capability variant detected at startup, for
// logging only. It does not change how Rewrite swaps bytes: every variant
// runs the same scalar swaps in scalar.go.
func ActiveVariant() string {
	return cpufeature.Detect().String()
}

// Rewrite mutates frame in place according to mode and layout, as produced
// by a prior classify.Classify call that returned Accept. When
// computeChecksum is true the IPv4/UDP checksums are recomputed after the
// swap; otherwise the existing checksum bytes are left untouched (the
// swaps are checksum-neutral under the internet one's-complement sum).
func Rewrite(frame []byte, layout classify.Layout, mode Mode, computeChecksum bool) {
	swap6(frame[0:6], frame[6:12])

	if mode == ModeMac {
		return
	}

	ipOffset := layout.IPOffset
	if layout.IsIPv6 {
		srcIP := frame[ipOffset+8 : ipOffset+24]
		dstIP := frame[ipOffset+24 : ipOffset+40]
		swap16(srcIP, dstIP)
	} else {
		srcIP := frame[ipOffset+12 : ipOffset+16]
		dstIP := frame[ipOffset+16 : ipOffset+20]
		swap4(srcIP, dstIP)
	}

	udpOffset := layout.UDPOffset
	if mode == ModeAll {
		srcPort := frame[udpOffset+0 : udpOffset+2]
		dstPort := frame[udpOffset+2 : udpOffset+4]
		swap2(srcPort, dstPort)
	}

	if !computeChecksum {
		return
	}
	if !layout.IsIPv6 {
		recomputeIPv4Checksum(frame[ipOffset : ipOffset+layout.IPHdrLen])
	}
	recomputeUDPChecksum(frame, layout)
}

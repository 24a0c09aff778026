// Package classify implements the stateless frame classifier: a pure
// predicate mapping a raw Ethernet frame to accept-with-signature or
// reject-with-reason, parameterized by a filter Policy.
package classify

import (
	"github.com/l2reflect/reflect/internal/constants"
)

// SigFilterMode selects which signature families the Policy accepts.
type SigFilterMode int

const (
	SigAll SigFilterMode = iota
	SigITO
	SigCustom
	SigRFC2544
	SigY1564
)

// SignatureTag identifies which measurement-protocol signature a frame
// matched. SigNone is only ever seen paired with a Reject result.
type SignatureTag int

const (
	SigNone SignatureTag = iota
	SigProbeOt
	SigDataOt
	SigLatency
	SigRFC2544Tag
	SigY1564Tag
)

func (s SignatureTag) String() string {
	switch s {
	case SigProbeOt:
		return "probeot"
	case SigDataOt:
		return "dataot"
	case SigLatency:
		return "latency"
	case SigRFC2544Tag:
		return "rfc2544"
	case SigY1564Tag:
		return "y1564"
	default:
		return "unknown"
	}
}

// RejectReason names why a frame failed classification.
type RejectReason int

const (
	ReasonNone RejectReason = iota
	ReasonTooShort
	ReasonBadMac
	ReasonBadEtherType
	ReasonBadProtocol
	ReasonBadSignature
)

func (r RejectReason) String() string {
	switch r {
	case ReasonTooShort:
		return "too_short"
	case ReasonBadMac:
		return "mac_mismatch"
	case ReasonBadEtherType:
		return "bad_ethertype"
	case ReasonBadProtocol:
		return "not_udp"
	case ReasonBadSignature:
		return "no_signature"
	default:
		return "none"
	}
}

// Policy parameterizes a Classify call. A nil OUIFilter disables the
// source-OUI check; UDPPort == 0 means "any destination port".
type Policy struct {
	LocalMAC  [6]byte
	OUIFilter *[3]byte
	UDPPort   uint16
	SigMode   SigFilterMode
	AllowVLAN bool
	AllowIPv6 bool
}

// Layout records where the IP and UDP headers landed in an accepted frame,
// so the Rewriter doesn't need to re-walk the VLAN/IPv4/IPv6 dispatch.
type Layout struct {
	IPOffset  int
	IPHdrLen  int
	UDPOffset int
	IsIPv6    bool
}

// Result is the outcome of a Classify call. Accept is true iff the frame
// matched a configured signature; Sig and Layout are only meaningful when
// Accept is true, Reason only when it is false.
type Result struct {
	Accept bool
	Sig    SignatureTag
	Reason RejectReason
	Layout Layout
}

func accept(sig SignatureTag, layout Layout) Result {
	return Result{Accept: true, Sig: sig, Layout: layout}
}
func reject(reason RejectReason) Result {
	return Result{Accept: false, Reason: reason}
}

var (
	sigProbeOt = [constants.SignatureLen]byte{'P', 'R', 'O', 'B', 'E', 'O', 'T'}
	sigDataOt  = [constants.SignatureLen]byte{'D', 'A', 'T', 'A', ':', 'O', 'T'}
	sigLatency = [constants.SignatureLen]byte{'L', 'A', 'T', 'E', 'N', 'C', 'Y'}
	sigRFC2544 = [constants.SignatureLen]byte{'R', 'F', 'C', '2', '5', '4', '4'}
	// Y1564 is a 5-byte ASCII tag; the trailing two bytes of the 7-byte
	// comparison window are zero-padded.
	sigY1564 = [constants.SignatureLen]byte{'Y', '1', '5', '6', '4', 0x00, 0x00}
)

// Classify inspects frame (borrowed, not retained) and returns Accept with
// a signature tag or Reject with a reason. It never reads past len(frame)
// and never mutates frame; it is pure and allocation-free.
func Classify(frame []byte, policy Policy) Result {
	n := len(frame)

	// Step 1/2: enough bytes for dst MAC, src MAC, EtherType; dst MAC match.
	if n < constants.EthHeaderSize {
		return reject(ReasonTooShort)
	}
	var dst [6]byte
	copy(dst[:], frame[0:6])
	if dst != policy.LocalMAC {
		return reject(ReasonBadMac)
	}

	// Step 3: optional source-MAC OUI filter.
	if policy.OUIFilter != nil {
		var srcOUI [3]byte
		copy(srcOUI[:], frame[6:9])
		if srcOUI != *policy.OUIFilter {
			return reject(ReasonBadMac)
		}
	}

	// Step 4: EtherType, with one optional VLAN tag.
	etherType := be16(frame[12:14])
	ipOffset := constants.EthHeaderSize
	if etherType == constants.EtherType8021Q || etherType == constants.EtherType8021ad {
		if !policy.AllowVLAN {
			return reject(ReasonBadEtherType)
		}
		if n < constants.EthHeaderSize+constants.VLANTagSize+2 {
			return reject(ReasonTooShort)
		}
		etherType = be16(frame[ipOffset+2 : ipOffset+4])
		ipOffset += constants.VLANTagSize
	}

	var ipHdrLen, proto int
	switch etherType {
	case constants.EtherTypeIPv4:
		if n < ipOffset+constants.IPv4HeaderMinSize {
			return reject(ReasonTooShort)
		}
		verIHL := frame[ipOffset]
		if verIHL>>4 != 4 {
			return reject(ReasonBadEtherType)
		}
		ihl := int(verIHL & 0x0F)
		if ihl < 5 {
			return reject(ReasonBadEtherType)
		}
		ipHdrLen = ihl * 4
		proto = int(frame[ipOffset+9])
	case constants.EtherTypeIPv6:
		if !policy.AllowIPv6 {
			return reject(ReasonBadEtherType)
		}
		ipHdrLen = constants.IPv6HeaderSize
		if n < ipOffset+ipHdrLen {
			return reject(ReasonTooShort)
		}
		proto = int(frame[ipOffset+6])
	default:
		return reject(ReasonBadEtherType)
	}

	if proto != constants.ProtoUDP {
		return reject(ReasonBadProtocol)
	}

	// Step 7: full-length check for IP header + UDP header + vendor prefix
	// + signature window.
	udpOffset := ipOffset + ipHdrLen
	sigOffset := udpOffset + constants.UDPHeaderSize + constants.SignaturePayloadOffset
	if n < sigOffset+constants.SignatureLen {
		return reject(ReasonTooShort)
	}

	// Step 8: optional destination UDP port filter.
	if policy.UDPPort != 0 {
		dstPort := be16(frame[udpOffset+2 : udpOffset+4])
		if dstPort != policy.UDPPort {
			return reject(ReasonBadSignature)
		}
	}

	// Step 9: signature match against the configured family set.
	var sig [constants.SignatureLen]byte
	copy(sig[:], frame[sigOffset:sigOffset+constants.SignatureLen])

	layout := Layout{
		IPOffset:  ipOffset,
		IPHdrLen:  ipHdrLen,
		UDPOffset: udpOffset,
		IsIPv6:    etherType == constants.EtherTypeIPv6,
	}

	if policy.SigMode == SigAll || policy.SigMode == SigITO {
		switch sig {
		case sigProbeOt:
			return accept(SigProbeOt, layout)
		case sigDataOt:
			return accept(SigDataOt, layout)
		case sigLatency:
			return accept(SigLatency, layout)
		}
	}
	if policy.SigMode == SigAll || policy.SigMode == SigCustom || policy.SigMode == SigRFC2544 {
		if sig == sigRFC2544 {
			return accept(SigRFC2544Tag, layout)
		}
	}
	if policy.SigMode == SigAll || policy.SigMode == SigCustom || policy.SigMode == SigY1564 {
		if sig == sigY1564 {
			return accept(SigY1564Tag, layout)
		}
	}

	return reject(ReasonBadSignature)
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

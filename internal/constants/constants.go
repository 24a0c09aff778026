// Package constants holds the fixed sizing and protocol constants shared
// across the reflector's packages.
package constants

import "time"

// Ethernet / IP / UDP wire sizes used by the classifier and rewriter.
const (
	EthHeaderSize          = 14
	VLANTagSize            = 4
	IPv4HeaderMinSize      = 20
	IPv6HeaderSize         = 40
	UDPHeaderSize          = 8
	SignatureLen           = 7
	SignaturePayloadOffset = 5 // signature begins 5 bytes into the UDP payload

	EtherTypeIPv4   = 0x0800
	EtherTypeIPv6   = 0x86DD
	EtherType8021Q  = 0x8100
	EtherType8021ad = 0x88A8

	ProtoUDP = 17

	// MinFrameLen is the minimum total frame length the untagged IPv4
	// path requires (14 + 20 + 8 + 5 + 7).
	MinFrameLen = EthHeaderSize + IPv4HeaderMinSize + UDPHeaderSize + SignaturePayloadOffset + SignatureLen
)

// Frame pool / ring defaults.
const (
	DefaultFrameSize  = 4096
	DefaultFrameCount = 4096
	DefaultBatchSize  = 64

	// DefaultStatsFlushInterval is the worker-loop iteration count between
	// local-to-shared statistics flushes.
	DefaultStatsFlushInterval = 8
)

// Timing defaults.
const (
	// DefaultPollTimeout bounds the Rx short-poll before a quiet, empty
	// result is returned.
	DefaultPollTimeout = 100 * time.Millisecond

	// DefaultStatsInterval is the default telemetry emission interval.
	DefaultStatsInterval = 1 * time.Second

	// ShutdownJoinTimeout bounds how long stop() waits for a worker thread
	// to observe running_flag and exit before giving up on a clean join.
	ShutdownJoinTimeout = 2 * time.Second
)

// DefaultOUI is the vendor OUI filter the CLI defaults to when none is given.
var DefaultOUI = [3]byte{0x00, 0xC0, 0x17}
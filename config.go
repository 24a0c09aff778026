package reflector

import (
	"fmt"

	"github.com/l2reflect/reflect/internal/classify"
	"github.com/l2reflect/reflect/internal/constants"
	"github.com/l2reflect/reflect/internal/rewrite"
)

// Config holds everything the Controller needs to bind an interface,
// classify/rewrite its traffic, and report statistics. It is populated
// from CLI flags by cmd/reflect and never mutated after Controller.Init.
type Config struct {
	// Interface to bind; resolved to an ifindex and local MAC at Init.
	Interface string

	// Classification policy.
	OUIFilter    *[3]byte
	UDPPort      uint16
	SigMode      classify.SigFilterMode
	AllowVLAN    bool
	AllowIPv6    bool

	// Reflection behavior.
	Mode            rewrite.Mode
	ComputeChecksum bool

	// Measurement.
	LatencyEnabled bool

	// Resource sizing.
	HugePages  bool
	BatchSize  int
	FrameSize  int
	FrameCount int

	// Reporting.
	Verbose       bool
	JSON          bool
	CSV           bool
	StatsInterval int // seconds

	// PrometheusAddr, when non-empty, starts the optional /metrics server
	// on this address (e.g. "127.0.0.1:9273").
	PrometheusAddr string

	// EBPFProgram, when non-empty, is a path to a prebuilt XDP object the
	// Controller loads as a preselector (internal/ebpfxdp).
	EBPFProgram string
}

// DefaultConfig returns a Config matching the documented CLI defaults:
// OUI filter 00:C0:17 active, port filter disabled (any), mode=all,
// signature mode=All, no VLAN/IPv6, no latency measurement, no checksum
// recompute, batch/frame sizing from internal/constants.
func DefaultConfig() Config {
	oui := constants.DefaultOUI
	return Config{
		OUIFilter:     &oui,
		UDPPort:       0,
		SigMode:       classify.SigAll,
		AllowVLAN:     false,
		AllowIPv6:     false,
		Mode:          rewrite.ModeAll,
		BatchSize:     constants.DefaultBatchSize,
		FrameSize:     constants.DefaultFrameSize,
		FrameCount:    constants.DefaultFrameCount,
		StatsInterval: 1,
	}
}

// Validate checks the CLI-facing invariants documented for the flag
// surface: an interface name must be given, stats-interval must be a
// positive number of seconds, and JSON/CSV output are mutually exclusive.
func (c Config) Validate() error {
	if c.Interface == "" {
		return NewError("validate", ReasonInvalidArgument, fmt.Errorf("no interface given"))
	}
	if c.StatsInterval <= 0 {
		return NewError("validate", ReasonInvalidArgument, fmt.Errorf("--stats-interval must be >= 1, got %d", c.StatsInterval))
	}
	if c.JSON && c.CSV {
		return NewError("validate", ReasonInvalidArgument, fmt.Errorf("--json and --csv are mutually exclusive"))
	}
	return nil
}

// policy builds the classify.Policy this config implies once localMAC is
// known (resolved during Controller.Init, not available until then).
func (c Config) policy(localMAC [6]byte) classify.Policy {
	return classify.Policy{
		LocalMAC:  localMAC,
		OUIFilter: c.OUIFilter,
		UDPPort:   c.UDPPort,
		SigMode:   c.SigMode,
		AllowVLAN: c.AllowVLAN,
		AllowIPv6: c.AllowIPv6,
	}
}

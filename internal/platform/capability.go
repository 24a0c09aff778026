// Package platform probes the local NIC's identity and kernel-bypass
// readiness: ifindex, MAC, MTU, and receive queue count, used by the
// Controller to size the worker pool and pick a driver ordering.
package platform

import (
	"fmt"
	"net"
)

// Capability describes what the Controller needs to know about an
// interface before allocating workers.
type Capability struct {
	Name     string
	IfIndex  int
	LocalMAC [6]byte
	MTU      int

	// RxQueues is the number of NIC receive queues, used to size the
	// worker pool (one worker per queue). 1 on interfaces without
	// multi-queue support or when the ethtool probe fails.
	RxQueues int

	// DriverName is the kernel driver bound to the interface ("ixgbe",
	// "veth", "i40e", ...), empty when the ethtool probe fails.
	DriverName string

	// LinkSpeedMbps is the negotiated link speed in Mbit/s, or -1 when
	// the interface is down or the ethtool probe fails.
	LinkSpeedMbps int
}

// Probe resolves name's ifindex, MAC, MTU, RX queue count, driver name,
// and link speed. The latter two are advisory only: a failed probe
// leaves them at their zero/sentinel values rather than failing Probe.
func Probe(name string) (Capability, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return Capability{}, fmt.Errorf("platform: interface %q not found: %w", name, err)
	}
	if len(ifi.HardwareAddr) != 6 {
		return Capability{}, fmt.Errorf("platform: interface %q has no Ethernet MAC", name)
	}

	var mac [6]byte
	copy(mac[:], ifi.HardwareAddr)

	c := Capability{
		Name:          name,
		IfIndex:       ifi.Index,
		LocalMAC:      mac,
		MTU:           ifi.MTU,
		LinkSpeedMbps: -1,
	}

	rxQueues, err := probeRxQueues(name)
	if err != nil {
		rxQueues = 1
	}
	c.RxQueues = rxQueues

	if driver, err := probeDriverName(name); err == nil {
		c.DriverName = driver
	}
	if speed, err := probeLinkSpeed(name); err == nil {
		c.LinkSpeedMbps = speed
	}

	return c, nil
}

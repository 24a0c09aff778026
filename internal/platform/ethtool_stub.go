//go:build !linux

package platform

import "fmt"

func probeRxQueues(name string) (int, error) {
	return 0, fmt.Errorf("platform: ethtool RX queue probe requires linux")
}

func probeDriverName(name string) (string, error) {
	return "", fmt.Errorf("platform: ethtool driver-info probe requires linux")
}

func probeLinkSpeed(name string) (int, error) {
	return 0, fmt.Errorf("platform: ethtool link-speed probe requires linux")
}

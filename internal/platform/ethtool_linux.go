//go:build linux

package platform

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	siocEthtool      = 0x8946
	ethtoolGChannels = 0x0000003c
	ethtoolGDrvinfo  = 0x00000003
	ethtoolGSet      = 0x00000001
)

// ethtoolChannels mirrors struct ethtool_channels from linux/ethtool.h.
type ethtoolChannels struct {
	Cmd           uint32
	MaxRx         uint32
	MaxTx         uint32
	MaxOther      uint32
	MaxCombined   uint32
	RxCount       uint32
	TxCount       uint32
	OtherCount    uint32
	CombinedCount uint32
}

// ifreqData mirrors the portion of struct ifreq the SIOCETHTOOL path
// touches: the interface name followed by the ifr_data pointer union
// member. The trailing padding brings the struct to the kernel's 40-byte
// struct ifreq size on amd64/arm64 so a full-struct copy_from_user never
// reads past this buffer.
type ifreqData struct {
	Name [16]byte
	Data uintptr
	_    [16]byte
}

// probeRxQueues asks the driver, via SIOCETHTOOL/ETHTOOL_GCHANNELS, how
// many combined (or Rx-dedicated) queues it exposes. Interfaces without
// ethtool support (veth, loopback, some virtual NICs) return an error,
// which Probe treats as "one queue."
func probeRxQueues(name string) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return 0, fmt.Errorf("ethtool: socket: %w", err)
	}
	defer unix.Close(fd)

	channels := ethtoolChannels{Cmd: ethtoolGChannels}

	var ifr ifreqData
	copy(ifr.Name[:], name)
	ifr.Data = uintptr(unsafe.Pointer(&channels))

	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), uintptr(siocEthtool), uintptr(unsafe.Pointer(&ifr)))
	if errno != 0 {
		return 0, fmt.Errorf("ethtool: SIOCETHTOOL/GCHANNELS: %w", errno)
	}

	if channels.CombinedCount > 0 {
		return int(channels.CombinedCount), nil
	}
	if channels.RxCount > 0 {
		return int(channels.RxCount), nil
	}
	return 0, fmt.Errorf("ethtool: no channel counts reported")
}

// ethtoolDrvinfo mirrors the fixed-size prefix of struct ethtool_drvinfo
// that carries the driver name; the version/bus-info/stats-string fields
// that follow it in the kernel struct are not needed here.
type ethtoolDrvinfo struct {
	Cmd     uint32
	Driver  [32]byte
	Version [32]byte
}

// probeDriverName asks the driver, via SIOCETHTOOL/ETHTOOL_GDRVINFO, for
// its kernel module name ("ixgbe", "veth", "i40e", ...).
func probeDriverName(name string) (string, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return "", fmt.Errorf("ethtool: socket: %w", err)
	}
	defer unix.Close(fd)

	info := ethtoolDrvinfo{Cmd: ethtoolGDrvinfo}

	var ifr ifreqData
	copy(ifr.Name[:], name)
	ifr.Data = uintptr(unsafe.Pointer(&info))

	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), uintptr(siocEthtool), uintptr(unsafe.Pointer(&ifr)))
	if errno != 0 {
		return "", fmt.Errorf("ethtool: SIOCETHTOOL/GDRVINFO: %w", errno)
	}

	end := 0
	for end < len(info.Driver) && info.Driver[end] != 0 {
		end++
	}
	return string(info.Driver[:end]), nil
}

// ethtoolCmd mirrors the legacy struct ethtool_cmd, queried via
// ETHTOOL_GSET. It predates the newer ETHTOOL_GLINKSETTINGS ioctl but is
// supported by every driver a fixed-size ioctl struct can describe,
// which is all this probe needs: speed and duplex.
type ethtoolCmd struct {
	Cmd            uint32
	Supported      uint32
	Advertising    uint32
	SpeedLo        uint16
	Duplex         uint8
	Port           uint8
	PhyAddress     uint8
	Transceiver    uint8
	Autoneg        uint8
	MdioSupport    uint8
	Maxtxpkt       uint32
	Maxrxpkt       uint32
	SpeedHi        uint16
	EthTpMdix      uint8
	EthTpMdixCtrl  uint8
	LpAdvertising  uint32
	Reserved       [2]uint32
}

// probeLinkSpeed asks the driver, via SIOCETHTOOL/ETHTOOL_GSET, for the
// negotiated link speed in Mbit/s. Speed is split across a 16-bit low
// word and a 16-bit high word so it can represent rates above 65535
// Mbit/s (100G+ links); 0xFFFF in both halves (SPEED_UNKNOWN) means
// "unknown," per the ethtool ABI.
func probeLinkSpeed(name string) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return 0, fmt.Errorf("ethtool: socket: %w", err)
	}
	defer unix.Close(fd)

	cmd := ethtoolCmd{Cmd: ethtoolGSet}

	var ifr ifreqData
	copy(ifr.Name[:], name)
	ifr.Data = uintptr(unsafe.Pointer(&cmd))

	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), uintptr(siocEthtool), uintptr(unsafe.Pointer(&ifr)))
	if errno != 0 {
		return 0, fmt.Errorf("ethtool: SIOCETHTOOL/GSET: %w", errno)
	}

	if cmd.SpeedLo == 0xFFFF && cmd.SpeedHi == 0xFFFF {
		return 0, fmt.Errorf("ethtool: link speed unknown")
	}
	return int(cmd.SpeedHi)<<16 | int(cmd.SpeedLo), nil
}

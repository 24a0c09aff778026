//go:build !linux

package ring

import (
	"fmt"

	"github.com/l2reflect/reflect/internal/logging"
)

// XDPDriver is unavailable outside Linux: AF_XDP is a Linux-only kernel
// facility.
type XDPDriver struct{}

func NewXDPDriver(ifindex int, queueID uint32, pool *FramePool, logger *logging.Logger) (*XDPDriver, error) {
	return nil, fmt.Errorf("xdp: zero-copy driver requires linux")
}

func (d *XDPDriver) Recv(max int) ([]Descriptor, error)  { return nil, fmt.Errorf("unsupported") }
func (d *XDPDriver) Send(descs []Descriptor) (int, error) { return 0, fmt.Errorf("unsupported") }
func (d *XDPDriver) Release(descs []Descriptor) error     { return fmt.Errorf("unsupported") }
func (d *XDPDriver) PollCompletions() error               { return fmt.Errorf("unsupported") }
func (d *XDPDriver) Frame(desc Descriptor) []byte         { return nil }
func (d *XDPDriver) Name() string                         { return "xdp-zerocopy" }
func (d *XDPDriver) SocketFD() int                        { return -1 }
func (d *XDPDriver) Close() error                         { return nil }

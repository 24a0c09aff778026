//go:build !linux

package ring

import "fmt"

// CopyDriver is unavailable outside Linux: AF_PACKET is a Linux-only
// socket family.
type CopyDriver struct{}

func NewCopyDriver(ifindex int, pool *FramePool) (*CopyDriver, error) {
	return nil, fmt.Errorf("af-packet: copying driver requires linux")
}

func (d *CopyDriver) Recv(max int) ([]Descriptor, error)  { return nil, fmt.Errorf("unsupported") }
func (d *CopyDriver) Send(descs []Descriptor) (int, error) { return 0, fmt.Errorf("unsupported") }
func (d *CopyDriver) Release(descs []Descriptor) error     { return fmt.Errorf("unsupported") }
func (d *CopyDriver) PollCompletions() error               { return fmt.Errorf("unsupported") }
func (d *CopyDriver) Frame(desc Descriptor) []byte         { return nil }
func (d *CopyDriver) Name() string                         { return "af-packet" }
func (d *CopyDriver) Close() error                         { return nil }

//go:build !linux

package ebpfxdp

import "fmt"

// Loader is unavailable outside Linux: eBPF and XDP are Linux-only
// kernel facilities.
type Loader struct{}

func Load(cfg Config) (*Loader, error) {
	return nil, fmt.Errorf("ebpfxdp: requires linux")
}

func (l *Loader) RegisterSocket(queueID uint32, fd int) error {
	return fmt.Errorf("ebpfxdp: requires linux")
}

func (l *Loader) Close() error { return nil }

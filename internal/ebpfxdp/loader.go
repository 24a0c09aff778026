// Package ebpfxdp optionally attaches a precompiled XDP program that
// redirects frames into the zero-copy driver's AF_XDP socket before they
// ever reach user space, via an XSKMAP. It is an optimization layered on
// top of internal/ring's own AF_XDP bind/mmap path, not a replacement
// for it: the reflector runs identically, just slower, without it.
package ebpfxdp

import "fmt"

// Config selects the compiled object and its entry points. The object
// itself is built out of band (clang -target bpf) and is not produced by
// this module.
type Config struct {
	ObjectPath  string
	ProgramName string // default "xdp_redirect_port"
	XSKMapName  string // default "xsks_map"
	Ifindex     int
}

func (c Config) withDefaults() Config {
	if c.ProgramName == "" {
		c.ProgramName = "xdp_redirect_port"
	}
	if c.XSKMapName == "" {
		c.XSKMapName = "xsks_map"
	}
	return c
}

func (c Config) validate() error {
	if c.ObjectPath == "" {
		return fmt.Errorf("ebpfxdp: ObjectPath is required")
	}
	if c.Ifindex <= 0 {
		return fmt.Errorf("ebpfxdp: Ifindex must be positive")
	}
	return nil
}

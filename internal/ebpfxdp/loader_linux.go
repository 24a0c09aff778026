//go:build linux

package ebpfxdp

import (
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
)

// Loader owns the loaded collection, its attached link, and the XSKMAP
// used to steer queues into AF_XDP sockets.
type Loader struct {
	collection *ebpf.Collection
	xsksMap    *ebpf.Map
	attached   link.Link
}

// Load reads cfg.ObjectPath, attaches its XDP program to cfg.Ifindex —
// trying driver mode first and falling back to generic mode the same
// way most AF_XDP front ends do when the NIC driver lacks native XDP
// support — and returns a Loader ready to register worker sockets.
func Load(cfg Config) (*Loader, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	spec, err := ebpf.LoadCollectionSpec(cfg.ObjectPath)
	if err != nil {
		return nil, fmt.Errorf("ebpfxdp: loading %s: %w", cfg.ObjectPath, err)
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("ebpfxdp: creating collection: %w", err)
	}

	prog := coll.Programs[cfg.ProgramName]
	if prog == nil {
		coll.Close()
		return nil, fmt.Errorf("ebpfxdp: program %q not found in %s", cfg.ProgramName, cfg.ObjectPath)
	}
	xsksMap := coll.Maps[cfg.XSKMapName]
	if xsksMap == nil {
		coll.Close()
		return nil, fmt.Errorf("ebpfxdp: map %q not found in %s", cfg.XSKMapName, cfg.ObjectPath)
	}

	attached, err := link.AttachXDP(link.XDPOptions{
		Program:   prog,
		Interface: cfg.Ifindex,
		Flags:     link.XDPDriverMode,
	})
	if err != nil {
		attached, err = link.AttachXDP(link.XDPOptions{
			Program:   prog,
			Interface: cfg.Ifindex,
			Flags:     link.XDPGenericMode,
		})
		if err != nil {
			coll.Close()
			return nil, fmt.Errorf("ebpfxdp: attach failed in both driver and generic mode: %w", err)
		}
	}

	return &Loader{collection: coll, xsksMap: xsksMap, attached: attached}, nil
}

// RegisterSocket inserts an AF_XDP socket fd into the XSKMAP at queueID,
// so packets the kernel steers to that queue redirect straight into it.
func (l *Loader) RegisterSocket(queueID uint32, fd int) error {
	return l.xsksMap.Update(queueID, uint32(fd), ebpf.UpdateAny)
}

// Close detaches the program and releases the collection's kernel
// resources.
func (l *Loader) Close() error {
	var errs []error
	if l.attached != nil {
		if err := l.attached.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if l.collection != nil {
		l.collection.Close()
	}
	return errors.Join(errs...)
}

//go:build linux

package worker

import "golang.org/x/sys/unix"

// setAffinity pins the calling OS thread to cpuID with a single-CPU
// CPUSet passed to SchedSetaffinity.
func setAffinity(cpuID int) error {
	var mask unix.CPUSet
	mask.Set(cpuID)
	return unix.SchedSetaffinity(0, &mask)
}

//go:build !linux

package worker

import "fmt"

// setAffinity is unavailable outside Linux; CPU pinning degrades to "let
// the scheduler decide" rather than failing worker startup.
func setAffinity(cpuID int) error {
	return fmt.Errorf("worker: CPU affinity requires linux")
}

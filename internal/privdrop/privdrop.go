// Package privdrop drops root privileges after the Controller has
// finished everything that requires them (opening raw/AF_XDP sockets,
// binding rings) but before the worker loops start processing traffic.
package privdrop

import (
	"fmt"
	"os"
	"strconv"
)

// Target identifies the uid/gid to drop to.
type Target struct {
	UID int
	GID int
}

// FromSudoEnv resolves a Target from the SUDO_UID/SUDO_GID environment
// variables sudo sets on the invoked process, returning ok=false when
// either is absent (not invoked via sudo, or already running unprivileged).
func FromSudoEnv() (Target, bool) {
	uidStr := os.Getenv("SUDO_UID")
	gidStr := os.Getenv("SUDO_GID")
	if uidStr == "" || gidStr == "" {
		return Target{}, false
	}

	uid, err := strconv.Atoi(uidStr)
	if err != nil {
		return Target{}, false
	}
	gid, err := strconv.Atoi(gidStr)
	if err != nil {
		return Target{}, false
	}
	return Target{UID: uid, GID: gid}, true
}

// Needed reports whether the current process is running as root and
// therefore has privileges left to drop.
func Needed() bool {
	return os.Getuid() == 0
}

// Drop switches the process to target's uid/gid. Group is dropped before
// user, since a non-root process generally cannot change its gid.
func Drop(target Target) error {
	if target.GID <= 0 || target.UID <= 0 {
		return fmt.Errorf("privdrop: refusing to drop to uid=%d gid=%d", target.UID, target.GID)
	}
	if err := setgid(target.GID); err != nil {
		return fmt.Errorf("privdrop: setgid(%d): %w", target.GID, err)
	}
	if err := setuid(target.UID); err != nil {
		return fmt.Errorf("privdrop: setuid(%d): %w", target.UID, err)
	}
	return nil
}

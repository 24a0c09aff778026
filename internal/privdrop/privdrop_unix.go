//go:build linux || darwin

package privdrop

import "golang.org/x/sys/unix"

func setuid(uid int) error { return unix.Setuid(uid) }
func setgid(gid int) error { return unix.Setgid(gid) }

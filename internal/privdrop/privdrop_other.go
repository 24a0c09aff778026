//go:build !linux && !darwin

package privdrop

import "fmt"

func setuid(uid int) error { return fmt.Errorf("privdrop: unsupported on this platform") }
func setgid(gid int) error { return fmt.Errorf("privdrop: unsupported on this platform") }

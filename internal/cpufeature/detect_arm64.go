//go:build arm64

package cpufeature

import "golang.org/x/sys/cpu"

func detectArch() Variant {
	if cpu.ARM64.HasASIMD {
		return VariantNEON
	}
	return VariantScalar
}

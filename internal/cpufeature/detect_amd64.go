//go:build amd64

package cpufeature

import "golang.org/x/sys/cpu"

func detectArch() Variant {
	if cpu.X86.HasSSE2 && cpu.X86.HasSSE3 {
		return VariantSSE
	}
	return VariantScalar
}

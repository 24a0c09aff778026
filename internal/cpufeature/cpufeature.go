// Package cpufeature performs one-shot CPU capability detection at process
// startup. The Rewriter reports the detected variant for logging; its
// swaps are scalar whichever variant is detected.
package cpufeature

import "sync"

// Variant names a compiled-in Rewriter implementation.
type Variant int

const (
	VariantScalar Variant = iota
	VariantSSE
	VariantNEON
)

func (v Variant) String() string {
	switch v {
	case VariantSSE:
		return "sse"
	case VariantNEON:
		return "neon"
	default:
		return "scalar"
	}
}

var (
	once     sync.Once
	detected Variant
)

// Detect returns the Rewriter variant this process should use. The
// underlying probe runs exactly once; subsequent calls are a memory read.
func Detect() Variant {
	once.Do(func() {
		detected = detectArch()
	})
	return detected
}

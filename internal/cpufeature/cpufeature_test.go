package cpufeature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIsStableAcrossCalls(t *testing.T) {
	first := Detect()
	second := Detect()
	assert.Equal(t, first, second)
}

func TestVariantString(t *testing.T) {
	assert.Equal(t, "scalar", VariantScalar.String())
	assert.Equal(t, "sse", VariantSSE.String())
	assert.Equal(t, "neon", VariantNEON.String())
}

package reflector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l2reflect/reflect/internal/classify"
)

func TestDefaultConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg.OUIFilter)
	assert.Equal(t, [3]byte{0x00, 0xC0, 0x17}, *cfg.OUIFilter)
	assert.Equal(t, uint16(0), cfg.UDPPort)
	assert.Equal(t, classify.SigAll, cfg.SigMode)
	assert.False(t, cfg.AllowVLAN)
	assert.False(t, cfg.AllowIPv6)
	assert.Equal(t, 1, cfg.StatsInterval)
}

func TestConfigValidateRequiresInterface(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	assert.Error(t, err)
	assert.True(t, IsReason(err, ReasonInvalidArgument))
}

func TestConfigValidateRejectsNonPositiveStatsInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interface = "eth0"
	cfg.StatsInterval = 0
	err := cfg.Validate()
	assert.Error(t, err)
	assert.True(t, IsReason(err, ReasonInvalidArgument))
}

func TestConfigValidateRejectsJSONAndCSVTogether(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interface = "eth0"
	cfg.JSON = true
	cfg.CSV = true
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfigValidateAcceptsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interface = "eth0"
	assert.NoError(t, cfg.Validate())
}

func TestPolicyUsesResolvedLocalMAC(t *testing.T) {
	cfg := DefaultConfig()
	mac := [6]byte{0x00, 0x01, 0x55, 0x17, 0x1E, 0x1B}
	p := cfg.policy(mac)
	assert.Equal(t, mac, p.LocalMAC)
	assert.Equal(t, cfg.OUIFilter, p.OUIFilter)
}

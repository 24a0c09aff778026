package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseFrame is scenario A from the end-to-end test set: an untagged IPv4/UDP
// frame carrying a PROBEOT signature, 54 bytes.
func baseFrame() []byte {
	return []byte{
		0x00, 0x01, 0x55, 0x17, 0x1E, 0x1B, // dst mac
		0x00, 0xC0, 0x17, 0x54, 0x05, 0x98, // src mac
		0x08, 0x00, // ethertype IPv4
		0x45, 0x00, 0x00, 0x27, 0x00, 0x00, 0x40, 0x00, 0x40, 0x11, 0x00, 0x00, // ip header
		0xC0, 0xA8, 0x00, 0x0A, // src ip 192.168.0.10
		0xC0, 0xA8, 0x00, 0x01, // dst ip 192.168.0.1
		0x0F, 0x02, // src port 3842
		0x0F, 0x02, // dst port 3842
		0x00, 0x13, 0x00, 0x00, // udp length, checksum
		0x09, 0x10, 0xEA, 0x1D, 0x00, // 5-byte vendor prefix
		0x50, 0x52, 0x4F, 0x42, 0x45, 0x4F, 0x54, // "PROBEOT"
	}
}

func basePolicy() Policy {
	return Policy{
		LocalMAC:  [6]byte{0x00, 0x01, 0x55, 0x17, 0x1E, 0x1B},
		OUIFilter: &[3]byte{0x00, 0xC0, 0x17},
		UDPPort:   3842,
		SigMode:   SigAll,
	}
}

func TestClassify_AcceptProbeOt(t *testing.T) {
	res := Classify(baseFrame(), basePolicy())
	require.True(t, res.Accept)
	assert.Equal(t, SigProbeOt, res.Sig)
}

func TestClassify_RejectBadMac(t *testing.T) {
	frame := baseFrame()
	frame[0] = 0xFF
	res := Classify(frame, basePolicy())
	require.False(t, res.Accept)
	assert.Equal(t, ReasonBadMac, res.Reason)
}

func TestClassify_RejectBadProtocol(t *testing.T) {
	frame := baseFrame()
	frame[23] = 0x06 // TCP
	res := Classify(frame, basePolicy())
	require.False(t, res.Accept)
	assert.Equal(t, ReasonBadProtocol, res.Reason)
}

func TestClassify_AcceptLatency(t *testing.T) {
	frame := baseFrame()
	copy(frame[47:54], []byte("LATENCY"))
	res := Classify(frame, basePolicy())
	require.True(t, res.Accept)
	assert.Equal(t, SigLatency, res.Sig)
}

func TestClassify_VLANTagged(t *testing.T) {
	base := baseFrame()
	// Insert an 802.1Q tag (81 00 00 64) right after the source MAC; the
	// rest of the frame shifts down by 4 bytes.
	tagged := append([]byte(nil), base[:12]...)
	tagged = append(tagged, 0x81, 0x00, 0x00, 0x64)
	tagged = append(tagged, base[12:]...)

	allowed := basePolicy()
	allowed.AllowVLAN = true
	res := Classify(tagged, allowed)
	require.True(t, res.Accept)
	assert.Equal(t, SigProbeOt, res.Sig)

	disallowed := basePolicy()
	disallowed.AllowVLAN = false
	res = Classify(tagged, disallowed)
	require.False(t, res.Accept)
	assert.Equal(t, ReasonBadEtherType, res.Reason)
}

func TestClassify_TooShort(t *testing.T) {
	frame := baseFrame()[:40]
	res := Classify(frame, basePolicy())
	require.False(t, res.Accept)
	assert.Equal(t, ReasonTooShort, res.Reason)
}

func TestClassify_TruncatedNeverAccepts(t *testing.T) {
	full := baseFrame()
	for n := 0; n < len(full); n++ {
		res := Classify(full[:n], basePolicy())
		assert.False(t, res.Accept, "truncated frame of length %d must never be accepted", n)
	}
}

func TestClassify_WrongSignatureRejected(t *testing.T) {
	frame := baseFrame()
	copy(frame[47:54], []byte("NOPE000"))
	res := Classify(frame, basePolicy())
	require.False(t, res.Accept)
	assert.Equal(t, ReasonBadSignature, res.Reason)
}

func TestClassify_PortFilterMismatch(t *testing.T) {
	frame := baseFrame()
	policy := basePolicy()
	policy.UDPPort = 9999
	res := Classify(frame, policy)
	require.False(t, res.Accept)
	assert.Equal(t, ReasonBadSignature, res.Reason)
}

func TestClassify_Y1564Padding(t *testing.T) {
	frame := baseFrame()
	copy(frame[47:54], []byte{'Y', '1', '5', '6', '4', 0x00, 0x00})
	res := Classify(frame, basePolicy())
	require.True(t, res.Accept)
	assert.Equal(t, SigY1564Tag, res.Sig)
}

func TestClassify_OUIMismatch(t *testing.T) {
	frame := baseFrame()
	frame[6], frame[7], frame[8] = 0x01, 0x02, 0x03
	res := Classify(frame, basePolicy())
	require.False(t, res.Accept)
	assert.Equal(t, ReasonBadMac, res.Reason)
}

func TestClassify_NeverAcceptsShorterThanMinimum(t *testing.T) {
	// Property: Accept implies len >= minimum for the matched path.
	res := Classify(baseFrame(), basePolicy())
	require.True(t, res.Accept)
	assert.GreaterOrEqual(t, len(baseFrame()), 54)
}

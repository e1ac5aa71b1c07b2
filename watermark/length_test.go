package watermark

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectMessageStopsAtTrailingGarbage(t *testing.T) {
	payload := append([]byte("hello"), 0x00, 0x01, 0x80)

	decoded := selectMessage(UnpackBits(payload), 5)
	assert.Equal(t, "hello", decoded.Message)
	assert.Equal(t, []byte("hello"), decoded.RawBytes)
}

func TestSelectMessageIgnoresBadHint(t *testing.T) {
	payload := append([]byte("fourier"), 0x03, 0x90)

	decoded := selectMessage(UnpackBits(payload), 1543)
	assert.Equal(t, "fourier", decoded.Message)
}

func TestSelectMessagePrefersLongerWhenNothingIsPrintable(t *testing.T) {
	decoded := selectMessage(UnpackBits([]byte{0, 0, 0}), 0)
	assert.Len(t, decoded.RawBytes, 3)
}

func TestSelectMessageNoWholeByte(t *testing.T) {
	decoded := selectMessage([]byte{1, 0, 1, 1, 0, 0, 1}, 3)
	assert.Equal(t, "", decoded.Message)
	assert.NotNil(t, decoded.RawBytes)
	assert.Empty(t, decoded.RawBytes)
}

func TestSelectMessageResultDoesNotAlias(t *testing.T) {
	decoded := selectMessage(UnpackBits([]byte("ab\x00\x00")), 2)
	assert.Equal(t, 2, cap(decoded.RawBytes))
}

func TestPrintableRatio(t *testing.T) {
	assert.Equal(t, 0.0, printableRatio(nil))
	assert.Equal(t, 1.0, printableRatio([]byte("a b\t\n\r\f~")))
	assert.Equal(t, 0.5, printableRatio([]byte{'x', 0x7f}))
	assert.Equal(t, 0.0, printableRatio([]byte{0x0b, 0x00, 0xff}))
}

func TestLossyString(t *testing.T) {
	assert.Equal(t, "plain", lossyString([]byte("plain")))
	assert.Equal(t, "héllo", lossyString([]byte("héllo")))
	assert.Equal(t, "a�b", lossyString([]byte{'a', 0xff, 'b'}))
	// each byte of a truncated sequence is replaced on its own
	assert.Equal(t, "��", lossyString([]byte{0xe2, 0x82}))
}

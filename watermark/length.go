package watermark

import (
	"strings"
	"unicode/utf8"
)

// DecodedWatermark is the recovered payload and its lossy UTF-8 reading.
type DecodedWatermark struct {
	Message  string `json:"message"`
	RawBytes []byte `json:"raw_bytes"`
}

func newDecodedWatermark(raw []byte) DecodedWatermark {
	return DecodedWatermark{
		Message:  lossyString(raw),
		RawBytes: raw,
	}
}

// selectMessage tries every whole-byte length the payload bits allow and
// keeps the most text-like one, nudged toward the header hint. The first
// best candidate wins ties.
func selectMessage(dataBits []byte, hint int) DecodedWatermark {
	maxBytes := len(dataBits) / BitsInByte
	if maxBytes == 0 {
		return DecodedWatermark{RawBytes: []byte{}}
	}

	all := PackBits(dataBits[:maxBytes*BitsInByte])

	bestLen, bestScore := 0, 0.0
	for length := 1; length <= maxBytes; length++ {
		score := lengthScore(all[:length], hint)
		if bestLen == 0 || score > bestScore {
			bestLen, bestScore = length, score
		}
	}

	return newDecodedWatermark(all[:bestLen:bestLen])
}

func lengthScore(candidate []byte, hint int) float64 {
	length := len(candidate)
	distance := length - hint
	if distance < 0 {
		distance = -distance
	}
	proximity := 1 / (1 + float64(distance))
	return printableRatio(candidate)*2 + float64(length)*0.05 + 0.1*proximity
}

// printableRatio is the fraction of bytes that are visible ASCII or ASCII
// whitespace (space, \t, \n, \f, \r).
func printableRatio(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	printable := 0
	for _, b := range data {
		if isPrintable(b) {
			printable++
		}
	}
	return float64(printable) / float64(len(data))
}

func isPrintable(b byte) bool {
	switch {
	case b >= 0x21 && b <= 0x7e:
		return true
	case b == ' ', b == '\t', b == '\n', b == '\f', b == '\r':
		return true
	}
	return false
}

// lossyString decodes data as UTF-8, replacing every invalid byte with
// U+FFFD. A truncated multi-byte sequence therefore yields one U+FFFD per
// byte, where decoders following the Unicode maximal-subpart practice emit
// a single one.
func lossyString(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var sb strings.Builder
	sb.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		sb.WriteRune(r)
		data = data[size:]
	}
	return sb.String()
}

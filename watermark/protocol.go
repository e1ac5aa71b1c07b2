package watermark

const (
	LengthHeaderBits = 16
	BitsInByte       = 8
)

// PilotPattern is embedded ahead of the header so the decoder can calibrate
// its threshold and detect inverted polarity.
var PilotPattern = [8]byte{0, 1, 0, 1, 0, 1, 0, 1}

// headerStart and payloadStart index into a full bit sequence.
const (
	headerStart  = len(PilotPattern)
	payloadStart = headerStart + LengthHeaderBits
)

// BuildBitSequence lays out pilot, 16-bit length and payload, MSB first.
// Lengths above 65535 wrap.
func BuildBitSequence(message string) []byte {
	payload := []byte(message)

	bits := make([]byte, 0, payloadStart+len(payload)*BitsInByte)
	bits = append(bits, PilotPattern[:]...)
	bits = append(bits, EncodeLengthHeader(uint16(len(payload)))...)
	bits = append(bits, UnpackBits(payload)...)

	return bits
}

func EncodeLengthHeader(length uint16) []byte {
	bits := make([]byte, 0, LengthHeaderBits)
	for shift := LengthHeaderBits - 1; shift >= 0; shift-- {
		bits = append(bits, byte(length>>shift)&1)
	}
	return bits
}

// DecodeLengthHeader reads bits as a big-endian unsigned value. The result
// is a hint: header bits go through the same noisy channel as the payload.
func DecodeLengthHeader(bits []byte) int {
	var length uint16
	for _, bit := range bits {
		length = (length << 1) | uint16(bit&1)
	}
	return int(length)
}

// UnpackBits expands bytes into bits, MSB first.
func UnpackBits(data []byte) []byte {
	bits := make([]byte, 0, len(data)*BitsInByte)
	for _, b := range data {
		for i := BitsInByte - 1; i >= 0; i-- {
			bits = append(bits, (b>>i)&1)
		}
	}
	return bits
}

// PackBits groups bits MSB first. A trailing partial byte is dropped.
func PackBits(bits []byte) []byte {
	data := make([]byte, 0, len(bits)/BitsInByte)
	for i := 0; i+BitsInByte <= len(bits); i += BitsInByte {
		var b byte
		for j := range BitsInByte {
			b = (b << 1) | (bits[i+j] & 1)
		}
		data = append(data, b)
	}
	return data
}

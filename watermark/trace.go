package watermark

import (
	"slices"
	"strings"
)

// EncodeTrace describes what the embedder did, for reporting and plots.
type EncodeTrace struct {
	OriginalFrame    []float64 `json:"original_frame"`
	WatermarkedFrame []float64 `json:"watermarked_frame"`
	BitSequence      []byte    `json:"bit_sequence"`
	FrameLength      int       `json:"frame_length"`
	TransformSize    int       `json:"transform_size"`
	Strength         float64   `json:"strength"`
	Embedded         bool      `json:"embedded"`
}

// DecodeTrace exposes the decoder's intermediate statistics. It is filled
// alongside decoding and never feeds back into it.
type DecodeTrace struct {
	BitSequence    []byte    `json:"bit_sequence"`
	Scores         []float64 `json:"scores"`
	Votes          []float64 `json:"votes"`
	Threshold      float64   `json:"threshold"`
	AvgHigh        float64   `json:"avg_high"`
	AvgLow         float64   `json:"avg_low"`
	Inverted       bool      `json:"inverted"`
	ValidFrames    int       `json:"valid_frames"`
	SkippedFrames  int       `json:"skipped_frames"`
	InvertedFrames int       `json:"inverted_frames"`
	LengthHint     int       `json:"length_hint"`
	FirstFrame     []float64 `json:"first_frame"`
}

func leadingFrame(samples []float64, frameLen int) []float64 {
	return slices.Clone(samples[:min(frameLen, len(samples))])
}

// bitString renders bits as "0101...".
func bitString(bits []byte) string {
	var sb strings.Builder
	sb.Grow(len(bits))
	for _, b := range bits {
		sb.WriteByte('0' + b&1)
	}
	return sb.String()
}

package watermark

import "math"

// FrameLength returns the number of samples in one frame, at least 1.
func FrameLength(sampleRate, frameDurationMs int) int {
	n := int(math.Round(float64(sampleRate) * float64(frameDurationMs) / 1000))
	return max(n, 1)
}

// TransformSize is the smallest power of two >= frameLen, minimum 2.
func TransformSize(frameLen int) int {
	n := 2
	for n < frameLen {
		n <<= 1
	}
	return n
}

// spectrumLen is the number of bins a real FFT of size n produces.
func spectrumLen(n int) int {
	return n/2 + 1
}

// eligibleBins counts the bins at or above startBin for a transform of size n.
func eligibleBins(n, startBin int) int {
	return max(spectrumLen(n)-startBin, 0)
}

type frame struct {
	index  int
	offset int
	length int
}

// segment carves total samples into sequential, non-overlapping frames.
func segment(total, frameLen int) []frame {
	frames := make([]frame, 0, (total+frameLen-1)/frameLen)
	for offset := 0; offset < total; offset += frameLen {
		frames = append(frames, frame{
			index:  len(frames),
			offset: offset,
			length: min(frameLen, total-offset),
		})
	}
	return frames
}

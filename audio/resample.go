package audio

import (
	"math"
	"slices"
)

// Resample converts samples between rates by linear interpolation. Output
// positions past the last input pair repeat the final sample.
func Resample(samples []float64, fromRate, toRate int) []float64 {
	if len(samples) == 0 || fromRate == toRate || fromRate <= 0 || toRate <= 0 {
		return slices.Clone(samples)
	}

	ratio := float64(toRate) / float64(fromRate)
	newLen := int(math.Ceil(float64(len(samples)) * ratio))
	output := make([]float64, newLen)

	last := samples[len(samples)-1]
	for idx := range output {
		srcPos := float64(idx) / ratio
		base := int(srcPos)
		frac := srcPos - float64(base)

		if base+1 < len(samples) {
			start, end := samples[base], samples[base+1]
			output[idx] = start + (end-start)*frac
		} else {
			output[idx] = last
		}
	}
	return output
}

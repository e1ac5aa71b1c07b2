package watermark

import (
	"math"
	"math/cmplx"
)

// eligibleMagnitudes returns |X[k]| for every bin k >= startBin.
func eligibleMagnitudes(spectrum []complex128, startBin int) []float64 {
	if startBin >= len(spectrum) {
		return nil
	}
	mags := make([]float64, 0, len(spectrum)-startBin)
	for _, bin := range spectrum[startBin:] {
		mags = append(mags, cmplx.Abs(bin))
	}
	return mags
}

// isFlat reports whether every sample equals the first, so the chunk carries
// no AC content.
func isFlat(chunk []float64) bool {
	for _, s := range chunk {
		if s != chunk[0] {
			return false
		}
	}
	return true
}

// spectralScores scores each bin as its log magnitude minus the mean log
// magnitude of up to radius neighbours on each side, the bin itself
// excluded. Windows are truncated at the edges.
func spectralScores(mags []float64, radius int) []float64 {
	logMags := make([]float64, len(mags))
	prefix := make([]float64, len(mags)+1)
	for i, m := range mags {
		logMags[i] = math.Log(max(m, logEpsilon))
		prefix[i+1] = prefix[i] + logMags[i]
	}

	scores := make([]float64, len(mags))
	for i, value := range logMags {
		start := max(i-radius, 0)
		end := min(i+radius+1, len(logMags))
		neighbours := end - start - 1
		if neighbours <= 0 {
			continue
		}
		baseline := (prefix[end] - prefix[start] - value) / float64(neighbours)
		scores[i] = value - baseline
	}
	return scores
}

package audio

import (
	"math"
)

// CalculatePSNRFloat64 calculates PSNR for float64 audio samples
func CalculatePSNRFloat64(original, watermarked []float64) float64 {
	if len(original) != len(watermarked) {
		return 0.0
	}

	if len(original) == 0 {
		return 0.0
	}

	// Calculate Mean Squared Error (MSE)
	var mse float64
	for i := range original {
		diff := original[i] - watermarked[i]
		mse += diff * diff
	}
	mse /= float64(len(original))

	// If MSE is 0, signals are identical
	if mse == 0 {
		return math.Inf(1)
	}

	// For normalized float audio (-1.0 to 1.0), MAX_SIGNAL_VALUE = 1.0
	maxSignalValue := 1.0
	return 20 * math.Log10(maxSignalValue/math.Sqrt(mse))
}

// CalculateSNR is the ratio of signal power to the power of the difference
// introduced by watermarking, in dB.
func CalculateSNR(original, watermarked []float64) float64 {
	if len(original) != len(watermarked) || len(original) == 0 {
		return 0.0
	}

	var signal, noise float64
	for i := range original {
		diff := original[i] - watermarked[i]
		signal += original[i] * original[i]
		noise += diff * diff
	}

	if noise == 0 {
		return math.Inf(1)
	}
	if signal == 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(signal/noise)
}

// FiniteOr replaces an infinite or NaN quality figure with fallback, for
// JSON output.
func FiniteOr(value, fallback float64) float64 {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return fallback
	}
	return value
}

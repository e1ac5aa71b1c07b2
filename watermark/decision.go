package watermark

import "math"

// decideBits turns aggregated scores and vote ratios into bits.
//
// Header bits need both a vote majority and a score on the 1 side, since
// the header seeds the length search. Payload bits trust the score when it
// is clearly on one side and fall back to the votes or a softer score
// comparison in between.
func (p Params) decideBits(scores, ratios []float64, cal globalCalibration) []byte {
	band := math.Abs(cal.avgHigh-cal.avgLow) * p.BandFraction

	bits := make([]byte, len(scores))
	for idx, score := range scores {
		ratio := ratios[idx]
		if cal.inverted {
			ratio = 1 - ratio
		}

		var isOne, isZero, soft bool
		if cal.inverted {
			isOne = score <= cal.threshold
			isZero = score >= cal.threshold+band*p.ConfidentBands
			soft = score <= cal.threshold+band*p.SoftBands
		} else {
			isOne = score >= cal.threshold
			isZero = score <= cal.threshold-band*p.ConfidentBands
			soft = score >= cal.threshold-band*p.SoftBands
		}

		switch {
		case idx >= headerStart && idx < payloadStart:
			bits[idx] = b2u(ratio >= p.HeaderVoteRatio && isOne)
		case isOne:
			bits[idx] = 1
		case isZero:
			bits[idx] = 0
		default:
			bits[idx] = b2u(ratio >= p.PayloadVoteRatio || soft)
		}
	}
	return bits
}

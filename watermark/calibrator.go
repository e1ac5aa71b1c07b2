package watermark

// pilotCalibration is one frame's reading of the pilot.
type pilotCalibration struct {
	threshold float64
	matches   int
	inverted  bool
}

// votesOne reports whether score reads as a 1 under this frame's polarity.
func (c pilotCalibration) votesOne(score float64) bool {
	if c.inverted {
		return score <= c.threshold
	}
	return score >= c.threshold
}

// pilotAverages returns the mean score over pilot-1 and pilot-0 positions.
// ok is false when scores are too short to hold the pilot.
func pilotAverages(scores []float64) (avgHigh, avgLow float64, ok bool) {
	if len(scores) < len(PilotPattern) {
		return 0, 0, false
	}

	var sumHigh, sumLow float64
	var countHigh, countLow int
	for i, expected := range PilotPattern {
		if expected == 1 {
			sumHigh += scores[i]
			countHigh++
		} else {
			sumLow += scores[i]
			countLow++
		}
	}
	if countHigh == 0 || countLow == 0 {
		return 0, 0, false
	}
	return sumHigh / float64(countHigh), sumLow / float64(countLow), true
}

// framePilotStats finds the midpoint threshold from the pilot and keeps the
// polarity that reproduces more pilot bits. Ties stay normal.
func framePilotStats(scores []float64) (pilotCalibration, bool) {
	avgHigh, avgLow, ok := pilotAverages(scores)
	if !ok {
		return pilotCalibration{}, false
	}
	threshold := (avgHigh + avgLow) / 2

	normal := pilotCalibration{threshold: threshold}
	inverted := pilotCalibration{threshold: threshold, inverted: true}
	for i, expected := range PilotPattern {
		if b2u(normal.votesOne(scores[i])) == expected {
			normal.matches++
		}
		if b2u(inverted.votesOne(scores[i])) == expected {
			inverted.matches++
		}
	}

	if inverted.matches > normal.matches {
		return inverted, true
	}
	return normal, true
}

// globalCalibration is the decision setup derived from aggregated scores.
type globalCalibration struct {
	avgHigh   float64
	avgLow    float64
	threshold float64
	inverted  bool
}

// calibrate derives the global threshold from the median scores. Polarity
// flips when most valid frames were inverted or the pilot averages are
// reversed.
func calibrate(agg aggregate) globalCalibration {
	avgHigh, avgLow, _ := pilotAverages(agg.medians)
	return globalCalibration{
		avgHigh:   avgHigh,
		avgLow:    avgLow,
		threshold: (avgHigh + avgLow) / 2,
		inverted:  agg.majorityInverted() || avgHigh < avgLow,
	}
}

func b2u(b bool) byte {
	if b {
		return 1
	}
	return 0
}

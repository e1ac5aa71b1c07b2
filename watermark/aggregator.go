package watermark

import (
	"fmt"
	"slices"
)

// frameResult is what one frame contributes to aggregation. Skipped frames
// contribute nothing.
type frameResult struct {
	valid    bool
	inverted bool
	scores   []float64
	votes    []bool
}

// aggregate folds all frame results into per-bin statistics.
type aggregate struct {
	medians        []float64
	ratios         []float64
	validFrames    int
	skippedFrames  int
	invertedFrames int
}

// majorityInverted counts a tie as inverted.
func (a aggregate) majorityInverted() bool {
	return a.invertedFrames*2 >= max(a.validFrames, 1)
}

// aggregateFrames folds results in frame order. It fails with
// ErrNoReliableFrames when no frame was valid.
func aggregateFrames(results []frameResult, bins int) (aggregate, error) {
	agg := aggregate{}
	perBin := make([][]float64, bins)
	votes := make([]int, bins)

	for _, r := range results {
		if !r.valid {
			agg.skippedFrames++
			continue
		}
		agg.validFrames++
		if r.inverted {
			agg.invertedFrames++
		}
		for i := 0; i < len(r.scores) && i < bins; i++ {
			perBin[i] = append(perBin[i], r.scores[i])
			if r.votes[i] {
				votes[i]++
			}
		}
	}

	if agg.validFrames == 0 {
		return agg, fmt.Errorf("%w (%d frames skipped)", ErrNoReliableFrames, agg.skippedFrames)
	}

	agg.medians = make([]float64, bins)
	agg.ratios = make([]float64, bins)
	for i := range bins {
		agg.medians[i] = median(perBin[i])
		agg.ratios[i] = float64(votes[i]) / float64(agg.validFrames)
	}
	return agg, nil
}

// median returns the middle element; for even counts the upper of the two
// middle elements. An empty slice yields 0.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted[len(sorted)/2]
}

package watermark

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// With avgHigh 1 and avgLow -1 the threshold is 0 and one band is 0.2, so
// the confident zero line sits at -0.6 and the soft line at -0.15.
func TestDecideBitsPayload(t *testing.T) {
	p := DefaultParams()
	cal := globalCalibration{avgHigh: 1, avgLow: -1}

	cases := []struct {
		name  string
		score float64
		ratio float64
		want  byte
	}{
		{"above threshold", 0.5, 0, 1},
		{"confident zero ignores votes", -0.7, 1, 0},
		{"soft one", -0.1, 0, 1},
		{"votes carry the middle", -0.3, 0.5, 1},
		{"votes too weak", -0.3, 0.3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scores := make([]float64, payloadStart+1)
			ratios := make([]float64, payloadStart+1)
			scores[payloadStart] = tc.score
			ratios[payloadStart] = tc.ratio

			bits := p.decideBits(scores, ratios, cal)
			assert.Equal(t, tc.want, bits[payloadStart])
		})
	}
}

func TestDecideBitsHeaderNeedsVotesAndScore(t *testing.T) {
	p := DefaultParams()
	cal := globalCalibration{avgHigh: 1, avgLow: -1}

	scores := make([]float64, payloadStart)
	ratios := make([]float64, payloadStart)
	scores[headerStart], ratios[headerStart] = 0.5, 0.6
	scores[headerStart+1], ratios[headerStart+1] = 0.5, 0.5
	scores[headerStart+2], ratios[headerStart+2] = -0.1, 0.9

	bits := p.decideBits(scores, ratios, cal)
	assert.Equal(t, byte(1), bits[headerStart])
	assert.Equal(t, byte(0), bits[headerStart+1])
	assert.Equal(t, byte(0), bits[headerStart+2])
}

func TestDecideBitsInverted(t *testing.T) {
	p := DefaultParams()
	cal := globalCalibration{avgHigh: -1, avgLow: 1, inverted: true}

	cases := []struct {
		name  string
		score float64
		ratio float64
		want  byte
	}{
		{"below threshold", -0.5, 1, 1},
		{"confident zero", 0.7, 0, 0},
		{"soft one", 0.1, 1, 1},
		// ratio counts normal-polarity votes, so it is flipped first
		{"flipped votes carry the middle", 0.3, 0.2, 1},
		{"flipped votes too weak", 0.3, 0.9, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scores := []float64{tc.score}
			ratios := []float64{tc.ratio}
			assert.Equal(t, tc.want, p.decideBits(scores, ratios, cal)[0])
		})
	}
}

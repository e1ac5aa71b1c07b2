package watermark

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// testSignal mixes four tones below the embedding band with deterministic
// pseudo-noise, so the watermarked bins sit on a noisy floor.
func testSignal(seconds float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range n {
		t := float64(i) / float64(sampleRate)
		signal := math.Sin(2*math.Pi*200*t)*0.15 +
			math.Sin(2*math.Pi*440*t)*0.15 +
			math.Sin(2*math.Pi*880*t)*0.10 +
			math.Sin(2*math.Pi*1320*t)*0.08
		noise := float64((i*12345+i*i)%10000)/10000*0.2 - 0.1
		samples[i] = signal + noise
	}
	return samples
}

func constantSignal(n int, value float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = value
	}
	return samples
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestCodec(t *testing.T, mutate func(p *Params)) *Codec {
	t.Helper()
	params := DefaultParams()
	if mutate != nil {
		mutate(&params)
	}
	codec, err := NewCodec(params, quietLogger())
	require.NoError(t, err)
	return codec
}

package watermark

// bitGains are the per-bit amplitude factors applied to eligible bins.
type bitGains struct {
	one  float64
	zero float64
}

func gainsFor(strength float64) bitGains {
	return bitGains{
		one:  1 + strength,
		zero: max(0, 1-strength),
	}
}

func (g bitGains) forBit(bit byte) float64 {
	if bit == 1 {
		return g.one
	}
	return g.zero
}

// embedFrames imprints the same bit sequence into every frame. Bits past
// the last bin are dropped for that frame. The output has the input length.
func embedFrames(samples []float64, bits []byte, frameLen, startBin, workers int, gains bitGains) ([]float64, error) {
	n := TransformSize(frameLen)
	output := make([]float64, len(samples))

	err := forEachFrame(segment(len(samples), frameLen), workers, n, func(t *transform, f frame) error {
		chunk := samples[f.offset : f.offset+f.length]

		spectrum, err := t.forward(chunk)
		if err != nil {
			return err
		}

		for i, bit := range bits {
			bin := startBin + i
			if bin >= len(spectrum) {
				break
			}
			spectrum[bin] *= complex(gains.forBit(bit), 0)
		}

		restored, err := t.inverse()
		if err != nil {
			return err
		}
		copy(output[f.offset:f.offset+f.length], restored[:f.length])
		return nil
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

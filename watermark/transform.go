package watermark

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/dsp/fourier"
)

// transform is one FFT plan with its scratch buffers. gonum plans keep
// internal work space, so a transform must not be shared between goroutines.
type transform struct {
	fft      *fourier.FFT
	buffer   []float64
	spectrum []complex128
}

func newTransform(n int) *transform {
	return &transform{
		fft:      fourier.NewFFT(n),
		buffer:   make([]float64, n),
		spectrum: make([]complex128, spectrumLen(n)),
	}
}

func (t *transform) size() int {
	return len(t.buffer)
}

// forward zero-pads samples into the buffer and computes the spectrum.
func (t *transform) forward(samples []float64) (spectrum []complex128, err error) {
	defer recoverTransform("forward", &err)

	clear(t.buffer)
	copy(t.buffer, samples)
	t.spectrum = t.fft.Coefficients(t.spectrum, t.buffer)
	if len(t.spectrum) != spectrumLen(t.size()) {
		return nil, fmt.Errorf("%w: forward produced %d bins, want %d", ErrTransform, len(t.spectrum), spectrumLen(t.size()))
	}
	return t.spectrum, nil
}

// inverse turns the current spectrum back into samples, normalized by the
// transform length.
func (t *transform) inverse() (samples []float64, err error) {
	defer recoverTransform("inverse", &err)

	t.buffer = t.fft.Sequence(t.buffer, t.spectrum)
	scale := 1 / float64(t.size())
	for i := range t.buffer {
		t.buffer[i] *= scale
	}
	return t.buffer, nil
}

func recoverTransform(direction string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %s: %v", ErrTransform, direction, r)
	}
}

// forEachFrame runs fn over all frames on up to workers goroutines, each with
// its own transform of size n. fn may only write state owned by its frame.
func forEachFrame(frames []frame, workers, n int, fn func(t *transform, f frame) error) error {
	workers = min(workers, len(frames))

	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			t := newTransform(n)
			for i := w; i < len(frames); i += workers {
				if err := fn(t, frames[i]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

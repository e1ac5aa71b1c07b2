package watermark

import "errors"

var (
	// ErrNoReliableFrames means no frame matched the pilot well enough; the
	// input carries no detectable watermark.
	ErrNoReliableFrames = errors.New("unable to decode watermark: no reliable frames detected")

	// ErrTransform signals a spectrum of unexpected size, which only a bug
	// can produce.
	ErrTransform = errors.New("spectral transform failed")
)

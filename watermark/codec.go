package watermark

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// Codec embeds and blindly extracts watermarks with a fixed parameter set.
// It holds no per-call state and is safe for concurrent use.
type Codec struct {
	params Params
	log    logrus.FieldLogger
}

// NewCodec validates params and returns a codec. A nil logger uses the
// logrus standard logger.
func NewCodec(params Params, logger logrus.FieldLogger) (*Codec, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid watermark params: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Codec{
		params: params,
		log:    logger.WithField("component", "watermark"),
	}, nil
}

func (c *Codec) Params() Params {
	return c.params
}

// Encode embeds message into samples. When the frame is too short to carry
// the pilot the input is returned unchanged.
func (c *Codec) Encode(samples []float64, sampleRate int, message string, frameDurationMs, strengthPercent int) ([]float64, error) {
	encoded, _, err := c.EncodeWithTrace(samples, sampleRate, message, frameDurationMs, strengthPercent)
	return encoded, err
}

func (c *Codec) EncodeWithTrace(samples []float64, sampleRate int, message string, frameDurationMs, strengthPercent int) ([]float64, *EncodeTrace, error) {
	bits := BuildBitSequence(message)
	frameLen := FrameLength(sampleRate, frameDurationMs)
	n := TransformSize(frameLen)

	trace := &EncodeTrace{
		OriginalFrame: leadingFrame(samples, frameLen),
		BitSequence:   bits,
		FrameLength:   frameLen,
		TransformSize: n,
		Strength:      EffectiveStrength(strengthPercent),
	}

	fields := logrus.Fields{
		"sample_rate":   sampleRate,
		"frame_length":  frameLen,
		"message_bytes": len(message),
		"bits":          len(bits),
	}

	if eligibleBins(n, c.params.StartBin) < len(PilotPattern) {
		c.log.WithFields(fields).Debug("frame too short to carry the pilot, leaving audio untouched")
		return slices.Clone(samples), trace, nil
	}

	encoded, err := embedFrames(samples, bits, frameLen, c.params.StartBin, c.params.workers(), gainsFor(trace.Strength))
	if err != nil {
		return nil, trace, fmt.Errorf("failed to embed watermark: %w", err)
	}

	trace.Embedded = true
	trace.WatermarkedFrame = leadingFrame(encoded, frameLen)
	c.log.WithFields(fields).WithField("strength", trace.Strength).Debug("embedded watermark")

	return encoded, trace, nil
}

// Decode recovers a watermark without the original audio. It fails with
// ErrNoReliableFrames when no frame carries a recognisable pilot.
func (c *Codec) Decode(samples []float64, sampleRate int) (DecodedWatermark, error) {
	decoded, _, err := c.DecodeWithTrace(samples, sampleRate)
	return decoded, err
}

func (c *Codec) DecodeWithTrace(samples []float64, sampleRate int) (DecodedWatermark, *DecodeTrace, error) {
	frameLen := FrameLength(sampleRate, c.params.FrameDurationMs)
	trace := &DecodeTrace{FirstFrame: leadingFrame(samples, frameLen)}
	empty := DecodedWatermark{RawBytes: []byte{}}

	results, bins, err := c.analyzeFrames(samples, frameLen)
	if err != nil {
		return empty, trace, fmt.Errorf("failed to analyze frames: %w", err)
	}

	agg, err := aggregateFrames(results, bins)
	trace.ValidFrames = agg.validFrames
	trace.SkippedFrames = agg.skippedFrames
	trace.InvertedFrames = agg.invertedFrames
	if err != nil {
		return empty, trace, err
	}

	if len(agg.medians) < payloadStart {
		c.log.WithField("bins", len(agg.medians)).Debug("not enough bins for pilot and header")
		return empty, trace, nil
	}

	cal := calibrate(agg)
	bits := c.params.decideBits(agg.medians, agg.ratios, cal)
	hint := DecodeLengthHeader(bits[headerStart:payloadStart])
	decoded := selectMessage(bits[payloadStart:], hint)

	trace.BitSequence = bits
	trace.Scores = agg.medians
	trace.Votes = agg.ratios
	trace.Threshold = cal.threshold
	trace.AvgHigh = cal.avgHigh
	trace.AvgLow = cal.avgLow
	trace.Inverted = cal.inverted
	trace.LengthHint = hint

	c.log.WithFields(logrus.Fields{
		"valid_frames":   agg.validFrames,
		"skipped_frames": agg.skippedFrames,
		"inverted":       cal.inverted,
		"threshold":      cal.threshold,
		"header_bits":    bitString(bits[headerStart:payloadStart]),
		"length_hint":    hint,
		"chosen_length":  len(decoded.RawBytes),
	}).Debug("decoded watermark")

	return decoded, trace, nil
}

// analyzeFrames scores every frame and calibrates it against the pilot.
// Results are stored by frame index so aggregation sees frame order.
func (c *Codec) analyzeFrames(samples []float64, frameLen int) ([]frameResult, int, error) {
	n := TransformSize(frameLen)
	bins := eligibleBins(n, c.params.StartBin)
	frames := segment(len(samples), frameLen)
	results := make([]frameResult, len(frames))

	err := forEachFrame(frames, c.params.workers(), n, func(t *transform, f frame) error {
		chunk := samples[f.offset : f.offset+f.length]
		// zero padding turns a flat chunk into a pulse whose spectrum ripples like the pilot
		if isFlat(chunk) {
			return nil
		}

		spectrum, err := t.forward(chunk)
		if err != nil {
			return err
		}

		mags := eligibleMagnitudes(spectrum, c.params.StartBin)
		if len(mags) < len(PilotPattern) {
			return nil
		}

		scores := spectralScores(mags, c.params.WindowRadius)
		cal, ok := framePilotStats(scores)
		if !ok || cal.matches < c.params.MinPilotMatches {
			return nil
		}

		votes := make([]bool, len(scores))
		for i, score := range scores {
			votes[i] = cal.votesOne(score)
		}
		results[f.index] = frameResult{
			valid:    true,
			inverted: cal.inverted,
			scores:   scores,
			votes:    votes,
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return results, bins, nil
}

var defaultCodec = &Codec{
	params: DefaultParams(),
	log:    logrus.StandardLogger().WithField("component", "watermark"),
}

// Encode embeds message with the default parameters.
func Encode(samples []float64, sampleRate int, message string, frameDurationMs, strengthPercent int) ([]float64, error) {
	return defaultCodec.Encode(samples, sampleRate, message, frameDurationMs, strengthPercent)
}

// Decode extracts a watermark with the default parameters.
func Decode(samples []float64, sampleRate int) (DecodedWatermark, error) {
	return defaultCodec.Decode(samples, sampleRate)
}

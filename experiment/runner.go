package experiment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"watermark-backend/audio"
	"watermark-backend/config"
	"watermark-backend/models"
	"watermark-backend/watermark"
)

type Runner struct {
	params   watermark.Params
	cfg      config.ExperimentConfig
	store    *ResultStore
	log      logrus.FieldLogger
	progress io.Writer
}

// NewRunner prepares a sweep. progress receives the bar; nil hides it.
func NewRunner(params watermark.Params, cfg config.ExperimentConfig, store *ResultStore, logger logrus.FieldLogger, progress io.Writer) *Runner {
	if progress == nil {
		progress = io.Discard
	}
	return &Runner{
		params:   params,
		cfg:      cfg,
		store:    store,
		log:      logger.WithField("component", "experiment"),
		progress: progress,
	}
}

// Run embeds the configured message at every grid point, quantizes to 16 bits,
// decodes with the same frame duration and records the outcome. Stored
// results are reused.
func (r *Runner) Run(ctx context.Context, carrier []float64, carrierRate int) ([]models.ExperimentResult, error) {
	if r.cfg.OutputDir != "" {
		if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	total := len(r.cfg.SampleRates) * len(r.cfg.FrameDurationsMs) * len(r.cfg.StrengthPercents)
	if total == 0 {
		return nil, nil
	}
	fingerprint := CarrierFingerprint(carrier, carrierRate)

	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(r.progress))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("Experiment: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	results, err := r.sweep(ctx, carrier, carrierRate, fingerprint, bar)
	if err != nil {
		bar.Abort(false)
	}
	p.Wait()
	return results, err
}

func (r *Runner) sweep(ctx context.Context, carrier []float64, carrierRate int, fingerprint uint64, bar *mpb.Bar) ([]models.ExperimentResult, error) {
	var results []models.ExperimentResult

	for _, rate := range r.cfg.SampleRates {
		samples := audio.Resample(carrier, carrierRate, rate)

		for _, frameMs := range r.cfg.FrameDurationsMs {
			frameLen := watermark.FrameLength(rate, frameMs)
			if frameLen <= r.params.StartBin {
				r.log.WithFields(logrus.Fields{
					"sample_rate": rate,
					"frame_ms":    frameMs,
				}).Warn("skipping configuration: frame length too small")
				bar.IncrBy(len(r.cfg.StrengthPercents))
				continue
			}

			params := r.params
			params.FrameDurationMs = frameMs
			codec, err := watermark.NewCodec(params, r.log)
			if err != nil {
				return results, err
			}
			params.Workers = 0
			paramsKey := fmt.Sprintf("%+v", params)

			for _, strength := range r.cfg.StrengthPercents {
				if err := ctx.Err(); err != nil {
					return results, err
				}

				key := resultKey(fingerprint, paramsKey, r.cfg.Message, rate, frameMs, strength)
				result, ok, err := r.store.Get(key)
				if err != nil {
					return results, err
				}
				if ok {
					result.Cached = true
				} else {
					result, err = r.runPoint(codec, samples, rate, frameMs, strength)
					if err != nil {
						return results, err
					}
					if err := r.store.Put(key, result); err != nil {
						return results, err
					}
				}

				r.log.WithFields(logrus.Fields{
					"sample_rate": rate,
					"frame_ms":    frameMs,
					"strength":    strength,
					"psnr":        result.PSNR,
					"success":     result.Success,
					"cached":      result.Cached,
				}).Info("experiment point")

				results = append(results, result)
				bar.Increment()
			}
		}
	}
	return results, nil
}

func (r *Runner) runPoint(codec *watermark.Codec, samples []float64, rate, frameMs, strength int) (models.ExperimentResult, error) {
	result := models.ExperimentResult{
		SampleRate:      rate,
		FrameDurationMs: frameMs,
		StrengthPercent: strength,
		Strength:        watermark.EffectiveStrength(strength),
	}

	encoded, trace, err := codec.EncodeWithTrace(samples, rate, r.cfg.Message, frameMs, strength)
	if err != nil {
		return result, fmt.Errorf("failed to encode %d Hz / %d ms / %d%%: %w", rate, frameMs, strength, err)
	}
	result.Embedded = trace.Embedded
	result.PSNR = audio.FiniteOr(audio.CalculatePSNRFloat64(samples, encoded), 0)

	if r.cfg.OutputDir != "" {
		path := filepath.Join(r.cfg.OutputDir, fmt.Sprintf("%d_%d_%d.wav", rate, frameMs, strength))
		if err := audio.WriteWAV(path, encoded, rate); err != nil {
			return result, err
		}
		result.OutputFile = path
	}

	decoded, err := codec.Decode(audio.Dequantize(audio.Quantize(encoded)), rate)
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	result.Decoded = decoded.Message
	result.Success = decoded.Message == r.cfg.Message
	return result, nil
}

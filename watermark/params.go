// Package watermark hides short text messages in audio by scaling FFT bins
// and recovers them blindly.
package watermark

import (
	"fmt"
	"runtime"
)

const (
	// MinStrengthPercent keeps the watermark detectable in noisy audio.
	MinStrengthPercent = 15
	// MaxStrength caps scaling at roughly half amplitude.
	MaxStrength = 0.5

	strengthDivisor = 30.0
	logEpsilon      = 1e-12
)

// Params holds the tunable parts of the codec. The vote ratios and band
// multipliers are empirically tuned; defaults match the values the scheme
// was validated with.
type Params struct {
	StartBin         int     `yaml:"start_bin"`
	FrameDurationMs  int     `yaml:"frame_duration_ms"` // decoder frame duration
	WindowRadius     int     `yaml:"window_radius"`
	MinPilotMatches  int     `yaml:"min_pilot_matches"`
	HeaderVoteRatio  float64 `yaml:"header_vote_ratio"`
	PayloadVoteRatio float64 `yaml:"payload_vote_ratio"`
	BandFraction     float64 `yaml:"band_fraction"`
	ConfidentBands   float64 `yaml:"confident_bands"`
	SoftBands        float64 `yaml:"soft_bands"`
	Workers          int     `yaml:"workers"`
}

func DefaultParams() Params {
	return Params{
		StartBin:         48,
		FrameDurationMs:  32,
		WindowRadius:     3,
		MinPilotMatches:  5,
		HeaderVoteRatio:  0.54,
		PayloadVoteRatio: 0.45,
		BandFraction:     0.1,
		ConfidentBands:   3,
		SoftBands:        0.75,
		Workers:          runtime.NumCPU(),
	}
}

// Validate rejects parameter sets the codec cannot run with.
func (p Params) Validate() error {
	if p.StartBin < 1 {
		return fmt.Errorf("start bin must be at least 1 (DC is never used), got %d", p.StartBin)
	}
	if p.FrameDurationMs < 1 {
		return fmt.Errorf("frame duration must be positive, got %d ms", p.FrameDurationMs)
	}
	if p.WindowRadius < 1 {
		return fmt.Errorf("window radius must be positive, got %d", p.WindowRadius)
	}
	if p.MinPilotMatches < 1 || p.MinPilotMatches > len(PilotPattern) {
		return fmt.Errorf("min pilot matches must be between 1 and %d, got %d", len(PilotPattern), p.MinPilotMatches)
	}
	if p.HeaderVoteRatio < 0 || p.HeaderVoteRatio > 1 {
		return fmt.Errorf("header vote ratio must be within [0,1], got %v", p.HeaderVoteRatio)
	}
	if p.PayloadVoteRatio < 0 || p.PayloadVoteRatio > 1 {
		return fmt.Errorf("payload vote ratio must be within [0,1], got %v", p.PayloadVoteRatio)
	}
	if p.BandFraction < 0 || p.ConfidentBands < 0 || p.SoftBands < 0 {
		return fmt.Errorf("band settings must not be negative")
	}
	return nil
}

func (p Params) workers() int {
	if p.Workers < 1 {
		return 1
	}
	return p.Workers
}

// EffectiveStrength converts a strength percentage into the fractional
// scale used by the embedder.
func EffectiveStrength(percent int) float64 {
	percent = max(percent, MinStrengthPercent)
	return min(float64(percent)/strengthDivisor, MaxStrength)
}

package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	pcm16Max   = 32767
	pcm16Scale = 32768
)

// Quantize clamps samples to [-1, 1] and rounds them to 16-bit PCM.
func Quantize(samples []float64) []int {
	pcm := make([]int, len(samples))
	for i, s := range samples {
		pcm[i] = int(math.Round(max(-1, min(1, s)) * pcm16Max))
	}
	return pcm
}

// Dequantize maps 16-bit PCM back to floats the way the decoder does.
func Dequantize(pcm []int) []float64 {
	samples := make([]float64, len(pcm))
	for i, v := range pcm {
		samples[i] = float64(v) / pcm16Scale
	}
	return samples
}

// EncodeWAV writes samples as a 16-bit mono WAV file.
func EncodeWAV(samples []float64, sampleRate int) ([]byte, error) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           Quantize(samples),
		SourceBitDepth: 16,
	}

	// wav.NewEncoder needs a WriteSeeker, so go through a temp file
	tempFile, err := os.CreateTemp("", "watermark_*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	encoder := wav.NewEncoder(tempFile, sampleRate, 16, 1, 1)
	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to close WAV encoder: %w", err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind WAV data: %w", err)
	}
	wavData, err := io.ReadAll(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV data: %w", err)
	}
	return wavData, nil
}

// WriteWAV encodes samples and stores them at path.
func WriteWAV(path string, samples []float64, sampleRate int) error {
	wavData, err := EncodeWAV(samples, sampleRate)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, wavData, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

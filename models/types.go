// Package models contain request and response shapes shared by the API and CLI
package models

import "watermark-backend/watermark"

// ErrorResponse is returned whenever a request fails
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// EmbedResponse summarises an embedding run. The HTTP API sends the same
// values as X-Watermark-* headers next to the WAV body.
type EmbedResponse struct {
	Success    bool    `json:"success"`
	PSNR       float64 `json:"psnr"` // 0 when nothing was embedded
	SNR        float64 `json:"snr"`
	Bits       int     `json:"bits"`
	Frames     int     `json:"frames"`
	Strength   float64 `json:"strength"`
	Embedded   bool    `json:"embedded"`
	Checksum   string  `json:"checksum"`
	OutputFile string  `json:"output_file,omitempty"`
}

// ExtractResponse carries the recovered watermark
type ExtractResponse struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message"`
	RawBytes []byte                 `json:"raw_bytes"`
	Metadata *AudioMetadata         `json:"metadata,omitempty"`
	Trace    *watermark.DecodeTrace `json:"trace,omitempty"`
}

// AudioMetadata represents metadata about an audio file
type AudioMetadata struct {
	Format     string  `json:"format"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth"`
	Duration   float64 `json:"duration"`
	Samples    int     `json:"samples"`
	Title      string  `json:"title,omitempty"`
	Artist     string  `json:"artist,omitempty"`
}

// ExperimentResult is one point of the parameter sweep
type ExperimentResult struct {
	SampleRate      int     `json:"sample_rate"`
	FrameDurationMs int     `json:"frame_duration_ms"`
	StrengthPercent int     `json:"strength_percent"`
	Strength        float64 `json:"strength"`
	Embedded        bool    `json:"embedded"`
	PSNR            float64 `json:"psnr"` // 0 when nothing was embedded
	Decoded         string  `json:"decoded"`
	Success         bool    `json:"success"`
	Error           string  `json:"error,omitempty"`
	OutputFile      string  `json:"output_file,omitempty"`
	Cached          bool    `json:"cached"`
}

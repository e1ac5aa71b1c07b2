// Package handlers is made to handle requests
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"watermark-backend/audio"
	"watermark-backend/models"
	"watermark-backend/watermark"
)

const defaultStrengthPercent = watermark.MinStrengthPercent

type WatermarkHandler struct {
	audioDecoder *audio.AudioDecoder
	codec        *watermark.Codec
	log          logrus.FieldLogger
	maxUpload    int64
}

func NewWatermarkHandler(codec *watermark.Codec, logger logrus.FieldLogger, maxUploadBytes int64) *WatermarkHandler {
	return &WatermarkHandler{
		audioDecoder: audio.NewAudioDecoder(),
		codec:        codec,
		log:          logger.WithField("component", "handlers"),
		maxUpload:    maxUploadBytes,
	}
}

func (h *WatermarkHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Watermark API is running",
		"version": "1.0.0",
	})
}

func (h *WatermarkHandler) EmbedWatermark(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.maxUpload); err != nil {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return
	}

	message := c.PostForm("message")
	if message == "" {
		fail(c, http.StatusBadRequest, "Message is required")
		return
	}

	frameDurationMs, err := intField(c, "frame_duration_ms", h.codec.Params().FrameDurationMs)
	if err != nil || frameDurationMs < 1 {
		fail(c, http.StatusBadRequest, "Frame duration must be a positive number of milliseconds")
		return
	}

	strengthPercent, err := intField(c, "strength_percent", defaultStrengthPercent)
	if err != nil || strengthPercent < 0 {
		fail(c, http.StatusBadRequest, "Strength must be a non-negative percentage")
		return
	}

	samples, metadata, filename, ok := h.readAudio(c)
	if !ok {
		return
	}

	encoded, trace, err := h.codec.EncodeWithTrace(samples, metadata.SampleRate, message, frameDurationMs, strengthPercent)
	if err != nil {
		h.log.WithError(err).Error("embedding failed")
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to embed watermark: %v", err))
		return
	}

	wavData, err := audio.EncodeWAV(encoded, metadata.SampleRate)
	if err != nil {
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to encode WAV: %v", err))
		return
	}

	psnr := audio.FiniteOr(audio.CalculatePSNRFloat64(samples, encoded), 0)
	checksum := fmt.Sprintf("%016x", xxhash.Checksum64(wavData))
	frames := (len(samples) + trace.FrameLength - 1) / trace.FrameLength

	h.log.WithFields(logrus.Fields{
		"file":        filename,
		"format":      metadata.Format,
		"sample_rate": metadata.SampleRate,
		"bits":        len(trace.BitSequence),
		"frames":      frames,
		"embedded":    trace.Embedded,
		"psnr":        psnr,
	}).Info("watermark embedded")

	baseFilename := strings.TrimSuffix(filename, filepath.Ext(filename))
	outputFilename := fmt.Sprintf("%s_watermarked.wav", baseFilename)

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputFilename))
	c.Header("Content-Length", strconv.Itoa(len(wavData)))

	c.Header("X-Watermark-PSNR", strconv.FormatFloat(psnr, 'f', 2, 64))
	c.Header("X-Watermark-Bits", strconv.Itoa(len(trace.BitSequence)))
	c.Header("X-Watermark-Frames", strconv.Itoa(frames))
	c.Header("X-Watermark-Strength", strconv.FormatFloat(trace.Strength, 'f', 2, 64))
	c.Header("X-Watermark-Embedded", strconv.FormatBool(trace.Embedded))
	c.Header("X-Watermark-Checksum", checksum)

	c.Data(http.StatusOK, "audio/wav", wavData)
}

func (h *WatermarkHandler) ExtractWatermark(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.maxUpload); err != nil {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return
	}
	includeTrace := c.PostForm("include_trace") == "true"

	samples, metadata, filename, ok := h.readAudio(c)
	if !ok {
		return
	}

	decoded, trace, err := h.codec.DecodeWithTrace(samples, metadata.SampleRate)
	if errors.Is(err, watermark.ErrNoReliableFrames) {
		h.log.WithField("file", filename).Info("no watermark found")
		c.JSON(http.StatusUnprocessableEntity, models.ExtractResponse{
			Success:  false,
			Message:  "No watermark detected. The audio carries no recognisable pilot in any frame.",
			RawBytes: []byte{},
			Metadata: metadata,
		})
		return
	} else if err != nil {
		h.log.WithError(err).Error("extraction failed")
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to extract watermark: %v", err))
		return
	}

	h.log.WithFields(logrus.Fields{
		"file":         filename,
		"valid_frames": trace.ValidFrames,
		"bytes":        len(decoded.RawBytes),
	}).Info("watermark extracted")

	response := models.ExtractResponse{
		Success:  true,
		Message:  decoded.Message,
		RawBytes: decoded.RawBytes,
		Metadata: metadata,
	}
	if includeTrace {
		response.Trace = trace
	}
	c.JSON(http.StatusOK, response)
}

// readAudio loads and decodes the audio_file upload. It writes the error
// response itself and reports ok=false on failure.
func (h *WatermarkHandler) readAudio(c *gin.Context) ([]float64, *models.AudioMetadata, string, bool) {
	audioFile, audioHeader, err := c.Request.FormFile("audio_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Audio file is required")
		return nil, nil, "", false
	}
	defer audioFile.Close()

	audioData, err := io.ReadAll(audioFile)
	if err != nil {
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to read audio file: %v", err))
		return nil, nil, "", false
	}

	samples, metadata, err := h.audioDecoder.Decode(audioData, audioHeader.Filename)
	if errors.Is(err, audio.ErrUnsupportedFormat) {
		fail(c, http.StatusBadRequest, "Invalid audio file format. Only WAV, MP3 and FLAC files are supported")
		return nil, nil, "", false
	} else if err != nil {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Failed to decode audio: %v", err))
		return nil, nil, "", false
	}

	return samples, metadata, audioHeader.Filename, true
}

func intField(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.PostForm(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Message: message,
	})
}

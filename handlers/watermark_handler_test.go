package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watermark-backend/audio"
	"watermark-backend/models"
	"watermark-backend/watermark"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	codec, err := watermark.NewCodec(watermark.DefaultParams(), logger)
	require.NoError(t, err)

	return NewRouter(NewWatermarkHandler(codec, logger, 32<<20), []string{"http://localhost:3000"})
}

func carrierWAV(t *testing.T, sampleRate int, seconds float64) []byte {
	t.Helper()
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		tm := float64(i) / float64(sampleRate)
		samples[i] = math.Sin(2*math.Pi*200*tm)*0.15 +
			math.Sin(2*math.Pi*440*tm)*0.15 +
			math.Sin(2*math.Pi*880*tm)*0.10 +
			math.Sin(2*math.Pi*1320*tm)*0.08 +
			float64((i*12345+i*i)%10000)/10000*0.2 - 0.1
	}
	wavData, err := audio.EncodeWAV(samples, sampleRate)
	require.NoError(t, err)
	return wavData
}

func multipartRequest(t *testing.T, path string, fields map[string]string, filename string, file []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	if file != nil {
		part, err := writer.CreateFormFile("audio_file", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestEmbedThenExtract(t *testing.T) {
	router := newTestRouter(t)

	embedReq := multipartRequest(t, "/api/v1/watermark/embed", map[string]string{
		"message":           "fourier",
		"frame_duration_ms": "32",
		"strength_percent":  "30",
	}, "carrier.wav", carrierWAV(t, 8000, 2))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, embedReq)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	watermarked := rec.Body.Bytes()
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=carrier_watermarked.wav", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "80", rec.Header().Get("X-Watermark-Bits"))
	assert.Equal(t, "63", rec.Header().Get("X-Watermark-Frames"))
	assert.Equal(t, "true", rec.Header().Get("X-Watermark-Embedded"))
	assert.Equal(t, fmt.Sprintf("%016x", xxhash.Checksum64(watermarked)), rec.Header().Get("X-Watermark-Checksum"))
	assert.NotEmpty(t, rec.Header().Get("X-Watermark-PSNR"))

	extractReq := multipartRequest(t, "/api/v1/watermark/extract", map[string]string{
		"include_trace": "true",
	}, "carrier_watermarked.wav", watermarked)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, extractReq)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response models.ExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "fourier", response.Message)
	assert.Equal(t, []byte("fourier"), response.RawBytes)
	require.NotNil(t, response.Metadata)
	assert.Equal(t, 8000, response.Metadata.SampleRate)
	require.NotNil(t, response.Trace)
	assert.Positive(t, response.Trace.ValidFrames)
}

func TestEmbedWithoutRoomReportsFinitePSNR(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/v1/watermark/embed", map[string]string{
		"message":           "hi",
		"frame_duration_ms": "1",
	}, "carrier.wav", carrierWAV(t, 8000, 0.5)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "false", rec.Header().Get("X-Watermark-Embedded"))
	assert.Equal(t, "0.00", rec.Header().Get("X-Watermark-PSNR"))
}

func TestExtractWithoutTrace(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/v1/watermark/extract", nil, "carrier.wav", carrierWAV(t, 8000, 1)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response models.ExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Nil(t, response.Trace)
}

func TestExtractSilenceIsUnprocessable(t *testing.T) {
	router := newTestRouter(t)
	silence, err := audio.EncodeWAV(make([]float64, 8000), 8000)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/v1/watermark/extract", nil, "silence.wav", silence))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var response models.ExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.False(t, response.Success)
}

func TestEmbedRejectsBadRequests(t *testing.T) {
	router := newTestRouter(t)
	wavData := carrierWAV(t, 8000, 0.5)

	cases := []struct {
		name     string
		fields   map[string]string
		filename string
		file     []byte
	}{
		{"missing message", map[string]string{}, "a.wav", wavData},
		{"bad frame duration", map[string]string{"message": "hi", "frame_duration_ms": "abc"}, "a.wav", wavData},
		{"zero frame duration", map[string]string{"message": "hi", "frame_duration_ms": "0"}, "a.wav", wavData},
		{"negative strength", map[string]string{"message": "hi", "strength_percent": "-5"}, "a.wav", wavData},
		{"missing file", map[string]string{"message": "hi"}, "", nil},
		{"unsupported file", map[string]string{"message": "hi"}, "notes.txt", []byte("just text")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartRequest(t, "/api/v1/watermark/embed", tc.fields, tc.filename, tc.file))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var response models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.False(t, response.Success)
			assert.NotEmpty(t, response.Message)
		})
	}
}

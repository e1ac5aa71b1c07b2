// Package audio converts between encoded audio files and mono float samples
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/tosone/minimp3"

	"watermark-backend/models"
)

const (
	FormatWAV  = "wav"
	FormatMP3  = "mp3"
	FormatFLAC = "flac"
)

// ErrUnsupportedFormat is returned for input that is neither WAV, MP3 nor FLAC
var ErrUnsupportedFormat = errors.New("unsupported audio format")

type AudioDecoder struct{}

func NewAudioDecoder() *AudioDecoder {
	return &AudioDecoder{}
}

// Decode sniffs the container and returns the audio downmixed to mono in
// [-1, 1]. filename is only consulted when the content is ambiguous.
func (ad *AudioDecoder) Decode(data []byte, filename string) ([]float64, *models.AudioMetadata, error) {
	switch DetectFormat(data, filename) {
	case FormatWAV:
		return ad.DecodeWAV(data)
	case FormatFLAC:
		return ad.DecodeFLAC(data)
	case FormatMP3:
		return ad.DecodeMP3(data)
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

// DetectFormat looks at magic bytes first and falls back to the extension.
func DetectFormat(data []byte, filename string) string {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xff && data[1]&0xe0 == 0xe0:
		return FormatMP3
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return FormatWAV
	case ".flac":
		return FormatFLAC
	case ".mp3":
		return FormatMP3
	}
	return ""
}

func (ad *AudioDecoder) DecodeWAV(wavData []byte) ([]float64, *models.AudioMetadata, error) {
	decoder := wav.NewDecoder(bytes.NewReader(wavData))
	if !decoder.IsValidFile() {
		return nil, nil, fmt.Errorf("failed to decode WAV: invalid file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode WAV: %w", err)
	}

	channels := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)
	if channels < 1 {
		return nil, nil, fmt.Errorf("failed to decode WAV: no channels")
	}

	if bitDepth == 8 {
		// 8-bit WAV is unsigned
		for i := range buf.Data {
			buf.Data[i] -= 128
		}
	}

	samples := downmix(buf.Data, channels, fullScale(bitDepth))
	metadata := &models.AudioMetadata{
		Format:     FormatWAV,
		SampleRate: int(decoder.SampleRate),
		Channels:   channels,
		BitDepth:   bitDepth,
		Samples:    len(samples),
		Duration:   duration(len(samples), int(decoder.SampleRate)),
	}
	return samples, metadata, nil
}

func (ad *AudioDecoder) DecodeMP3(mp3Data []byte) ([]float64, *models.AudioMetadata, error) {
	decoder, data, err := minimp3.DecodeFull(mp3Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode MP3: %w", err)
	}
	defer decoder.Close()

	if decoder.Channels < 1 || decoder.SampleRate < 1 {
		return nil, nil, fmt.Errorf("failed to decode MP3: no audio frames")
	}

	// minimp3 yields interleaved little-endian 16-bit PCM
	pcm := make([]int, len(data)/2)
	for i := range pcm {
		pcm[i] = int(int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8))
	}

	samples := downmix(pcm, decoder.Channels, fullScale(16))
	metadata := &models.AudioMetadata{
		Format:     FormatMP3,
		SampleRate: decoder.SampleRate,
		Channels:   decoder.Channels,
		BitDepth:   16,
		Samples:    len(samples),
		Duration:   duration(len(samples), decoder.SampleRate),
	}
	ad.readTags(mp3Data, metadata)
	return samples, metadata, nil
}

func (ad *AudioDecoder) DecodeFLAC(flacData []byte) ([]float64, *models.AudioMetadata, error) {
	stream, err := flac.Parse(bytes.NewReader(flacData))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)
	scale := fullScale(bitDepth)

	var samples []float64
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, nil, fmt.Errorf("failed to decode FLAC frame: %w", err)
		}

		if len(frame.Subframes) == 0 {
			continue
		}
		blockSize := len(frame.Subframes[0].Samples)
		for i := range blockSize {
			var sum float64
			for _, subframe := range frame.Subframes {
				sum += float64(subframe.Samples[i])
			}
			samples = append(samples, sum/float64(len(frame.Subframes))/scale)
		}
	}

	metadata := &models.AudioMetadata{
		Format:     FormatFLAC,
		SampleRate: int(stream.Info.SampleRate),
		Channels:   channels,
		BitDepth:   bitDepth,
		Samples:    len(samples),
		Duration:   duration(len(samples), int(stream.Info.SampleRate)),
	}
	return samples, metadata, nil
}

// readTags copies the ID3 title and artist into metadata. Missing or broken
// tags are ignored.
func (ad *AudioDecoder) readTags(mp3Data []byte, metadata *models.AudioMetadata) {
	tag, err := id3v2.ParseReader(bytes.NewReader(mp3Data), id3v2.Options{Parse: true})
	if err != nil {
		return
	}
	defer tag.Close()

	metadata.Title = tag.Title()
	metadata.Artist = tag.Artist()
}

// downmix averages interleaved channels and scales into [-1, 1].
func downmix(pcm []int, channels int, scale float64) []float64 {
	frames := len(pcm) / channels
	samples := make([]float64, frames)
	for i := range frames {
		var sum float64
		for ch := range channels {
			sum += float64(pcm[i*channels+ch])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return samples
}

// fullScale is 2^(bitDepth-1), the divisor that maps signed PCM into [-1, 1].
func fullScale(bitDepth int) float64 {
	if bitDepth < 1 {
		bitDepth = 16
	}
	return float64(int64(1) << (bitDepth - 1))
}

func duration(samples, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(samples) / float64(sampleRate)
}

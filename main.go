package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OneOfOne/xxhash"
	"github.com/sirupsen/logrus"

	"watermark-backend/audio"
	"watermark-backend/config"
	"watermark-backend/experiment"
	"watermark-backend/handlers"
	"watermark-backend/models"
	"watermark-backend/watermark"
)

const usage = `usage: watermark-backend [command] [flags]

commands:
  serve       run the HTTP API (default)
  embed       watermark an audio file into a 16-bit WAV
  extract     recover a watermark from an audio file
  experiment  sweep sample rates, frame durations and strengths
`

func main() {
	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	var err error
	switch command {
	case "serve":
		err = runServe(args)
	case "embed":
		err = runEmbed(args)
	case "extract":
		err = runExtract(args)
	case "experiment":
		err = runExperiment(args)
	case "help":
		fmt.Fprint(os.Stderr, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	if err != nil {
		logrus.Fatal(err)
	}
}

// setup parses the shared -config flag and builds the logger and codec.
func setup(fs *flag.FlagSet, args []string) (*config.Config, *logrus.Logger, *watermark.Codec, error) {
	configPath := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := cfg.NewLogger()

	codec, err := watermark.NewCodec(cfg.Watermark, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, codec, nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg, logger, codec, err := setup(fs, args)
	if err != nil {
		return err
	}

	handler := handlers.NewWatermarkHandler(codec, logger, cfg.Server.MaxUploadMB<<20)
	router := handlers.NewRouter(handler, cfg.Server.AllowedOrigins)

	logger.WithField("port", cfg.Server.Port).Info("server starting")
	logger.Info("  POST /api/v1/watermark/embed   - embed a text watermark (returns WAV)")
	logger.Info("  POST /api/v1/watermark/extract - recover a watermark (returns JSON)")
	logger.Info("  GET  /api/v1/health            - health check")

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func runEmbed(args []string) error {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	in := fs.String("in", "", "input audio file (WAV, MP3 or FLAC)")
	out := fs.String("out", "watermarked.wav", "output WAV file")
	message := fs.String("message", "", "text to embed")
	frameMs := fs.Int("frame-ms", 0, "frame duration in milliseconds (default from config)")
	strength := fs.Int("strength", watermark.MinStrengthPercent, "strength percentage")

	_, logger, codec, err := setup(fs, args)
	if err != nil {
		return err
	}
	if *in == "" || *message == "" {
		return errors.New("embed needs -in and -message")
	}
	if *frameMs == 0 {
		*frameMs = codec.Params().FrameDurationMs
	}

	samples, metadata, err := readAudio(*in)
	if err != nil {
		return err
	}

	encoded, trace, err := codec.EncodeWithTrace(samples, metadata.SampleRate, *message, *frameMs, *strength)
	if err != nil {
		return err
	}

	wavData, err := audio.EncodeWAV(encoded, metadata.SampleRate)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, wavData, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}

	if !trace.Embedded {
		logger.WithField("frame_length", trace.FrameLength).Warn("frame too short, audio written without a watermark")
	}

	return printJSON(models.EmbedResponse{
		Success:    true,
		PSNR:       audio.FiniteOr(audio.CalculatePSNRFloat64(samples, encoded), 0),
		SNR:        audio.FiniteOr(audio.CalculateSNR(samples, encoded), 0),
		Bits:       len(trace.BitSequence),
		Frames:     (len(samples) + trace.FrameLength - 1) / trace.FrameLength,
		Strength:   trace.Strength,
		Embedded:   trace.Embedded,
		Checksum:   fmt.Sprintf("%016x", xxhash.Checksum64(wavData)),
		OutputFile: *out,
	})
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	in := fs.String("in", "", "watermarked audio file")
	withTrace := fs.Bool("trace", false, "include decoder statistics")

	_, _, codec, err := setup(fs, args)
	if err != nil {
		return err
	}
	if *in == "" {
		return errors.New("extract needs -in")
	}

	samples, metadata, err := readAudio(*in)
	if err != nil {
		return err
	}

	decoded, trace, err := codec.DecodeWithTrace(samples, metadata.SampleRate)
	if err != nil {
		return err
	}

	response := models.ExtractResponse{
		Success:  true,
		Message:  decoded.Message,
		RawBytes: decoded.RawBytes,
		Metadata: metadata,
	}
	if *withTrace {
		response.Trace = trace
	}
	return printJSON(response)
}

func runExperiment(args []string) error {
	fs := flag.NewFlagSet("experiment", flag.ExitOnError)
	in := fs.String("in", "", "carrier audio file")
	outDir := fs.String("out-dir", "", "directory for watermarked WAV files (overrides config)")
	storeDir := fs.String("store", "", "badger directory for cached results (overrides config)")
	message := fs.String("message", "", "text to embed (overrides config)")

	cfg, logger, _, err := setup(fs, args)
	if err != nil {
		return err
	}
	if *in == "" {
		return errors.New("experiment needs -in")
	}
	if *outDir != "" {
		cfg.Experiment.OutputDir = *outDir
	}
	if *storeDir != "" {
		cfg.Experiment.StoreDir = *storeDir
	}
	if *message != "" {
		cfg.Experiment.Message = *message
	}

	samples, metadata, err := readAudio(*in)
	if err != nil {
		return err
	}

	store, err := experiment.OpenStore(cfg.Experiment.StoreDir, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := experiment.NewRunner(cfg.Watermark, cfg.Experiment, store, logger, os.Stderr)
	results, err := runner.Run(ctx, samples, metadata.SampleRate)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func readAudio(path string) ([]float64, *models.AudioMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return audio.NewAudioDecoder().Decode(data, path)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

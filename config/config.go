// Package config loads the backend settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"watermark-backend/watermark"
)

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadMB    int64    `yaml:"max_upload_mb"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// ExperimentConfig describes the parameter sweep.
type ExperimentConfig struct {
	SampleRates      []int  `yaml:"sample_rates"`
	FrameDurationsMs []int  `yaml:"frame_durations_ms"`
	StrengthPercents []int  `yaml:"strength_percents"`
	Message          string `yaml:"message"`
	OutputDir        string `yaml:"output_dir"` // empty disables WAV output
	StoreDir         string `yaml:"store_dir"`  // empty keeps results in memory
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Watermark  watermark.Params `yaml:"watermark"`
	Experiment ExperimentConfig `yaml:"experiment"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxUploadMB:    32,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Watermark: watermark.DefaultParams(),
		Experiment: ExperimentConfig{
			SampleRates:      []int{8000, 16000, 32000},
			FrameDurationsMs: []int{20, 32, 64},
			StrengthPercents: []int{5, 15, 30, 50},
			Message:          "hello",
			OutputDir:        "output",
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults. The
// PORT environment variable overrides the configured port.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return errors.New("at least one allowed origin is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d MB", c.Server.MaxUploadMB)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if err := c.Watermark.Validate(); err != nil {
		return fmt.Errorf("invalid watermark settings: %w", err)
	}
	return nil
}

// NewLogger builds a logrus logger from the log section.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

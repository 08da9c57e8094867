// Package config loads glyphnet configuration from YAML and builds the
// values the other packages take: normalizer options, parallelism and the
// logger.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// (PORT), command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/born-ml/glyphnet/internal/glyph"
	"github.com/born-ml/glyphnet/internal/nn"
	"github.com/born-ml/glyphnet/internal/parallel"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration.
type Config struct {
	Glyph    GlyphConfig    `yaml:"glyph"`
	Parallel ParallelConfig `yaml:"parallel"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// GlyphConfig holds the normalization parameters. They must match the ones
// the model was trained with.
type GlyphConfig struct {
	Dim       int     `yaml:"dim"`
	Pad       int     `yaml:"pad"`
	Threshold float64 `yaml:"threshold"`
	WideRatio float64 `yaml:"wide_ratio"`
}

// ParallelConfig controls intra-layer and batch parallelism.
type ParallelConfig struct {
	Enabled bool `yaml:"enabled"`
	Workers int  `yaml:"workers"` // 0 means one per core
}

// ServerConfig configures the HTTP endpoint.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	MaxPixels      int           `yaml:"max_pixels"` // decoded width×height limit
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Glyph: GlyphConfig{
			Dim:       nn.DefaultInputDim,
			Pad:       glyph.DefaultPad,
			Threshold: glyph.DefaultThreshold,
			WideRatio: glyph.DefaultWideRatio,
		},
		Parallel: ParallelConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
			MaxPixels:      1 << 24,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults and applies the environment.
// An empty path returns the defaults with the environment applied.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := Decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode decodes YAML from r into cfg, keeping the values of absent keys.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv applies environment overrides: PORT sets the server address.
func (c *Config) ApplyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
}

// Validate rejects impossible values. Errors wrap nn.ErrConfiguration.
func (c *Config) Validate() error {
	if _, err := glyph.NewNormalizer(c.GlyphOptions()); err != nil {
		return fmt.Errorf("glyph: %w", err)
	}
	if c.Parallel.Workers < 0 {
		return fmt.Errorf("%w: parallel.workers must be non-negative, got %d", nn.ErrConfiguration, c.Parallel.Workers)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: server.max_upload_bytes must be positive", nn.ErrConfiguration)
	}
	if c.Server.MaxPixels <= 0 {
		return fmt.Errorf("%w: server.max_pixels must be positive", nn.ErrConfiguration)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", nn.ErrConfiguration, c.Log.Format)
	}
	return nil
}

// GlyphOptions returns the normalizer options.
func (c *Config) GlyphOptions() glyph.Options {
	return glyph.Options{
		Dim:       c.Glyph.Dim,
		Pad:       c.Glyph.Pad,
		Threshold: c.Glyph.Threshold,
		WideRatio: c.Glyph.WideRatio,
	}
}

// ParallelConfig returns the intra-layer parallelism.
func (c *Config) ParallelConfig() parallel.Config {
	if !c.Parallel.Enabled {
		return parallel.Sequential()
	}
	cfg := parallel.DefaultConfig()
	if c.Parallel.Workers > 0 {
		cfg.NumWorkers = c.Parallel.Workers
		cfg.Enabled = c.Parallel.Workers > 1
	}
	return cfg
}

// BatchParallelConfig returns the parallelism across batch items, one item
// per work unit.
func (c *Config) BatchParallelConfig() parallel.Config {
	cfg := c.ParallelConfig()
	cfg.MinChunkSize = 1
	return cfg
}

// NewLogger builds the configured logger writing to w.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q: want debug, info, warn or error", nn.ErrConfiguration, s)
	}
	return level, nil
}

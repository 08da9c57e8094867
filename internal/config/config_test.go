package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/born-ml/glyphnet/internal/nn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glyphnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	opts := cfg.GlyphOptions()
	assert.Equal(t, 48, opts.Dim)
	assert.Equal(t, 4, opts.Pad)
	assert.Equal(t, 0.7, opts.Threshold)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeConfig(t, `
glyph:
  pad: 2
parallel:
  workers: 3
server:
  write_timeout: 5s
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 48, cfg.Glyph.Dim, "absent keys keep their defaults")
	assert.Equal(t, 2, cfg.Glyph.Pad)
	assert.Equal(t, 3, cfg.Parallel.Workers)
	assert.True(t, cfg.Parallel.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "json", cfg.Log.Format)

	par := cfg.ParallelConfig()
	assert.Equal(t, 3, par.NumWorkers)
	assert.True(t, par.Enabled)
	assert.Equal(t, 1, cfg.BatchParallelConfig().MinChunkSize)
}

func TestLoad_EmptyPathAndEmptyFile(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "glyph:\n  dimension: 32\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_PortEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"pad too large", func(c *Config) { c.Glyph.Pad = 24 }},
		{"threshold", func(c *Config) { c.Glyph.Threshold = 1.5 }},
		{"workers", func(c *Config) { c.Parallel.Workers = -1 }},
		{"upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"pixel limit", func(c *Config) { c.Server.MaxPixels = 0 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), nn.ErrConfiguration)
		})
	}
}

func TestParallelConfig_Disabled(t *testing.T) {
	cfg := Default()
	cfg.Parallel.Enabled = false
	assert.False(t, cfg.ParallelConfig().Enabled)
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "json output: %s", out)
	assert.Contains(t, out, `"msg":"shown"`)
}

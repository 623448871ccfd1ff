package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/philipparndt/armeasure/internal/measurement"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func load(t *testing.T, args ...string) (Config, error) {
	v, err := New(newFlags(t, args...))
	require.NoError(t, err)
	return Load(v)
}

func TestDefaults(t *testing.T) {
	cfg, err := load(t)
	require.NoError(t, err)

	require.Equal(t, DefaultDB(), cfg.DB)
	require.Equal(t, measurement.DefaultCloseThreshold, cfg.CloseThreshold)
	require.Equal(t, measurement.ModeNormal, cfg.Mode)
	require.Equal(t, measurement.ProjectionBestFit, cfg.Projection)
	require.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
	require.False(t, cfg.LogJSON)
}

func TestFlags(t *testing.T) {
	cfg, err := load(t,
		"--db", "/tmp/measures",
		"--close_threshold", "32",
		"--mode", "horizontal",
		"--projection", "floor",
		"--log.level", "debug",
		"--log.json")
	require.NoError(t, err)

	require.Equal(t, Config{
		DB:             "/tmp/measures",
		CloseThreshold: 32,
		Mode:           measurement.ModeHorizontal,
		Projection:     measurement.ProjectionHorizontal,
		LogLevel:       zapcore.DebugLevel,
		LogJSON:        true,
	}, cfg)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("ARMEASURE_MODE", "horizontal")
	t.Setenv("ARMEASURE_LOG_LEVEL", "warn")

	cfg, err := load(t)
	require.NoError(t, err)
	require.Equal(t, measurement.ModeHorizontal, cfg.Mode)
	require.Equal(t, zapcore.WarnLevel, cfg.LogLevel)
}

func TestFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("ARMEASURE_CLOSE_THRESHOLD", "40")

	cfg, err := load(t, "--close_threshold", "12")
	require.NoError(t, err)
	require.Equal(t, 12.0, cfg.CloseThreshold)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armeasure.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db: /var/lib/armeasure
projection: horizontal
log:
  json: true
`), 0o600))

	cfg, err := load(t, "--config", path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/armeasure", cfg.DB)
	require.Equal(t, measurement.ProjectionHorizontal, cfg.Projection)
	require.True(t, cfg.LogJSON)
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"threshold", []string{"--close_threshold", "0"}},
		{"mode", []string{"--mode", "vertical"}},
		{"projection", []string{"--projection", "sideways"}},
		{"log level", []string{"--log.level", "chatty"}},
		{"db", []string{"--db", ""}},
		{"config file", []string{"--config", "/does/not/exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, json := range []bool{false, true} {
		log, err := NewLogger(Config{LogLevel: zapcore.WarnLevel, LogJSON: json})
		require.NoError(t, err)
		require.False(t, log.Core().Enabled(zapcore.InfoLevel))
		require.True(t, log.Core().Enabled(zapcore.ErrorLevel))
	}
}

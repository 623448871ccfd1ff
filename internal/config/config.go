// Package config turns viper settings (flags, ARMEASURE_* environment
// variables and an optional YAML file) into a validated Config.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/philipparndt/armeasure/internal/measurement"
)

// EnvPrefix is prepended to every key looked up in the environment
const EnvPrefix = "ARMEASURE"

const (
	KeyConfig         = "config"
	KeyDB             = "db"
	KeyCloseThreshold = "close_threshold"
	KeyMode           = "mode"
	KeyProjection     = "projection"
	KeyLogLevel       = "log.level"
	KeyLogJSON        = "log.json"
)

// Config is the resolved application configuration
type Config struct {
	DB             string
	CloseThreshold float64
	Mode           measurement.Mode
	Projection     measurement.Projection
	LogLevel       zapcore.Level
	LogJSON        bool
}

// DefaultDB returns ~/.armeasure/db, or a relative path when there is no home directory
func DefaultDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".armeasure", "db")
	}
	return filepath.Join(home, ".armeasure", "db")
}

// RegisterFlags adds the configuration flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyConfig, "", "Configuration file (YAML). Overridden by environment variables and flags.")
	fs.String(KeyDB, DefaultDB(), "Directory of the measurement database")
	fs.Float64(KeyCloseThreshold, measurement.DefaultCloseThreshold,
		"Distance in pixels from the first vertex that closes the polygon")
	fs.String(KeyMode, measurement.ModeNormal.String(), "Measure mode, one of [normal, horizontal]")
	fs.String(KeyProjection, measurement.ProjectionBestFit.String(), "Area projection, one of [bestfit, horizontal]")
	fs.String(KeyLogLevel, "info", "Log level, one of [debug, info, warn, error]")
	fs.Bool(KeyLogJSON, false, "Write logs as JSON")
}

// New returns a viper instance bound to fs and the environment
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, errors.Wrap(err, "while binding flags")
		}
	}
	return v, nil
}

// Load reads the optional config file named by the "config" key and
// validates the settings.
func Load(v *viper.Viper) (Config, error) {
	v.SetDefault(KeyDB, DefaultDB())
	v.SetDefault(KeyCloseThreshold, measurement.DefaultCloseThreshold)
	v.SetDefault(KeyMode, measurement.ModeNormal.String())
	v.SetDefault(KeyProjection, measurement.ProjectionBestFit.String())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogJSON, false)

	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "while reading config %s", file)
		}
	}

	cfg := Config{
		DB:             v.GetString(KeyDB),
		CloseThreshold: v.GetFloat64(KeyCloseThreshold),
		LogJSON:        v.GetBool(KeyLogJSON),
	}
	if cfg.DB == "" {
		return Config{}, errors.Errorf("%s must not be empty", KeyDB)
	}
	if cfg.CloseThreshold <= 0 {
		return Config{}, errors.Errorf("%s must be positive, got %v", KeyCloseThreshold, cfg.CloseThreshold)
	}

	var err error
	if cfg.Mode, err = measurement.ParseMode(v.GetString(KeyMode)); err != nil {
		return Config{}, errors.Wrap(err, KeyMode)
	}
	if cfg.Projection, err = measurement.ParseProjection(v.GetString(KeyProjection)); err != nil {
		return Config{}, errors.Wrap(err, KeyProjection)
	}
	if err = cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return Config{}, errors.Wrap(err, KeyLogLevel)
	}
	return cfg, nil
}

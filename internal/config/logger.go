package config

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NewLogger builds the process logger: JSON for production, console otherwise
func NewLogger(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.LogJSON {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	zc.OutputPaths = []string{"stderr"}

	log, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "while building logger")
	}
	return log, nil
}

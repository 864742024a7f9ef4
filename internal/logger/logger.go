// Package logger provides the process-wide structured logger.
package logger

import (
	"go.uber.org/zap"
)

// Logger is the global sugared logger.
var Logger *zap.SugaredLogger

func init() {
	// No-op until Initialize is called so library consumers that never
	// configure logging stay silent.
	Logger = zap.NewNop().Sugar()
}

// Initialize builds the global logger.
// Debug enables development output with debug-level logging.
func Initialize(debug bool) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	Logger = built.Sugar()
	return nil
}

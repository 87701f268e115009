// Package logging builds the process-wide zap logger, following the same
// PersistentPreRunE construction codenerd's cmd/nerd/main.go uses.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap logger, switched to debug level when
// verbose is true.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// Nop returns a logger that discards everything, for library callers that
// do not want scanner diagnostics on stderr.
func Nop() *zap.Logger {
	return zap.NewNop()
}

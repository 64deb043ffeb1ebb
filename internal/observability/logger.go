// Package observability owns logger construction. Library types take a
// *zap.Logger through their constructors; the CLI shares one package-level
// logger initialized once at startup.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the process-wide logger for command implementations. It is a
// no-op until InitCLILogger runs.
var CLILogger = zap.NewNop()

// InitCLILogger builds the CLI logger. verbose forces debug level
// regardless of the configured level.
func InitCLILogger(level string, verbose bool) {
	if verbose {
		level = "debug"
	}
	logger, err := NewLogger(level)
	if err != nil {
		// A bad level should not take the CLI down; fall back to info.
		logger, _ = NewLogger("info")
	}
	CLILogger = logger
}

// NewLogger builds a production-encoded logger at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

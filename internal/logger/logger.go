// Package logger builds the zap loggers used by faktgen.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity level constants for CLI flag counts.
const (
	VerbosityUser  = 0 // No flags: warnings and errors only
	VerbosityInfo  = 1 // -v: + per-interface progress
	VerbosityDebug = 2 // -vv: + classification and plan details
)

// Options configures New.
type Options struct {
	Level  string    // zap level name; empty means info
	JSON   bool      // JSON output for machine consumption
	Output io.Writer // defaults to stderr
}

// New builds a logger. Human-readable output uses a console encoder without
// timestamps; JSON output follows the production encoder with ISO8601 times.
func New(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Level != "" {
		parsed, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.TimeKey = "timestamp"
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.TimeKey = ""
		encoderCfg.CallerKey = ""
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(out), level)), nil
}

// VerbosityToLevel maps verbosity flags (-v, -vv) to zap level names.
//
//	0 (none) -> warn
//	1 (-v)   -> info
//	2+       -> debug
func VerbosityToLevel(verbosity int) string {
	switch {
	case verbosity <= VerbosityUser:
		return zapcore.WarnLevel.String()
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel.String()
	}
	return zapcore.DebugLevel.String()
}

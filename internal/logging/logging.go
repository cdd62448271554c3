// Package logging builds the diagnostic logger. Stdout carries the gate's
// decision, so every diagnostic line goes to stderr.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv selects the diagnostic log level.
const LevelEnv = "ZUNDAMON_LOG_LEVEL"

// New returns a JSON logger writing to stderr at the given level.
// Unknown levels fall back to warn. If the logger cannot be built a no-op
// logger is returned; diagnostics must never stop the gate.
func New(level string) *zap.Logger {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.With(zap.Int("pid", os.Getpid()))
}

// FromEnv builds a logger using the level in ZUNDAMON_LOG_LEVEL.
func FromEnv() *zap.Logger {
	return New(os.Getenv(LevelEnv))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

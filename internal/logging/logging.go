// Package logging builds the zap.SugaredLogger every Client, Session,
// writer, and reader logs through (spec.md §6 ClientConfig.logFile /
// logLevel).
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a configured zap.Logger based on log level string, an
// optional log file path, and an output-format switch. Use "debug",
// "info", "warn", "error" (case-insensitive) for level. An empty logFile
// logs to stdout. jsonLogs selects machine-parsed JSON output
// (ClientConfig.JSONLogs) in place of the default colorized console
// encoding meant for an interactive terminal.
func New(level, logFile string, jsonLogs bool) *zap.SugaredLogger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zap.DebugLevel
	case "warn":
		zapLevel = zap.WarnLevel
	case "error":
		zapLevel = zap.ErrorLevel
	default:
		zapLevel = zap.InfoLevel
	}

	outputs := []string{"stdout"}
	if logFile != "" {
		outputs = []string{logFile}
	}

	encoding := "console"
	levelEncoder := zapcore.CapitalColorLevelEncoder
	if jsonLogs {
		// ANSI color codes have no place inside a field a log aggregator
		// will parse as plain text.
		encoding = "json"
		levelEncoder = zapcore.CapitalLevelEncoder
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         encoding,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    levelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
	}

	logger, err := config.Build()
	if err != nil {
		panic("cannot initialize logger: " + err.Error())
	}

	return logger.Sugar()
}

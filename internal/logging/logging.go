// Package logging builds the zap logger used across the editor.
//
// Console output always goes to stderr: stdout carries the JSON-RPC stream
// when the server runs over stdio. An optional log file is written as JSON
// and rotated with lumberjack.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings for the log file.
const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 14
)

// Config describes where and how much to log.
type Config struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string `yaml:"level"`

	// File, when set, receives JSON log lines with rotation.
	File string `yaml:"file"`

	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// ParseLevel parses a level name case-insensitively, returning def for
// empty or unknown input.
func ParseLevel(s string, def zapcore.Level) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return def
	}
}

// New returns a logger teeing a console core on stderr with an optional
// rotating JSON file core.
func New(cfg Config) *zap.Logger {
	return NewWithConsole(cfg, zapcore.Lock(os.Stderr))
}

// NewWithConsole is New with the console output redirected, for tests.
func NewWithConsole(cfg Config, console zapcore.WriteSyncer) *zap.Logger {
	level := ParseLevel(cfg.Level, zapcore.InfoLevel)

	consoleEnc := zap.NewDevelopmentEncoderConfig()
	consoleEnc.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEnc), console, level),
	}

	if cfg.File != "" {
		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEnc),
			fileWriter(cfg),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func fileWriter(cfg Config) zapcore.WriteSyncer {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = DefaultMaxSizeMB
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = DefaultMaxBackups
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = DefaultMaxAgeDays
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
}

// Package logging builds the monitor's zap logger: a human-readable
// console core, optionally teed into a per-user log file so a long-running
// monitor leaves an inspectable trail.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects where and how verbosely to log.
type Options struct {
	Level string // debug, info, warn, error
	// Username names the log file: github_monitor_<username>.log.
	Username string
	Dir      string
	// NoFile drops the file core and logs to stdout only.
	NoFile bool
}

// LogFileName returns the per-user log file name.
func LogFileName(username string) string {
	return fmt.Sprintf("github_monitor_%s.log", username)
}

// New builds the logger. The returned close function syncs and releases
// the log file, if any.
func New(opts Options) (*zap.Logger, func(), error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	consoleCore := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)

	if opts.NoFile || opts.Username == "" {
		logger := zap.New(consoleCore)
		return logger, func() { _ = logger.Sync() }, nil
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, LogFileName(opts.Username))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fileCore := zapcore.NewCore(encoder, zapcore.Lock(f), level)
	logger := zap.New(zapcore.NewTee(consoleCore, fileCore))
	closeFn := func() {
		_ = logger.Sync()
		_ = f.Close()
	}
	return logger, closeFn, nil
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

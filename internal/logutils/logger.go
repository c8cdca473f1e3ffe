// Package logutils builds the daemon's zerolog logger.
package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// Options selects the level and destination of the logger.
type Options struct {
	Level string // debug, info, warn, error, fatal
	File  string // empty writes to stderr

	// Rotation, only used with File.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a logger that writes JSON to opts.File, rotated by size.
// If File is empty, logs are written to stderr so stdout stays free for
// command output.
func New(opts Options) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Logger{}, closer, err
	}

	var writer io.Writer = os.Stderr
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
		}

		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		closer = func() { _ = rotator.Close() }
		writer = rotator
	}

	l := zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return l, closer, nil
}

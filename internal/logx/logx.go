// Package logx builds the console loggers used by the binaries.
package logx

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog logger configured for console output on w.
// UCI hosts read stdout, so engine binaries pass os.Stderr.
func NewLogger(w io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	zerolog.CallerMarshalFunc = shortCaller
	return zerolog.New(output).With().Timestamp().Caller().Logger()
}

// shortCaller keeps only the file name, padded for alignment.
func shortCaller(_ uintptr, file string, line int) string {
	short := file
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		short = file[i+1:]
	}
	return fmt.Sprintf("%-28s", fmt.Sprintf("%s:%d", short, line))
}

// WithLevel returns log filtered at the named level ("debug", "info", ...).
func WithLevel(log zerolog.Logger, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return log, fmt.Errorf("log level %q: %w", level, err)
	}
	return log.Level(lvl), nil
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var base = New(os.Getenv("ENVIRONMENT"))

// New builds the process logger. Development gets a console writer and debug
// level; everything else emits JSON at info level.
func New(env string) zerolog.Logger {
	var out io.Writer = os.Stdout
	level := zerolog.InfoLevel

	if strings.EqualFold(env, "development") || env == "" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "goldmarket").Logger()
}

// SetBase replaces the logger behind the package-level helpers.
func SetBase(l zerolog.Logger) {
	base = l
}

// Base returns the logger behind the package-level helpers.
func Base() zerolog.Logger {
	return base
}

// Component derives a sub-logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

func Info(format string, v ...interface{}) {
	base.Info().Msgf(format, v...)
}

func Error(format string, v ...interface{}) {
	base.Error().Msgf(format, v...)
}

func Debug(format string, v ...interface{}) {
	base.Debug().Msgf(format, v...)
}

func Warn(format string, v ...interface{}) {
	base.Warn().Msgf(format, v...)
}

// Nop is handy for tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// Package log wraps zerolog with the level/format/output knobs the rest
// of beosim expects every component to log through.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	Debug Level = "debug"
	Info  Level = "info"
	Warn  Level = "warn"
	Error Level = "error"
)

type Format string

const (
	JSON Format = "json"
	Text Format = "text"
)

type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger is the handle every package logs through. It is safe for
// concurrent use by multiple workers.
type Logger struct {
	z zerolog.Logger
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	var out io.Writer = cfg.Output
	if cfg.Format == Text {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.RFC3339, NoColor: false}
	}

	z := zerolog.New(out).With().Timestamp().Logger()
	switch cfg.Level {
	case Debug:
		z = z.Level(zerolog.DebugLevel)
	case Warn:
		z = z.Level(zerolog.WarnLevel)
	case Error:
		z = z.Level(zerolog.ErrorLevel)
	default:
		z = z.Level(zerolog.InfoLevel)
	}
	return &Logger{z: z}
}

// Default returns an info-level, text-format logger writing to stdout.
func Default() *Logger { return New(Config{Level: Info, Format: Text}) }

func (l *Logger) With(fields map[string]any) *Logger {
	ctx := l.z.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{z: ctx.Logger()}
}

func (l *Logger) Debug(msg string, fields map[string]any) { l.event(l.z.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.event(l.z.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.event(l.z.Warn(), msg, fields) }
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	e := l.z.Error()
	if err != nil {
		e = e.Err(err)
	}
	l.event(e, msg, fields)
}

func (l *Logger) event(e *zerolog.Event, msg string, fields map[string]any) {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

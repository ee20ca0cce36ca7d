// Package logger provides structured logging for the question answering engine
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with engine-specific event helpers
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // console output for interactive use
	Output     io.Writer
	WithCaller bool
}

// NewLogger creates a new structured logger
func NewLogger(cfg Config) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "pdfqa").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Zerolog returns the underlying zerolog logger
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// Component returns a zerolog logger tagged with a component name
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zlog.With().Str("component", name).Logger()
}

// Session returns a logger tagged with a session id
func (l *Logger) Session(id string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("session_id", id).Logger()}
}

// LogIndexBuild logs the outcome of an index build
func (l *Logger) LogIndexBuild(documents, pages, chunks int, duration time.Duration, err error) {
	if err != nil {
		l.zlog.Error().
			Str("event", "index_build").
			Dur("duration_ms", duration).
			Err(err).
			Msg("Index build failed")
		return
	}

	l.zlog.Info().
		Str("event", "index_build").
		Int("documents", documents).
		Int("pages", pages).
		Int("chunks", chunks).
		Dur("duration_ms", duration).
		Msg("Index built")
}

// LogQuery logs an answered or failed question. The question text is not logged.
func (l *Logger) LogQuery(k, results, citations int, duration time.Duration, err error) {
	if err != nil {
		l.zlog.Error().
			Str("event", "query").
			Int("k", k).
			Dur("duration_ms", duration).
			Err(err).
			Msg("Query failed")
		return
	}

	l.zlog.Info().
		Str("event", "query").
		Int("k", k).
		Int("results", results).
		Int("citations", citations).
		Dur("duration_ms", duration).
		Msg("Query answered")
}

// SPDX-License-Identifier: Apache-2.0

// Package logging is a small leveled wrapper over pterm.DefaultLogger:
// no heavyweight structured-logging framework, just pterm plus a level
// gate driven by -v/-vv/-q.
package logging

import (
	"io"

	"github.com/pterm/pterm"
)

// Level is one of the five verbosity tiers selectable from the CLI.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// Logger gates pterm.DefaultLogger by Level. When JSON output is active,
// Writer should be set to io.Discard so the only thing written to stdout
// is the jsonenvelope output.
type Logger struct {
	level  Level
	logger pterm.Logger
}

// New builds a Logger at the given level, writing to pterm's default
// writer (stdout) unless json is true, in which case logs are discarded.
func New(level Level, json bool) *Logger {
	l := pterm.DefaultLogger
	if json {
		l.Writer = io.Discard
	}
	return &Logger{level: level, logger: l}
}

func (l *Logger) Error(msg string, args ...any) {
	if l.level >= LevelError {
		l.logger.Error(msg, l.logger.Args(args...))
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	if l.level >= LevelWarn {
		l.logger.Warn(msg, l.logger.Args(args...))
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l.level >= LevelInfo {
		l.logger.Info(msg, l.logger.Args(args...))
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	if l.level >= LevelDebug {
		l.logger.Debug(msg, l.logger.Args(args...))
	}
}

func (l *Logger) Trace(msg string, args ...any) {
	if l.level >= LevelTrace {
		l.logger.Trace(msg, l.logger.Args(args...))
	}
}

// LevelFromFlags maps the CLI's -v/-vv/-q flags to a Level. quiet wins over
// verbosity: -q silences all but ERROR, even if -v was also passed.
func LevelFromFlags(verbosity int, quiet bool) Level {
	if quiet {
		return LevelError
	}
	switch {
	case verbosity >= 2:
		return LevelTrace
	case verbosity == 1:
		return LevelDebug
	default:
		return LevelInfo
	}
}

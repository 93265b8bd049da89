// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package logger provides the single process-wide zerolog.Logger instance
// used across every other package.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/reiver/go-cast"
	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. The package-level Debug()..Fatal()
// and Print()/Printf() helpers operate on it.
var Logger = New(os.Stderr)

// New builds a zerolog.Logger writing to w, using a colorized console
// writer when w is a terminal and newline-delimited JSON otherwise.
func New(w io.Writer) zerolog.Logger {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).With().Timestamp().Logger()
}

// Output returns a new logger built by New(w), without mutating Logger.
func Output(w io.Writer) zerolog.Logger {
	return New(w)
}

// SetLevel parses raw (as from the LOG_LEVEL environment variable) into a
// zerolog.Level using tolerant int8 conversion, defaulting to InfoLevel on
// an empty or unparseable value.
func SetLevel(raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)

		return
	}

	n, err := cast.Int8(raw)
	if err != nil {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)

		return
	}

	zerolog.SetGlobalLevel(zerolog.Level(n))
}

// Debug starts a debug-level log event.
func Debug() *zerolog.Event { return Logger.Debug() }

// Info starts an info-level log event.
func Info() *zerolog.Event { return Logger.Info() }

// Warn starts a warn-level log event.
func Warn() *zerolog.Event { return Logger.Warn() }

// Error starts an error-level log event.
func Error() *zerolog.Event { return Logger.Error() }

// Fatal starts a fatal-level log event; logging it exits the process.
func Fatal() *zerolog.Event { return Logger.Fatal() }

// Print logs args at info level, matching the standard library log.Print
// calling convention used by dependencies that expect a *log.Logger-shaped
// sink.
func Print(args ...any) {
	Logger.Info().Msg(sprint(args...))
}

// Printf logs a formatted message at info level.
func Printf(format string, args ...any) {
	Logger.Info().Msgf(format, args...)
}

func sprint(args ...any) string {
	return strings.TrimRight(fmt.Sprintln(args...), "\n")
}

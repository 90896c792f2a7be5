// Package logging builds the zerolog logger shared by the CLI and the
// orchestrator. The logger is created once per invocation and passed down.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configure New.
type Options struct {
	Level  string
	Format string
	// Out defaults to os.Stderr.
	Out io.Writer
}

// New creates a logger writing to opts.Out. With FormatAuto the console
// writer is used only when the output is a terminal.
func New(opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var writer io.Writer
	switch strings.ToLower(opts.Format) {
	case FormatConsole:
		writer = consoleWriter(out)
	case FormatJSON:
		writer = out
	case "", FormatAuto:
		if isTerminal(out) {
			writer = consoleWriter(out)
		} else {
			writer = out
		}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q (want auto, console or json)", opts.Format)
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), nil
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

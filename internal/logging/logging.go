// Package logging builds the logrus logger shared by the CLI and batch runner.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to out at level in the given format.
// A nil out writes to stderr.
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	formatter, err := Formatter(format)
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(formatter)
	return logger, nil
}

// Formatter maps a format name to a logrus formatter.
func Formatter(format string) (logrus.Formatter, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return &logrus.TextFormatter{FullTimestamp: true}, nil
	case FormatJSON:
		return &logrus.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported log format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
}

// Package logger builds charmbracelet/log loggers for the substitus components.
// Everything goes to stderr; stdout belongs to the IPC frames and batch output.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// New creates a timestamped component logger at the global log level.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

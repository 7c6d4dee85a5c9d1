// Package logging builds the process-wide structured logger.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to stderr, at debug level when requested.
func New(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
}

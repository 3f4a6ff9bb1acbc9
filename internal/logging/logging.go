// Package logging builds the structured logger shared by the binaries.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w (os.Stderr when nil) with timestamps,
// tagged with the component name. Unknown levels fall back to info.
func New(w io.Writer, component, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          component,
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

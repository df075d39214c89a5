// internal/logging/logger.go

package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a levelled logger writing to w. Level names are debug, info, warn, error and fatal.
func New(w io.Writer, level string, prefix string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
		Prefix:          prefix,
	}), nil
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard)
}

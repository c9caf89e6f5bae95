// Package logger builds the process-wide slog.Logger.
package logger

import (
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New returns a logger writing to w. FormatText produces human-readable
// lines through charmbracelet/log; anything else produces JSON.
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	if format == FormatText {
		// charmbracelet/log levels share slog's numeric values.
		return slog.New(log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
			Level:           log.Level(level),
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Package logging configures the structured logger used throughout zeroinject.
package logging

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// Config for the logger, embeddable in a kong CLI.
type Config struct {
	Level slog.Level `help:"The default logging level." default:"info" env:"ZEROINJECT_LOG_LEVEL"`
	JSON  bool       `help:"Enable JSON logging." env:"ZEROINJECT_LOG_JSON"`
}

// New creates a logger writing to w.
//
// Logs are coloured with tint unless JSON output is requested.
func New(w io.Writer, config Config) *slog.Logger {
	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: config.Level,
		})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      config.Level,
			TimeFormat: "15:04:05",
		})
	}
	return slog.New(handler)
}

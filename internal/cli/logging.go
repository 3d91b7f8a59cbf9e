package cli

import (
	"io"
	"log/slog"

	"github.com/roach88/memimg/internal/config"
)

// newLogger builds the diagnostic logger. Diagnostics go to w (stderr), never
// to the command output, so JSON responses stay parseable.
func newLogger(w io.Writer, cfg config.LoggingConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == config.FormatJSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler).With("component", "memimg"), nil
}

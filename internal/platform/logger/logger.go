package logger

import (
	"log/slog"
	"os"
)

// New returns the application logger. JSON output so log shippers can parse
// it without extra configuration.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

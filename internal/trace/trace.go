// Package trace builds the diagnostic logger. Trace output always goes to
// stderr because git reads helper responses from stdout.
package trace

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Mask replaces secret values in trace output.
const Mask = "****"

// New returns a console logger writing to w, or a no-op logger when
// enabled is false.
func New(w io.Writer, enabled bool) zerolog.Logger {
	if !enabled {
		return zerolog.Nop()
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "gitcred").Logger()
}

// Params logs each parameter exchanged with git. Passwords are masked.
func Params(l zerolog.Logger, direction string, params map[string]string, keys []string) {
	for _, k := range keys {
		l.Info().Str("key", k).Str("value", Value(k, params[k])).Msg(direction)
	}
}

// Value returns v, or Mask when key names a password.
func Value(key, v string) string {
	if strings.EqualFold(key, "password") {
		return Mask
	}
	return v
}

// Package logging provides application-wide logging configuration.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger writing to stderr.
func Init(debug bool) {
	InitWriter(debug, os.Stderr)
}

// InitWriter initializes the global logger with a console writer on w.
// Logs never go to stdout: stdout carries dry-run previews and results.
func InitWriter(debug bool, w io.Writer) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    w != os.Stderr,
	}).With().Timestamp().Logger()
}

// EnvEnabled reports whether a logging toggle such as COMMITTO_DEBUG holds a
// truthy value in env (KEY=VALUE pairs). Empty, 0, false, no and off are off.
func EnvEnabled(env []string, key string) bool {
	prefix := key + "="
	for _, kv := range env {
		if len(kv) < len(prefix) || kv[:len(prefix)] != prefix {
			continue
		}
		switch kv[len(prefix):] {
		case "", "0", "false", "no", "off":
			return false
		default:
			return true
		}
	}
	return false
}

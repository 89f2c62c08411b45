// Package diag provides the structured diagnostic logger used for
// operational/internal messages (reconnect warnings, config parse
// errors, line-state transitions), as distinct from the user-visible
// protocol output written directly to stdout by the renderer.
package diag

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps a *logrus.Logger with the few helpers the engine and
// command interpreter need, plus the errno-deduplication behavior
// required by spec.md §8 ("identical consecutive errnos print exactly
// one warning; a changed errno prints another").
type Logger struct {
	*logrus.Logger

	lastErrMsg string
}

// New creates a Logger writing to stderr in a plain text format (the
// user-visible protocol stream owns stdout).
func New() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{Logger: l}
}

// WarnOnce logs msg at Warn level only if it differs from the last
// message passed to WarnOnce, collapsing repeated identical warnings
// (e.g. "Could not open tty device" spamming during reconnect-wait).
func (l *Logger) WarnOnce(msg string) {
	if msg == l.lastErrMsg {
		return
	}
	l.lastErrMsg = msg
	l.Warn(msg)
}

// ResetOnce clears the deduplication state, so the next WarnOnce call
// always logs regardless of prior messages.
func (l *Logger) ResetOnce() {
	l.lastErrMsg = ""
}

// Package logtap implements the raw RX/TX byte log sink toggled live
// by the `f` command (spec.md §4.7, §6): when enabled, every byte
// that crosses the wire is appended to a file.
package logtap

import (
	"os"
	"sync"
)

// Tap appends bytes to a log file. It is safe to toggle and write
// from different goroutines (the engine writes RX/TX bytes, the
// command interpreter calls Toggle).
type Tap struct {
	mu       sync.Mutex
	filename string
	f        *os.File
	enabled  bool
	strip    bool // LogStrip: drop non-printable bytes before logging
}

// New creates a Tap for filename; it does not open the file until
// Toggle is called.
func New(filename string, strip bool) *Tap {
	return &Tap{filename: filename, strip: strip}
}

// Enabled reports whether the tap is currently writing.
func (t *Tap) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Toggle opens the log file if currently closed, or closes it if
// open, matching the `f` command's "open if filename set, close
// otherwise" behavior.
func (t *Tap) Toggle() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled {
		err := t.f.Close()
		t.f = nil
		t.enabled = false
		return err
	}
	if t.filename == "" {
		return nil
	}
	f, err := os.OpenFile(t.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	t.f = f
	t.enabled = true
	return nil
}

// Write appends p to the log file if enabled; it is a no-op
// otherwise. Non-printable bytes are dropped when strip is set.
func (t *Tap) Write(p []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	if t.strip {
		filtered := make([]byte, 0, len(p))
		for _, c := range p {
			if c >= 0x20 && c < 0x7f || c == '\n' || c == '\r' || c == '\t' {
				filtered = append(filtered, c)
			}
		}
		p = filtered
	}
	if len(p) > 0 {
		t.f.Write(p)
	}
}

// Close closes the underlying file if open.
func (t *Tap) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return nil
	}
	err := t.f.Close()
	t.f = nil
	t.enabled = false
	return err
}

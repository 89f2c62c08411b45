package render

import (
	"fmt"
	"time"

	"github.com/tio-term/tio/internal/config"
)

// Clocker is the subset of time.Now this package needs, so tests can
// supply a deterministic clock.
type Clocker func() time.Time

// TimestampFormatter produces the timestamp string to print for a given
// mode, tracking session-start and previous-timestamp reference points
// for the "-start" and "-delta" variants.
type TimestampFormatter struct {
	Mode  config.TimestampMode
	Now   Clocker
	start time.Time
	prev  time.Time
	armed bool
}

// NewTimestampFormatter creates a formatter using the real clock.
func NewTimestampFormatter(mode config.TimestampMode) *TimestampFormatter {
	return &TimestampFormatter{Mode: mode, Now: time.Now}
}

// Format returns the rendered timestamp prefix for "now", e.g.
// "12:34:56.789 " for 24hour mode. Returns "" if the mode is
// TimestampNone.
func (f *TimestampFormatter) Format() string {
	if f.Mode == config.TimestampNone {
		return ""
	}
	now := f.Now()
	if !f.armed {
		f.start = now
		f.armed = true
	}
	var s string
	switch f.Mode {
	case config.Timestamp24Hour:
		s = now.Format("15:04:05.000")
	case config.Timestamp24HourStart:
		s = formatDelta(now.Sub(f.start))
	case config.Timestamp24HourDelta:
		d := now.Sub(f.prev)
		if f.prev.IsZero() {
			d = 0
		}
		s = formatDelta(d)
	case config.TimestampISO8601:
		s = now.Format(time.RFC3339Nano)
	}
	f.prev = now
	return s + " "
}

func formatDelta(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := d.Milliseconds()
	h := total / 3600000
	m := (total / 60000) % 60
	s := (total / 1000) % 60
	ms := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

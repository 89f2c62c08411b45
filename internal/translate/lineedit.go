package translate

import "github.com/tio-term/tio/internal/writebuf"

// LineEditAction tells the caller what visual feedback to produce for
// one fed byte.
type LineEditAction int

const (
	LineEditNone LineEditAction = iota
	LineEditEcho
	LineEditErase
	LineEditCommit
	LineEditOverflow
)

// escState tracks an in-progress ESC [ A/B/C/D arrow-key sequence so it
// can be swallowed rather than committed to the line.
type escState int

const (
	escNone escState = iota
	escSeenEsc
	escSeenBracket
)

// LineEditor implements the `line` input-mode TX buffer from spec.md
// §4.5: CR commits the line (plus CR) to the port, BS/DEL erase
// visually, arrow-key escape sequences and a lone ESC are swallowed,
// and overflow drops the offending byte with a warning.
type LineEditor struct {
	buf []byte
	esc escState
}

// LineEditResult reports what happened to one fed byte.
type LineEditResult struct {
	Action  LineEditAction
	ToPort  []byte // bytes to commit to the device (only on LineEditCommit)
	Warning string // non-empty on LineEditOverflow
}

// Feed processes one typed byte.
func (e *LineEditor) Feed(c byte) LineEditResult {
	switch e.esc {
	case escSeenEsc:
		if c == '[' {
			e.esc = escSeenBracket
			return LineEditResult{Action: LineEditNone}
		}
		e.esc = escNone
		return LineEditResult{Action: LineEditNone}
	case escSeenBracket:
		e.esc = escNone
		return LineEditResult{Action: LineEditNone} // swallow A/B/C/D (and anything else)
	}

	switch c {
	case 0x1b: // ESC
		e.esc = escSeenEsc
		return LineEditResult{Action: LineEditNone}
	case '\r', '\n':
		out := append(append([]byte{}, e.buf...), '\r')
		e.buf = e.buf[:0]
		return LineEditResult{Action: LineEditCommit, ToPort: out}
	case '\b', 127:
		if len(e.buf) == 0 {
			return LineEditResult{Action: LineEditNone}
		}
		e.buf = e.buf[:len(e.buf)-1]
		return LineEditResult{Action: LineEditErase}
	default:
		if len(e.buf) >= writebuf.BufSiz {
			return LineEditResult{Action: LineEditOverflow, Warning: "line buffer full, dropping character"}
		}
		e.buf = append(e.buf, c)
		return LineEditResult{Action: LineEditEcho}
	}
}

// Len returns the number of bytes currently buffered.
func (e *LineEditor) Len() int { return len(e.buf) }

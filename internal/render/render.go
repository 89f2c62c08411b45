// Package render implements the pluggable output renderer (spec.md
// §4.4): a by-character sink selected by output mode ("normal" or
// "hex"), both sharing the "tainted" flag that decides when the next
// RX byte needs a leading timestamp.
package render

import (
	"fmt"
	"io"
)

// hexColumnWidth is the number of hex groups per line before wrapping.
const hexColumnWidth = 16

// Clock supplies the current time; overridable in tests.
type Clock func() Timestamp

// Timestamp is a formatted timestamp ready to print as a line prefix.
type Timestamp string

// Renderer renders RX bytes to an io.Writer, tracking the "tainted"
// state (true once a non-newline byte has been emitted since the last
// newline) that triggers timestamp insertion.
type Renderer struct {
	w       io.Writer
	tainted bool
	nextTS  bool

	hexMode bool
	hexCol  int

	// Timestamp, when non-nil, is called to obtain the timestamp string
	// to print before the first non-newline byte following a newline.
	Timestamp func() string
}

// New creates a Renderer writing to w in normal mode.
func New(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// SetHexMode switches between normal and hex rendering. Switching modes
// resets the hex column counter but preserves the tainted/timestamp state.
func (r *Renderer) SetHexMode(hex bool) {
	r.hexMode = hex
	r.hexCol = 0
}

// HexMode reports whether hex rendering is active.
func (r *Renderer) HexMode() bool { return r.hexMode }

// Tainted reports whether the output line currently has non-newline
// content since the last newline.
func (r *Renderer) Tainted() bool { return r.tainted }

// RenderByte renders one RX byte according to the active mode.
func (r *Renderer) RenderByte(c byte) {
	if r.hexMode {
		r.renderHex(c)
		return
	}
	r.renderNormal(c)
}

func (r *Renderer) maybeTimestamp() {
	if !r.nextTS {
		return
	}
	r.nextTS = false
	if r.Timestamp != nil {
		if ts := r.Timestamp(); ts != "" {
			fmt.Fprint(r.w, ts)
		}
	}
}

func (r *Renderer) renderNormal(c byte) {
	if c == '\n' {
		fmt.Fprint(r.w, "\n")
		r.tainted = false
		r.nextTS = true
		return
	}
	r.maybeTimestamp()
	switch {
	case c == '\r' || c == '\t' || (c >= 0x20 && c < 0x7f):
		r.w.Write([]byte{c})
	case c < 0x20:
		// Visible caret escape for control characters, e.g. ^C.
		fmt.Fprintf(r.w, "^%c", c+'@')
	default:
		fmt.Fprintf(r.w, "\\x%02x", c)
	}
	r.tainted = true
}

func (r *Renderer) renderHex(c byte) {
	r.maybeTimestamp()
	fmt.Fprintf(r.w, "%02X ", c)
	r.tainted = true
	r.hexCol++
	if r.hexCol >= hexColumnWidth {
		fmt.Fprint(r.w, "\n")
		r.hexCol = 0
		r.tainted = false
		r.nextTS = true
	}
}

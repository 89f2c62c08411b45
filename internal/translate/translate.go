// Package translate implements the per-byte RX/TX character mapping
// rules from spec.md §4.5: bit reversal, newline/CR rewrites, DEL->BS,
// NUL->BREAK, plus the hex-input nibble accumulator and the line-edit
// buffer used in `line` input mode.
package translate

import "github.com/tio-term/tio/internal/config"

// ReverseBits reverses the bit order of a byte (MSB<->LSB).
func ReverseBits(b byte) byte {
	b = (b&0xF0)>>4 | (b&0x0F)<<4
	b = (b&0xCC)>>2 | (b&0x33)<<2
	b = (b&0xAA)>>1 | (b&0x55)<<1
	return b
}

// RX applies the configured RX mapping to one incoming byte and returns
// the bytes that should be rendered in its place. Bit-reverse, when
// enabled, runs first and suppresses the remaining character rewrites
// (the byte's meaning is no longer ASCII once reversed).
func RX(m config.MapFlags, c byte) []byte {
	if m.MSB2LSB {
		return []byte{ReverseBits(c)}
	}
	if c == '\f' && m.IFFESCC {
		return []byte{0x1b, 'c'}
	}
	if c == '\n' && m.INLCRNL {
		return []byte{'\r', '\n'}
	}
	return []byte{c}
}

// TXResult describes what a single TX byte expands to after mapping.
type TXResult struct {
	ToPort    []byte // bytes to write to the serial device
	ToEcho    []byte // bytes to echo locally in place of ToPort; empty means echo ToPort
	SendBreak bool   // ONULBRK: byte was NUL, send BREAK instead of data
}

// TX applies the configured TX mapping to one typed byte.
func TX(m config.MapFlags, c byte) TXResult {
	if c == 0 && m.ONULBRK {
		return TXResult{SendBreak: true}
	}
	if c == 127 && m.ODELBS {
		c = '\b'
	}
	if c == '\r' && m.OCRNL {
		c = '\n'
	}
	if (c == '\n' || c == '\r') && m.ONLCRNL {
		return TXResult{ToPort: []byte{'\r', '\n'}, ToEcho: []byte{'\r', '\n'}}
	}
	return TXResult{ToPort: []byte{c}}
}

// UpperOutput applies the lower->upper output mapping to p in place and
// returns it; callers must own the buffer they pass (spec.md §4.3).
func UpperOutput(p []byte) []byte {
	for i, c := range p {
		if c >= 'a' && c <= 'z' {
			p[i] = c - ('a' - 'A')
		}
	}
	return p
}

// Package writebuf implements the coalescing write buffer described in
// spec.md §3/§4.3: writes accumulate up to BUFSIZ*2 bytes and are
// flushed in one shot, unless per-character/per-line output delay is
// configured, in which case writes bypass coalescing entirely.
package writebuf

import (
	"io"
	"time"
)

// BufSiz mirrors the C library BUFSIZ used as the sizing unit in the
// original implementation; the buffer capacity is 2*BufSiz.
const BufSiz = 8192

// Capacity is the buffer's fixed size: 2*BufSiz.
const Capacity = 2 * BufSiz

// Buffer coalesces writes destined for the serial device.
type Buffer struct {
	dst   io.Writer
	data  [Capacity]byte
	count int

	// CharDelay, when non-zero, forces byte-by-byte direct writes with
	// a sleep after every byte.
	CharDelay time.Duration
	// LineDelay, when non-zero, adds an extra sleep after every '\n'
	// byte written (in addition to any CharDelay).
	LineDelay time.Duration

	// Drain is called after every direct (delay-mode) write, matching
	// the "drain device after each direct write" policy in spec.md §4.3.
	// It may be nil.
	Drain func() error

	// sleep is overridable for tests.
	sleep func(time.Duration)
}

// New creates a Buffer that flushes to dst.
func New(dst io.Writer) *Buffer {
	return &Buffer{dst: dst, sleep: time.Sleep}
}

func (b *Buffer) delayActive() bool {
	return b.CharDelay > 0 || b.LineDelay > 0
}

// Write appends bytes to the buffer, or (if a delay is configured)
// writes them one at a time with the configured delays. Write does not
// apply the OLTU lower-to-upper mapping; callers that enable it upcase
// their own slice in place (translate.UpperOutput) before calling Write.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.delayActive() {
		return b.writeDelayed(p)
	}
	if b.count+len(p) > Capacity {
		if err := b.Sync(); err != nil {
			return 0, err
		}
	}
	if len(p) > Capacity {
		// A single write larger than the whole buffer: flush straight
		// through rather than growing the buffer past its fixed size.
		n, err := b.dst.Write(p)
		return n, err
	}
	n := copy(b.data[b.count:], p)
	b.count += n
	return n, nil
}

func (b *Buffer) writeDelayed(p []byte) (int, error) {
	for i, c := range p {
		if _, err := b.dst.Write([]byte{c}); err != nil {
			return i, err
		}
		if b.Drain != nil {
			if err := b.Drain(); err != nil {
				return i + 1, err
			}
		}
		if c == '\n' && b.LineDelay > 0 {
			b.sleep(b.LineDelay)
		}
		if b.CharDelay > 0 {
			b.sleep(b.CharDelay)
		}
	}
	return len(p), nil
}

// Sync drains the buffer fully, tolerating short writes, and resets the
// count to 0 regardless of whether a write error occurred partway
// through (matching spec.md §4.3: "buffer is reset regardless").
func (b *Buffer) Sync() error {
	defer func() { b.count = 0 }()
	off := 0
	for off < b.count {
		n, err := b.dst.Write(b.data[off:b.count])
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		off += n
	}
	return nil
}

// Count returns the number of bytes currently buffered.
func (b *Buffer) Count() int { return b.count }

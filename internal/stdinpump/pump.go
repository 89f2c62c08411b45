// Package stdinpump runs a dedicated goroutine that reads standard
// input into an io.Pipe so the connection engine can multiplex it
// alongside the tty and mirror socket using an ordinary Go select,
// the idiomatic replacement for the original select(2)-over-fds
// design (spec.md §4.6, §5).
package stdinpump

import (
	"io"
	"sync"
	"sync/atomic"
)

// BufSiz bounds a single read from stdin per pump iteration.
const BufSiz = 8192

// Pump reads from an io.Reader (normally os.Stdin) and republishes the
// bytes on a pipe that the engine reads from. It also tracks a
// one-shot "key hit" signal used to cancel an in-progress XYMODEM
// transfer from any keystroke, and exposes the prefix/emergency-quit
// and flush hotkeys so that even a blocked main loop can be
// terminated (spec.md §4.6, §5).
type Pump struct {
	src io.Reader

	pr *io.PipeReader
	pw *io.PipeWriter

	ready      sync.Once
	readyCh    chan struct{}
	keyHit     atomic.Bool
	prefixSeen bool

	PrefixCode byte
	// OnEmergencyQuit is invoked when prefix_code followed by 'q' is
	// seen; it should terminate the process. Optional.
	OnEmergencyQuit func()
	// OnFlush is invoked when prefix_code followed by Shift-F is
	// seen; it should flush the tty's I/O queues. Optional.
	OnFlush func()

	err     error
	errOnce sync.Once
}

// New creates a Pump reading from src. PrefixCode defaults to 0; set
// it before calling Run if the emergency hotkeys should be active.
func New(src io.Reader) *Pump {
	pr, pw := io.Pipe()
	return &Pump{src: src, pr: pr, pw: pw, readyCh: make(chan struct{})}
}

// Reader returns the read end of the internal pipe; the engine selects
// on this via Read calls in its own goroutine.
func (p *Pump) Reader() *io.PipeReader { return p.pr }

// WaitReady blocks until the pump's pipe is ready to be read from,
// matching the synchronized-initialization contract in spec.md §4.6
// ("the main loop must block on an input_ready mutex until the pump
// releases it").
func (p *Pump) WaitReady() { <-p.readyCh }

// KeyHit reports whether any keystroke has arrived since the last
// ResetKeyHit call. Used to cancel an in-progress XYMODEM transfer.
func (p *Pump) KeyHit() bool { return p.keyHit.Load() }

// ResetKeyHit clears the key-hit flag, typically before starting a
// new transfer.
func (p *Pump) ResetKeyHit() { p.keyHit.Store(false) }

// Err returns the error that terminated the pump's read loop, if any
// (io.EOF is not reported as an error; it is the normal exit path).
func (p *Pump) Err() error { return p.err }

// Run reads from src until EOF or error, relaying bytes to the pipe.
// It signals readiness once before blocking on its first read. Run
// returns when the source is exhausted or the pipe is closed; callers
// typically invoke it with `go pump.Run()`.
func (p *Pump) Run() {
	p.ready.Do(func() { close(p.readyCh) })

	buf := make([]byte, BufSiz)
	for {
		n, err := p.src.Read(buf)
		if n > 0 {
			p.keyHit.Store(true)
			p.scanHotkeys(buf[:n])
			if _, werr := p.pw.Write(buf[:n]); werr != nil {
				p.errOnce.Do(func() { p.err = werr })
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				p.errOnce.Do(func() { p.err = err })
			}
			p.pw.Close()
			return
		}
	}
}

// scanHotkeys detects prefix_code+q (emergency quit) and
// prefix_code+Shift-F (flush) ahead of relaying, so that these work
// even if the command interpreter downstream is stalled.
func (p *Pump) scanHotkeys(data []byte) {
	if p.PrefixCode == 0 {
		return
	}
	for _, c := range data {
		if p.prefixSeen {
			p.prefixSeen = false
			switch c {
			case 'q':
				if p.OnEmergencyQuit != nil {
					p.OnEmergencyQuit()
				}
			case 'F':
				if p.OnFlush != nil {
					p.OnFlush()
				}
			}
			continue
		}
		if c == p.PrefixCode {
			p.prefixSeen = true
		}
	}
}

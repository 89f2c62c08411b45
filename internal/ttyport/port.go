// Package ttyport opens and configures the serial device: termios
// settings, exclusive lock, drain/flush/sync, and a restore handler
// guaranteed to run on every exit path (spec.md §4.1).
package ttyport

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/tio-term/tio/internal/config"
	"github.com/tio-term/tio/internal/ttyerr"
)

// Port is one open, configured serial device.
type Port struct {
	file *os.File

	mu          sync.Mutex
	saved       unix.Termios
	haveSaved   bool
	restoreOnce sync.Once
	locked      bool
}

// Open opens path read-write (no controlling terminal), verifies it is
// a character device, takes an exclusive advisory lock, flushes
// pending I/O, saves the current settings, and applies opts. The
// returned Port's Restore must be called on every exit path.
func Open(path string, opts *config.Options) (*Port, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, ttyerr.New(ttyerr.DeviceUnavailable, "open", err)
	}

	fi, err := f.Stat()
	if err != nil || fi.Mode()&os.ModeCharDevice == 0 {
		f.Close()
		return nil, ttyerr.New(ttyerr.NotATty, "open", fmt.Errorf("%s is not a character device", path))
	}

	if err := unix.IoctlSetInt(int(f.Fd()), unix.TIOCEXCL, 0); err != nil {
		f.Close()
		return nil, ttyerr.New(ttyerr.Busy, "lock", err)
	}

	p := &Port{file: f, locked: true}

	if err := unix.IoctlSetInt(int(f.Fd()), unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		// non-fatal: some devices don't support flush before configuration
		_ = err
	}

	saved, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	if err != nil {
		f.Close()
		return nil, ttyerr.New(ttyerr.PortConfig, "tcgetattr", err)
	}
	p.saved = *saved
	p.haveSaved = true

	if err := p.configure(opts); err != nil {
		p.Restore()
		return nil, err
	}

	return p, nil
}

// makeRaw clears the termios flags that would impose a line
// discipline on the device, the same starting point
// golang.org/x/term.MakeRaw uses for a pty, applied here to a real
// serial device before the data-bits/parity/flow settings below.
func makeRaw(t *unix.Termios) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
}

// configure applies opts to the device's termios settings atomically.
func (p *Port) configure(opts *config.Options) error {
	t, err := unix.IoctlGetTermios(int(p.file.Fd()), unix.TCGETS)
	if err != nil {
		return ttyerr.New(ttyerr.PortConfig, "tcgetattr", err)
	}

	makeRaw(t)

	t.Cflag &^= unix.CSIZE
	switch opts.DataBits {
	case 5:
		t.Cflag |= unix.CS5
	case 6:
		t.Cflag |= unix.CS6
	case 7:
		t.Cflag |= unix.CS7
	default:
		t.Cflag |= unix.CS8
	}

	if opts.StopBits == 2 {
		t.Cflag |= unix.CSTOPB
	} else {
		t.Cflag &^= unix.CSTOPB
	}

	switch opts.Parity {
	case config.ParityOdd:
		t.Cflag |= unix.PARENB | unix.PARODD
	case config.ParityEven:
		t.Cflag |= unix.PARENB
		t.Cflag &^= unix.PARODD
	case config.ParityMark:
		t.Cflag |= unix.PARENB | unix.PARODD | unix.CMSPAR
	case config.ParitySpace:
		t.Cflag |= unix.PARENB
		t.Cflag &^= unix.PARODD
		t.Cflag |= unix.CMSPAR
	default:
		t.Cflag &^= unix.PARENB
	}

	switch opts.Flow {
	case config.FlowHard:
		t.Cflag |= unix.CRTSCTS
		t.Iflag &^= unix.IXON | unix.IXOFF
	case config.FlowSoft:
		t.Cflag &^= unix.CRTSCTS
		t.Iflag |= unix.IXON | unix.IXOFF
	default:
		t.Cflag &^= unix.CRTSCTS
		t.Iflag &^= unix.IXON | unix.IXOFF
	}

	if opts.Map.INLCR {
		t.Iflag |= unix.INLCR
	}
	if opts.Map.IGNCR {
		t.Iflag |= unix.IGNCR
	}
	if opts.Map.ICRNL {
		t.Iflag |= unix.ICRNL
	}

	t.Cflag |= unix.CLOCAL | unix.CREAD

	if err := setBaud(t, int(opts.Baudrate)); err != nil {
		return ttyerr.New(ttyerr.PortConfig, "baud", err)
	}

	if err := unix.IoctlSetTermios(int(p.file.Fd()), unix.TCSETS, t); err != nil {
		return ttyerr.New(ttyerr.PortConfig, "tcsetattr", err)
	}
	return nil
}

// Fd satisfies lines.FD so a Port can drive modem-control lines.
func (p *Port) Fd() uintptr { return p.file.Fd() }

// Read reads available bytes, up to len(b).
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.file.Read(b)
	if err != nil {
		return n, ttyerr.New(ttyerr.Io, "read", err)
	}
	return n, nil
}

// Write writes b to the device.
func (p *Port) Write(b []byte) (int, error) {
	n, err := p.file.Write(b)
	if err != nil {
		return n, ttyerr.New(ttyerr.Io, "write", err)
	}
	return n, nil
}

// Drain waits until all output has been transmitted (tcdrain: TCSBRK
// with a non-zero argument).
func (p *Port) Drain() error {
	return unix.IoctlSetInt(int(p.file.Fd()), unix.TCSBRK, 1)
}

// Flush discards pending input and output (TCIOFLUSH).
func (p *Port) Flush() error {
	return unix.IoctlSetInt(int(p.file.Fd()), unix.TCFLSH, unix.TCIOFLUSH)
}

// SendBreak holds the line in space state briefly (spec.md glossary:
// BREAK).
func (p *Port) SendBreak() error {
	if err := unix.IoctlSetInt(int(p.file.Fd()), unix.TIOCSBRK, 0); err != nil {
		return ttyerr.New(ttyerr.Io, "break-set", err)
	}
	return unix.IoctlSetInt(int(p.file.Fd()), unix.TIOCCBRK, 0)
}

// Restore restores the saved termios settings and releases the
// exclusive lock, tolerating EIO/ENXIO (device already gone). It is
// idempotent and safe to call multiple times or after partial setup.
func (p *Port) Restore() error {
	var outerErr error
	p.restoreOnce.Do(func() {
		if p.haveSaved {
			if err := unix.IoctlSetTermios(int(p.file.Fd()), unix.TCSETS, &p.saved); err != nil {
				if !errors.Is(err, unix.EIO) && !errors.Is(err, unix.ENXIO) {
					outerErr = err
				}
			}
		}
		if cerr := p.file.Close(); cerr != nil && outerErr == nil {
			outerErr = cerr
		}
	})
	return outerErr
}

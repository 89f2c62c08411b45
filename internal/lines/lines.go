// Package lines implements the modem-control line subsystem: reading
// and mutating DTR/RTS/CTS/DSR/DCD/RI via the TIOCM* ioctls, with a
// batched "config/apply" staging mode.
package lines

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Line identifies one modem-control line.
type Line int

const (
	DTR Line = iota
	RTS
	CTS
	DSR
	DCD
	RI
)

func (l Line) String() string {
	switch l {
	case DTR:
		return "DTR"
	case RTS:
		return "RTS"
	case CTS:
		return "CTS"
	case DSR:
		return "DSR"
	case DCD:
		return "DCD"
	case RI:
		return "RI"
	default:
		return "?"
	}
}

// Mask returns the TIOCM_* bit for the line.
func (l Line) Mask() int {
	switch l {
	case DTR:
		return unix.TIOCM_DTR
	case RTS:
		return unix.TIOCM_RTS
	case CTS:
		return unix.TIOCM_CTS
	case DSR:
		return unix.TIOCM_DSR
	case DCD:
		return unix.TIOCM_CD
	case RI:
		return unix.TIOCM_RI
	default:
		return 0
	}
}

// maxRegistry is the number of distinct lines the batched config
// registry can stage at once (spec.md §4.2: bounded to the six-line set).
const maxRegistry = 6

// configEntry is one staged {mask, value} pair.
type configEntry struct {
	mask     int
	value    bool
	reserved bool
}

// FD is the subset of *os.File this package needs, so tests can supply
// a pty pair instead of a real serial device.
type FD interface {
	Fd() uintptr
}

// Controller drives the modem-control lines of a single open device.
// The HIGH/LOW convention is inverted versus the raw register (clearing
// the bit asserts the line): Set hides this by taking a boolean "assert".
type Controller struct {
	dev    FD
	log    func(format string, args ...any)
	sleep  func(time.Duration)
	getter func() (int, error)
	setter func(int) error

	registry [maxRegistry]configEntry
}

// New creates a Controller for dev. log may be nil to discard messages.
func New(dev FD, log func(format string, args ...any)) *Controller {
	if log == nil {
		log = func(string, ...any) {}
	}
	c := &Controller{dev: dev, log: log, sleep: time.Sleep}
	c.getter = func() (int, error) { return unix.IoctlGetInt(int(dev.Fd()), unix.TIOCMGET) }
	c.setter = func(state int) error { return unix.IoctlSetInt(int(dev.Fd()), unix.TIOCMSET, state) }
	return c
}

// Get returns the full modem-status bitmask (TIOCMGET).
func (c *Controller) Get() (int, error) {
	return c.getter()
}

// Set asserts or deasserts a single line immediately (not batched).
// Register semantics are inverted: clearing the bit asserts the line.
func (c *Controller) Set(l Line, assert bool) error {
	state, err := c.getter()
	if err != nil {
		return fmt.Errorf("get line state: %w", err)
	}
	mask := l.Mask()
	if assert {
		state &^= mask
	} else {
		state |= mask
	}
	if err := c.setter(state); err != nil {
		return fmt.Errorf("set line state: %w", err)
	}
	if assert {
		c.log("Setting %s to HIGH", l)
	} else {
		c.log("Setting %s to LOW", l)
	}
	return nil
}

// Toggle flips a single line's asserted state and reports the new state.
func (c *Controller) Toggle(l Line) error {
	state, err := c.getter()
	if err != nil {
		return fmt.Errorf("get line state: %w", err)
	}
	mask := l.Mask()
	if state&mask != 0 {
		state &^= mask
		c.log("Setting %s to HIGH", l)
	} else {
		state |= mask
		c.log("Setting %s to LOW", l)
	}
	return c.setter(state)
}

// Pulse toggles l, sleeps for duration, then toggles again. A zero
// duration still performs both toggles (a no-op in steady state).
func (c *Controller) Pulse(l Line, duration time.Duration) error {
	if err := c.Toggle(l); err != nil {
		return err
	}
	if duration > 0 {
		c.log("Waiting %d ms", duration.Milliseconds())
		c.sleep(duration)
	}
	return c.Toggle(l)
}

// States returns the current asserted state of all six lines, in the
// order DTR,RTS,CTS,DSR,DCD,RI, for the Shift-L command.
func (c *Controller) States() (map[Line]bool, error) {
	state, err := c.getter()
	if err != nil {
		return nil, err
	}
	out := make(map[Line]bool, 6)
	for _, l := range []Line{DTR, RTS, CTS, DSR, DCD, RI} {
		out[l] = state&l.Mask() == 0
	}
	return out, nil
}

// Config stages a {mask, value} change for a later batched Apply. It
// reuses an existing entry for the same line if present, otherwise
// takes the first empty slot. Staging beyond the six-line capacity is
// dropped silently per spec.md §4.2.
func (c *Controller) Config(l Line, assert bool) {
	mask := l.Mask()
	for i := range c.registry {
		if c.registry[i].reserved && c.registry[i].mask == mask {
			c.registry[i].value = assert
			return
		}
	}
	for i := range c.registry {
		if !c.registry[i].reserved {
			c.registry[i] = configEntry{mask: mask, value: assert, reserved: true}
			return
		}
	}
	// registry full: silently drop per spec.
}

// Apply performs a single read-modify-write applying every staged
// change, then clears the registry.
func (c *Controller) Apply() error {
	state, err := c.getter()
	if err != nil {
		return fmt.Errorf("get line state: %w", err)
	}
	for i := range c.registry {
		e := c.registry[i]
		if !e.reserved {
			continue
		}
		if e.value {
			state &^= e.mask
		} else {
			state |= e.mask
		}
	}
	if err := c.setter(state); err != nil {
		return fmt.Errorf("set line state: %w", err)
	}
	c.registry = [maxRegistry]configEntry{}
	return nil
}

//go:build linux

package ttyport

import (
	"golang.org/x/sys/unix"
)

// setArbitraryBaud sets a non-standard baud rate via Linux's BOTHER
// mechanism: Cflag gets the BOTHER bit pattern instead of a Bxxx
// constant, and the exact rate is carried in Ispeed/Ospeed.
func setArbitraryBaud(t *unix.Termios, rate int) error {
	clearBaudBits(t)
	t.Cflag |= unix.BOTHER
	t.Ispeed = uint32(rate)
	t.Ospeed = uint32(rate)
	return nil
}

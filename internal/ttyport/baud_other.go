//go:build !linux

package ttyport

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// setArbitraryBaud has no portable equivalent outside Linux's BOTHER
// mechanism in this codebase; unrecognised rates are rejected.
func setArbitraryBaud(t *unix.Termios, rate int) error {
	return fmt.Errorf("baud rate %d not in the standard table and arbitrary speed is unsupported on this platform", rate)
}

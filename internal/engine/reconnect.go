package engine

import (
	"context"
	"fmt"
	"os"
	"time"
)

// reconnectPoll is the cadence for polling device availability while
// waiting for a hot-unplugged device to reappear (spec.md §4.8).
const reconnectPoll = time.Second

// waitForDevice polls once per reconnectPoll for the device path to
// exist again (spec.md §4.8). Between polls it checks only the quit
// flag (set by the stdin pump's emergency-quit hotkey) and ctx; stdin
// commands and mirror-socket input are not serviced while waiting. It
// returns false if the wait was interrupted by quit/cancellation.
func (e *Engine) waitForDevice(ctx context.Context) bool {
	if e.Diag != nil {
		e.Diag.Warn("Waiting for tty device..")
		e.Diag.ResetOnce()
	}

	ticker := time.NewTicker(reconnectPoll)
	defer ticker.Stop()

	for {
		if e.quit {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if _, err := os.Stat(e.Opts.Device); err == nil {
				return true
			} else if e.Diag != nil {
				e.Diag.WarnOnce(fmt.Sprintf("Could not open tty device (%v)", err))
			}
		}
	}
}

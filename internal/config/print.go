package config

import "fmt"

// Summary renders the configuration summary shown by the `c` command,
// matching the field order and wording of options.c's options_print.
func (o *Options) Summary() []string {
	lines := []string{
		"Configuration:",
		fmt.Sprintf(" Device: %s", o.Device),
		fmt.Sprintf(" Baudrate: %d", o.Baudrate),
		fmt.Sprintf(" Databits: %d", o.DataBits),
		fmt.Sprintf(" Flow: %s", o.Flow),
		fmt.Sprintf(" Stopbits: %d", o.StopBits),
		fmt.Sprintf(" Parity: %s", o.Parity),
		fmt.Sprintf(" Local echo: %s", enabledStr(o.LocalEcho)),
		fmt.Sprintf(" Timestamp: %s", o.Timestamp),
		fmt.Sprintf(" Output delay: %d", o.OutputCharDelay.Milliseconds()),
		fmt.Sprintf(" Output line delay: %d", o.OutputLineDelay.Milliseconds()),
		fmt.Sprintf(" Auto connect: %s", enabledStr(!o.NoAutoconnect)),
		fmt.Sprintf(" Pulse duration: DTR=%d RTS=%d CTS=%d DSR=%d DCD=%d RI=%d",
			o.Pulse.DTR, o.Pulse.RTS, o.Pulse.CTS, o.Pulse.DSR, o.Pulse.DCD, o.Pulse.RI),
		fmt.Sprintf(" Output mode: %s", o.OutputMode),
		fmt.Sprintf(" Input mode: %s", o.InputMode),
	}
	if o.LogEnabled {
		lines = append(lines, fmt.Sprintf(" Log file: %s", o.LogFilename))
	}
	if o.Socket != "" {
		lines = append(lines, fmt.Sprintf(" Socket: %s", o.Socket))
	}
	return lines
}

func enabledStr(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

package engine

import (
	"fmt"
	"time"

	"github.com/tio-term/tio/internal/config"
	"github.com/tio-term/tio/internal/lines"
	"github.com/tio-term/tio/internal/xymodem"
)

// engineActions is Engine under another name, letting command.New
// bind an *Engine as a command.Actions without an extra indirection
// struct: command-plane side effects are just Engine methods.
type engineActions Engine

func (a *engineActions) e() *Engine { return (*Engine)(a) }

func (a *engineActions) SendBreak() {
	if a.port != nil {
		a.port.SendBreak()
	}
}

func (a *engineActions) PrintHelp() {
	for _, line := range helpText {
		fmt.Fprintln(a.e().Stdout, line)
	}
}

var helpText = []string{
	"Key commands:",
	" ?          List commands",
	" b          Send break",
	" c          Show configuration",
	" e          Toggle local echo",
	" f          Toggle log to file",
	" F          Flush tty",
	" g          Toggle line (DTR/RTS/CTS/DSR/DCD/RI)",
	" p          Pulse line",
	" i          Cycle input mode",
	" o          Cycle output mode",
	" l          Clear screen",
	" L          Show line states",
	" m          Toggle bit reversal",
	" q          Quit",
	" r          Run script",
	" s          Show counters",
	" t          Cycle timestamp mode",
	" U          Toggle upper-case output",
	" v          Show version",
	" x          XMODEM receive",
	" y          YMODEM send",
	" z          Print easter egg",
}

func (a *engineActions) PrintConfig() {
	for _, line := range a.Opts.Summary() {
		fmt.Fprintln(a.e().Stdout, line)
	}
}

func (a *engineActions) ToggleLocalEcho() {
	a.Opts.LocalEcho = !a.Opts.LocalEcho
}

func (a *engineActions) ToggleLog() {
	if a.logTap == nil {
		return
	}
	if err := a.logTap.Toggle(); err != nil && a.Diag != nil {
		a.Diag.Warn(err.Error())
	}
}

func (a *engineActions) FlushTty() {
	if a.port != nil {
		a.port.Flush()
	}
}

func (a *engineActions) ToggleLine(l lines.Line) {
	if a.lineCtl == nil {
		return
	}
	a.lineCtl.Toggle(l)
}

func (a *engineActions) PulseLine(l lines.Line) {
	if a.lineCtl == nil {
		return
	}
	d := pulseDuration(a.Opts.Pulse, l)
	a.lineCtl.Pulse(l, d)
}

func pulseDuration(p config.PulseDurations, l lines.Line) time.Duration {
	ms := 0
	switch l {
	case lines.DTR:
		ms = p.DTR
	case lines.RTS:
		ms = p.RTS
	case lines.CTS:
		ms = p.CTS
	case lines.DSR:
		ms = p.DSR
	case lines.DCD:
		ms = p.DCD
	case lines.RI:
		ms = p.RI
	}
	return time.Duration(ms) * time.Millisecond
}

func (a *engineActions) CycleInputMode() {
	a.Opts.InputMode = a.Opts.InputMode.Next()
}

func (a *engineActions) CycleOutputMode() {
	a.Opts.OutputMode = a.Opts.OutputMode.Next()
	if a.renderer != nil {
		a.renderer.SetHexMode(a.Opts.OutputMode == config.OutputHex)
	}
}

func (a *engineActions) ClearScreen() {
	fmt.Fprint(a.e().Stdout, "\x1bc")
}

func (a *engineActions) PrintLineStates() {
	if a.lineCtl == nil {
		return
	}
	states, err := a.lineCtl.States()
	if err != nil {
		if a.Diag != nil {
			a.Diag.Warn(err.Error())
		}
		return
	}
	for _, l := range []lines.Line{lines.DTR, lines.RTS, lines.CTS, lines.DSR, lines.DCD, lines.RI} {
		fmt.Fprintf(a.e().Stdout, " %s: %s\n", l, onOff(states[l]))
	}
}

func onOff(b bool) string {
	if b {
		return "HIGH"
	}
	return "LOW"
}

func (a *engineActions) ToggleBitReverse() {
	a.Opts.Map.MSB2LSB = !a.Opts.Map.MSB2LSB
}

func (a *engineActions) Exit() {
	a.quit = true
}

func (a *engineActions) RunScript() {
	e := a.e()
	if e.Script == nil {
		return
	}
	var err error
	if e.Opts.ScriptFilename != "" {
		err = e.Script.RunFile(e.Opts.ScriptFilename)
	} else {
		err = e.Script.RunString(e.Opts.ScriptSource)
	}
	e.handleScriptResult(err)
}

func (a *engineActions) PrintCounters() {
	fmt.Fprintf(a.e().Stdout, " Sent: %d\n Received: %d\n", a.txCount, a.rxCount)
}

func (a *engineActions) CycleTimestamp() {
	a.Opts.Timestamp = a.Opts.Timestamp.Next()
}

func (a *engineActions) ToggleUpperOutput() {
	a.Opts.Map.OLTU = !a.Opts.Map.OLTU
}

func (a *engineActions) PrintVersion() {
	fmt.Fprintf(a.e().Stdout, "tio %s\n", config.Version)
}

func (a *engineActions) XmodemReceive(proto string, filename string) {
	e := a.e()
	if e.port == nil {
		return
	}
	p := xymodem.XMODEM1K
	if proto == "XMODEM_CRC" {
		p = xymodem.XMODEMCRC
	}
	e.pump.ResetKeyHit()
	if err := xymodem.Receive(e.port, filename, p, e.pump.KeyHit); err != nil && e.Diag != nil {
		e.Diag.Warn(err.Error())
	}
}

func (a *engineActions) YmodemSend(filename string) {
	e := a.e()
	if e.port == nil {
		return
	}
	e.pump.ResetKeyHit()
	if err := xymodem.Send(e.port, filename, xymodem.YMODEM, e.pump.KeyHit); err != nil && e.Diag != nil {
		e.Diag.Warn(err.Error())
	}
}

func (a *engineActions) PrintEasterEgg() {
	fmt.Fprintln(a.e().Stdout, " (o_o)  tio")
}

func (a *engineActions) Warn(format string, args ...any) {
	if a.Diag != nil {
		a.Diag.Warn(fmt.Sprintf(format, args...))
	}
}

// Package command implements the in-band prefix-key command
// interpreter: a single-byte-at-a-time state machine that turns
// "prefix + key" sequences typed at the keyboard into actions against
// the connection engine (spec.md §4.7).
package command

import "github.com/tio-term/tio/internal/lines"

// State identifies where the interpreter is within a multi-byte
// command sequence.
type State int

const (
	Idle State = iota
	AfterPrefix
	AwaitLineDigit
	AwaitXmodemDigit
	AwaitFilename
)

// LineSubMode distinguishes the `g` (toggle) and `p` (pulse) submodes,
// both of which wait for a line-select digit 0..5.
type LineSubMode int

const (
	LineToggle LineSubMode = iota
	LinePulse
)

// lineByDigit maps the digit keys 0..5 to modem-control lines, in the
// DTR,RTS,CTS,DSR,DCD,RI order used throughout spec.md §4.2/§4.7.
var lineByDigit = [6]lines.Line{lines.DTR, lines.RTS, lines.CTS, lines.DSR, lines.DCD, lines.RI}

// Actions is the set of side effects the interpreter dispatches to.
// The engine implements this to wire commands to the rest of the
// system; every method may be a no-op stub in tests.
type Actions interface {
	SendBreak()
	PrintHelp()
	PrintConfig()
	ToggleLocalEcho()
	ToggleLog()
	FlushTty()
	ToggleLine(l lines.Line)
	PulseLine(l lines.Line)
	CycleInputMode()
	CycleOutputMode()
	ClearScreen()
	PrintLineStates()
	ToggleBitReverse()
	Exit()
	RunScript()
	PrintCounters()
	CycleTimestamp()
	ToggleUpperOutput()
	PrintVersion()
	XmodemReceive(proto string, filename string)
	YmodemSend(filename string)
	PrintEasterEgg()
	Warn(format string, args ...any)
}

// Interpreter is the prefix-key state machine described in spec.md
// §3 ("Command interpreter state") and §4.7.
type Interpreter struct {
	PrefixCode byte
	act        Actions

	state      State
	lineMode   LineSubMode
	filename   []byte
	onFilename func(string)
}

// New creates an Interpreter dispatching to act.
func New(prefixCode byte, act Actions) *Interpreter {
	return &Interpreter{PrefixCode: prefixCode, act: act}
}

// Result reports whether the fed byte should be forwarded to the tty
// device as ordinary data (per-input-mode translation still applies
// downstream) or was consumed by the command plane.
type Result struct {
	Forward bool
	Byte    byte
}

// Feed processes one byte read from the stdin pump.
func (in *Interpreter) Feed(c byte) Result {
	switch in.state {
	case Idle:
		if c == in.PrefixCode {
			in.state = AfterPrefix
			return Result{}
		}
		return Result{Forward: true, Byte: c}

	case AfterPrefix:
		in.state = Idle
		if c == in.PrefixCode {
			return Result{Forward: true, Byte: c}
		}
		in.dispatch(c)
		return Result{}

	case AwaitLineDigit:
		in.state = Idle
		if c < '0' || c > '5' {
			in.act.Warn("invalid line selector %q", c)
			return Result{}
		}
		l := lineByDigit[c-'0']
		if in.lineMode == LineToggle {
			in.act.ToggleLine(l)
		} else {
			in.act.PulseLine(l)
		}
		return Result{}

	case AwaitXmodemDigit:
		switch c {
		case '0':
			in.promptFilename(func(name string) { in.act.XmodemReceive("XMODEM_1K", name) })
		case '1':
			in.promptFilename(func(name string) { in.act.XmodemReceive("XMODEM_CRC", name) })
		default:
			in.state = Idle
			in.act.Warn("invalid xmodem selector %q", c)
		}
		return Result{}

	case AwaitFilename:
		switch c {
		case '\r', '\n':
			name := string(in.filename)
			onFilename := in.onFilename
			in.filename = nil
			in.onFilename = nil
			in.state = Idle
			onFilename(name)
		case '\b', 127:
			if len(in.filename) > 0 {
				in.filename = in.filename[:len(in.filename)-1]
			}
		default:
			in.filename = append(in.filename, c)
		}
		return Result{}
	}
	return Result{}
}

// promptFilename enters the filename-prompt submode (spec.md §4.7: "BS/
// DEL honoured, terminated by CR"), invoking onName with the committed
// filename once CR is seen.
func (in *Interpreter) promptFilename(onName func(name string)) {
	in.state = AwaitFilename
	in.filename = nil
	in.onFilename = onName
}

func (in *Interpreter) dispatch(c byte) {
	switch c {
	case '?':
		in.act.PrintHelp()
	case 'b':
		in.act.SendBreak()
	case 'c':
		in.act.PrintConfig()
	case 'e':
		in.act.ToggleLocalEcho()
	case 'f':
		in.act.ToggleLog()
	case 'F':
		in.act.FlushTty()
	case 'g':
		in.lineMode = LineToggle
		in.state = AwaitLineDigit
	case 'p':
		in.lineMode = LinePulse
		in.state = AwaitLineDigit
	case 'i':
		in.act.CycleInputMode()
	case 'o':
		in.act.CycleOutputMode()
	case 'l':
		in.act.ClearScreen()
	case 'L':
		in.act.PrintLineStates()
	case 'm':
		in.act.ToggleBitReverse()
	case 'q':
		in.act.Exit()
	case 'r':
		in.act.RunScript()
	case 's':
		in.act.PrintCounters()
	case 't':
		in.act.CycleTimestamp()
	case 'U':
		in.act.ToggleUpperOutput()
	case 'v':
		in.act.PrintVersion()
	case 'x':
		in.state = AwaitXmodemDigit
	case 'y':
		in.promptFilename(func(name string) { in.act.YmodemSend(name) })
	case 'z':
		in.act.PrintEasterEgg()
	default:
		// unknown command byte: swallow, return to Idle (already set)
	}
}

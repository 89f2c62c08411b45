package command

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tio-term/tio/internal/lines"
)

type fakeActions struct {
	calls     []string
	toggled   []lines.Line
	pulsed    []lines.Line
	warns     []string
	filenames []string
}

func (f *fakeActions) SendBreak()              { f.calls = append(f.calls, "break") }
func (f *fakeActions) PrintHelp()              { f.calls = append(f.calls, "help") }
func (f *fakeActions) PrintConfig()            { f.calls = append(f.calls, "config") }
func (f *fakeActions) ToggleLocalEcho()        { f.calls = append(f.calls, "echo") }
func (f *fakeActions) ToggleLog()              { f.calls = append(f.calls, "log") }
func (f *fakeActions) FlushTty()               { f.calls = append(f.calls, "flush") }
func (f *fakeActions) ToggleLine(l lines.Line) { f.toggled = append(f.toggled, l) }
func (f *fakeActions) PulseLine(l lines.Line)  { f.pulsed = append(f.pulsed, l) }
func (f *fakeActions) CycleInputMode()         { f.calls = append(f.calls, "input-mode") }
func (f *fakeActions) CycleOutputMode()        { f.calls = append(f.calls, "output-mode") }
func (f *fakeActions) ClearScreen()            { f.calls = append(f.calls, "clear") }
func (f *fakeActions) PrintLineStates()        { f.calls = append(f.calls, "line-states") }
func (f *fakeActions) ToggleBitReverse()       { f.calls = append(f.calls, "bit-reverse") }
func (f *fakeActions) Exit()                   { f.calls = append(f.calls, "exit") }
func (f *fakeActions) RunScript()              { f.calls = append(f.calls, "script") }
func (f *fakeActions) PrintCounters()          { f.calls = append(f.calls, "counters") }
func (f *fakeActions) CycleTimestamp()         { f.calls = append(f.calls, "timestamp") }
func (f *fakeActions) ToggleUpperOutput()      { f.calls = append(f.calls, "upper") }
func (f *fakeActions) PrintVersion()           { f.calls = append(f.calls, "version") }
func (f *fakeActions) XmodemReceive(proto, filename string) {
	f.calls = append(f.calls, "xmodem-recv:"+proto)
	f.filenames = append(f.filenames, filename)
}
func (f *fakeActions) YmodemSend(filename string) {
	f.calls = append(f.calls, "ymodem-send")
	f.filenames = append(f.filenames, filename)
}
func (f *fakeActions) PrintEasterEgg() { f.calls = append(f.calls, "easteregg") }
func (f *fakeActions) Warn(format string, args ...any) {
	f.warns = append(f.warns, fmt.Sprintf(format, args...))
}

const prefix = 0x14

func feedAll(in *Interpreter, s string) []Result {
	out := make([]Result, 0, len(s))
	for _, c := range []byte(s) {
		out = append(out, in.Feed(c))
	}
	return out
}

func TestPlainBytesForwardInIdle(t *testing.T) {
	act := &fakeActions{}
	in := New(prefix, act)
	results := feedAll(in, "hi")
	for _, r := range results {
		require.True(t, r.Forward)
	}
}

func TestDoublePrefixEmitsOnePrefixByte(t *testing.T) {
	act := &fakeActions{}
	in := New(prefix, act)
	results := feedAll(in, string([]byte{prefix, prefix}))
	require.False(t, results[0].Forward)
	require.True(t, results[1].Forward)
	require.Equal(t, byte(prefix), results[1].Byte)
}

func TestPrefixUnknownCommandEmitsNothing(t *testing.T) {
	act := &fakeActions{}
	in := New(prefix, act)
	results := feedAll(in, string([]byte{prefix, '#'}))
	for _, r := range results {
		require.False(t, r.Forward)
	}
	require.Empty(t, act.calls)
}

func TestPrefixQExits(t *testing.T) {
	act := &fakeActions{}
	in := New(prefix, act)
	feedAll(in, string([]byte{prefix, 'q'}))
	require.Contains(t, act.calls, "exit")
}

func TestLineToggleSubmode(t *testing.T) {
	act := &fakeActions{}
	in := New(prefix, act)
	feedAll(in, string([]byte{prefix, 'g', '1'}))
	require.Equal(t, []lines.Line{lines.RTS}, act.toggled)
}

func TestLinePulseSubmode(t *testing.T) {
	act := &fakeActions{}
	in := New(prefix, act)
	feedAll(in, string([]byte{prefix, 'p', '0'}))
	require.Equal(t, []lines.Line{lines.DTR}, act.pulsed)
}

func TestLineDigitOutOfRangeWarns(t *testing.T) {
	act := &fakeActions{}
	in := New(prefix, act)
	feedAll(in, string([]byte{prefix, 'g', '9'}))
	require.Len(t, act.warns, 1)
	require.Empty(t, act.toggled)
}

func TestXmodemSubmodeDispatchesProtocol(t *testing.T) {
	act := &fakeActions{}
	in := New(prefix, act)
	feedAll(in, string([]byte{prefix, 'x', '1'})+"firmware.bin\r")
	require.Contains(t, act.calls, "xmodem-recv:XMODEM_CRC")
	require.Equal(t, []string{"firmware.bin"}, act.filenames)
}

func TestYmodemSendPromptsFilenameWithBackspace(t *testing.T) {
	act := &fakeActions{}
	in := New(prefix, act)
	// Typo "abc", backspace once, then finish with "d" -> "abd".
	feedAll(in, string([]byte{prefix, 'y'})+"abc\bd\r")
	require.Contains(t, act.calls, "ymodem-send")
	require.Equal(t, []string{"abd"}, act.filenames)
}

func TestXmodemInvalidSelectorSkipsFilenamePrompt(t *testing.T) {
	act := &fakeActions{}
	in := New(prefix, act)
	results := feedAll(in, string([]byte{prefix, 'x', '9'})+"ab")
	require.Len(t, act.warns, 1)
	require.True(t, results[len(results)-1].Forward)
}

func TestSimpleCommandsDispatch(t *testing.T) {
	act := &fakeActions{}
	in := New(prefix, act)
	feedAll(in, string([]byte{prefix, 'c'}))
	require.Contains(t, act.calls, "config")

	act2 := &fakeActions{}
	in2 := New(prefix, act2)
	feedAll(in2, string([]byte{prefix, 'L'}))
	require.Contains(t, act2.calls, "line-states")
}

package translate

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tio-term/tio/internal/config"
)

func TestReverseBits(t *testing.T) {
	require.Equal(t, byte(0x81), ReverseBits(0x81))
	require.Equal(t, byte(0x80), ReverseBits(0x01))
	require.Equal(t, byte(0x00), ReverseBits(0x00))
	require.Equal(t, byte(0xff), ReverseBits(0xff))
}

func TestRXBitReverseSuppressesOtherMapping(t *testing.T) {
	m := config.MapFlags{MSB2LSB: true, INLCRNL: true}
	out := RX(m, '\n')
	require.Equal(t, []byte{ReverseBits('\n')}, out)
}

func TestRXInlcrnl(t *testing.T) {
	m := config.MapFlags{INLCRNL: true}
	require.Equal(t, []byte{'\r', '\n'}, RX(m, '\n'))
}

func TestRXIffescc(t *testing.T) {
	m := config.MapFlags{IFFESCC: true}
	require.Equal(t, []byte{0x1b, 'c'}, RX(m, '\f'))
}

func TestTXOcrnlThenOnlcrnlProducesCRLF(t *testing.T) {
	m := config.MapFlags{OCRNL: true, ONLCRNL: true}
	res := TX(m, '\r')
	require.Equal(t, []byte{'\r', '\n'}, res.ToPort)
	require.Equal(t, []byte{'\r', '\n'}, res.ToEcho)
}

func TestTXOnulbrk(t *testing.T) {
	m := config.MapFlags{ONULBRK: true}
	res := TX(m, 0)
	require.True(t, res.SendBreak)
	require.Empty(t, res.ToPort)
}

func TestTXOdelbs(t *testing.T) {
	m := config.MapFlags{ODELBS: true}
	res := TX(m, 127)
	require.Equal(t, []byte{'\b'}, res.ToPort)
}

func TestUpperOutput(t *testing.T) {
	p := []byte("Hello!")
	UpperOutput(p)
	require.Equal(t, []byte("HELLO!"), p)
}

func TestHexAccumulatorTwoDigitsProduceOneByte(t *testing.T) {
	var h HexAccumulator
	r1 := h.Feed('4')
	require.True(t, r1.Echo)
	require.False(t, r1.Complete)

	r2 := h.Feed('a')
	require.True(t, r2.Complete)
	require.Equal(t, byte(0x4a), r2.Byte)

	// index wraps: accumulator ready for a fresh byte
	r3 := h.Feed('f')
	require.False(t, r3.Complete)
	r4 := h.Feed('f')
	require.True(t, r4.Complete)
	require.Equal(t, byte(0xff), r4.Byte)
}

func TestHexAccumulatorInvalidAborts(t *testing.T) {
	var h HexAccumulator
	r := h.Feed('z')
	require.True(t, r.Invalid)
}

func TestLineEditorCommitsOnCR(t *testing.T) {
	var e LineEditor
	e.Feed('h')
	e.Feed('i')
	r := e.Feed('\r')
	require.Equal(t, LineEditCommit, r.Action)
	require.Equal(t, []byte("hi\r"), r.ToPort)
	require.Equal(t, 0, e.Len())
}

func TestLineEditorBackspaceErases(t *testing.T) {
	var e LineEditor
	e.Feed('h')
	e.Feed('i')
	r := e.Feed(127)
	require.Equal(t, LineEditErase, r.Action)
	require.Equal(t, 1, e.Len())
}

func TestLineEditorSwallowsArrowKeys(t *testing.T) {
	var e LineEditor
	e.Feed('a')
	r1 := e.Feed(0x1b)
	require.Equal(t, LineEditNone, r1.Action)
	r2 := e.Feed('[')
	require.Equal(t, LineEditNone, r2.Action)
	r3 := e.Feed('A')
	require.Equal(t, LineEditNone, r3.Action)
	require.Equal(t, 1, e.Len(), "arrow sequence must not be committed to the line")
}

func TestLineEditorLoneEscSwallowed(t *testing.T) {
	var e LineEditor
	r := e.Feed(0x1b)
	require.Equal(t, LineEditNone, r.Action)
	r2 := e.Feed('x')
	require.Equal(t, LineEditNone, r2.Action)
}

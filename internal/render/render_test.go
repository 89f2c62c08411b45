package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderNormalPassthrough(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	for _, c := range []byte("hi\n") {
		r.RenderByte(c)
	}
	require.Equal(t, "hi\n", buf.String())
	require.False(t, r.Tainted())
}

func TestRenderNormalControlCharsVisible(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.RenderByte(0x03) // ETX / ctrl-C
	require.Equal(t, "^C", buf.String())
	require.True(t, r.Tainted())
}

func TestRenderHexWraps(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.SetHexMode(true)
	for i := 0; i < hexColumnWidth; i++ {
		r.RenderByte(byte(i))
	}
	out := buf.String()
	require.Contains(t, out, "\n")
	require.False(t, r.Tainted())
}

func TestTimestampPrefixOnlyBeforeFirstNonNewline(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	calls := 0
	r.Timestamp = func() string { calls++; return "[TS] " }

	r.RenderByte('\n') // arms timestamp for next line
	r.RenderByte('A')
	r.RenderByte('B')
	require.Equal(t, 1, calls)
	require.Equal(t, "\n[TS] AB", buf.String())
}

func TestModeSwitchResetsHexColumn(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.SetHexMode(true)
	r.RenderByte('A')
	r.SetHexMode(false)
	require.False(t, r.HexMode())
	require.Equal(t, 0, r.hexCol)
}

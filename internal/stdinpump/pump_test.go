package stdinpump

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPumpRelaysBytes(t *testing.T) {
	src := bytes.NewBufferString("hello")
	p := New(src)
	go p.Run()
	p.WaitReady()

	got := make([]byte, 5)
	_, err := io.ReadFull(p.Reader(), got)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestPumpClosesPipeOnEOF(t *testing.T) {
	src := bytes.NewBufferString("x")
	p := New(src)
	go p.Run()
	p.WaitReady()

	buf := make([]byte, 16)
	n, _ := io.ReadFull(p.Reader(), buf[:1])
	require.Equal(t, 1, n)

	_, err := p.Reader().Read(buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestPumpSetsKeyHit(t *testing.T) {
	src := bytes.NewBufferString("a")
	p := New(src)
	require.False(t, p.KeyHit())
	go p.Run()
	p.WaitReady()

	buf := make([]byte, 1)
	io.ReadFull(p.Reader(), buf)
	require.Eventually(t, p.KeyHit, time.Second, time.Millisecond)
	p.ResetKeyHit()
	require.False(t, p.KeyHit())
}

func TestPumpEmergencyQuitHotkey(t *testing.T) {
	src := bytes.NewBufferString("\x14q")
	p := New(src)
	p.PrefixCode = 0x14
	quit := false
	p.OnEmergencyQuit = func() { quit = true }
	go p.Run()
	p.WaitReady()

	buf := make([]byte, 2)
	io.ReadFull(p.Reader(), buf)
	require.Eventually(t, func() bool { return quit }, time.Second, time.Millisecond)
}

func TestPumpFlushHotkey(t *testing.T) {
	src := bytes.NewBufferString("\x14F")
	p := New(src)
	p.PrefixCode = 0x14
	flushed := false
	p.OnFlush = func() { flushed = true }
	go p.Run()
	p.WaitReady()

	buf := make([]byte, 2)
	io.ReadFull(p.Reader(), buf)
	require.Eventually(t, func() bool { return flushed }, time.Second, time.Millisecond)
}

package xymodem

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCRC16KnownValue(t *testing.T) {
	require.Equal(t, uint16(0), crc16(nil))
	// "123456789" has the well-known CRC-CCITT(XModem) check value 0x31C3.
	require.Equal(t, uint16(0x31C3), crc16([]byte("123456789")))
}

func TestChecksum(t *testing.T) {
	require.Equal(t, byte(0), checksum(nil))
	require.Equal(t, byte('A'+'B'), checksum([]byte("AB")))
}

func TestSendReceiveXmodemCRCRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.bin")
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(srcPath, payload, 0644))

	a, b := net.Pipe()
	dstPath := filepath.Join(dir, "dst.bin")

	done := make(chan error, 1)
	go func() {
		done <- Send(a, srcPath, XMODEMCRC, nil)
	}()

	err := Receive(b, dstPath, XMODEMCRC, nil)
	require.NoError(t, err)
	require.NoError(t, <-done)

	got, err := os.ReadFile(dstPath)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestSendCancelledByKeyHit(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.bin")
	require.NoError(t, os.WriteFile(srcPath, make([]byte, 2048), 0644))

	a, b := net.Pipe()
	defer b.Close()

	cancelled := true
	err := Send(a, srcPath, XMODEM1K, func() bool { return cancelled })
	require.ErrorIs(t, err, ErrCancelled)
}

func TestReceiveTimesOutWithoutSender(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	go func() {
		buf := make([]byte, 1)
		b.SetReadDeadline(time.Now().Add(2 * time.Second))
		b.Read(buf) // drain the initial 'C'
	}()
	err := Receive(b, filepath.Join(t.TempDir(), "out.bin"), XMODEMCRC, nil)
	require.Error(t, err)
}

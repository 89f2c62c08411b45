package ttyport

import (
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	"github.com/tio-term/tio/internal/config"
)

func TestOpenConfiguresAndRestores(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	defer master.Close()
	defer slave.Close()

	opts := config.Defaults()
	opts.Baudrate = 9600

	p, err := Open(slave.Name(), opts)
	require.NoError(t, err)
	require.True(t, p.haveSaved)

	require.NoError(t, p.Restore())
}

func TestReadWriteRoundTrip(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	defer master.Close()
	defer slave.Close()

	p, err := Open(slave.Name(), config.Defaults())
	require.NoError(t, err)
	defer p.Restore()

	done := make(chan struct{})
	var n int
	var werr error
	go func() {
		n, werr = p.Write([]byte("hi"))
		close(done)
	}()

	buf := make([]byte, 2)
	master.SetReadDeadline(time.Now().Add(time.Second))
	_, rerr := master.Read(buf)
	<-done

	require.NoError(t, werr)
	require.Equal(t, 2, n)
	require.NoError(t, rerr)
	require.Equal(t, "hi", string(buf))
}

func TestOpenUnknownPathFails(t *testing.T) {
	_, err := Open("/nonexistent/tio-test-device", config.Defaults())
	require.Error(t, err)
}

package writebuf

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteCoalescesUntilSync(t *testing.T) {
	var dst bytes.Buffer
	b := New(&dst)
	n, err := b.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, 0, dst.Len(), "coalesced write must not hit dst before Sync")
	require.Equal(t, 5, b.Count())

	require.NoError(t, b.Sync())
	require.Equal(t, "hello", dst.String())
	require.Equal(t, 0, b.Count())
}

func TestSyncIsNoopWhenEmpty(t *testing.T) {
	var dst bytes.Buffer
	b := New(&dst)
	require.NoError(t, b.Sync())
	require.Equal(t, 0, dst.Len())
	require.Equal(t, 0, b.Count())
}

func TestPreFlushOnOverflow(t *testing.T) {
	var dst bytes.Buffer
	b := New(&dst)
	first := bytes.Repeat([]byte{'a'}, Capacity-10)
	_, err := b.Write(first)
	require.NoError(t, err)
	require.Equal(t, 0, dst.Len())

	second := bytes.Repeat([]byte{'b'}, 20)
	_, err = b.Write(second)
	require.NoError(t, err)
	// overflow triggers a flush of the first chunk before buffering the second
	require.Equal(t, string(first), dst.String())
	require.Equal(t, 20, b.Count())
}

func TestDelayedWriteBypassesCoalescing(t *testing.T) {
	var dst bytes.Buffer
	slept := []time.Duration{}
	b := New(&dst)
	b.CharDelay = time.Millisecond
	b.LineDelay = 5 * time.Millisecond
	b.sleep = func(d time.Duration) { slept = append(slept, d) }

	n, err := b.Write([]byte("a\n"))
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "a\n", dst.String())
	// 'a': char delay only. '\n': line delay then char delay.
	require.Equal(t, []time.Duration{time.Millisecond, 5 * time.Millisecond, time.Millisecond}, slept)
}

func TestSyncResetsCountOnError(t *testing.T) {
	b := New(&errWriter{})
	_, err := b.Write([]byte("x"))
	require.NoError(t, err)
	err = b.Sync()
	require.Error(t, err)
	require.Equal(t, 0, b.Count())
}

type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return 0, errors.New("boom") }

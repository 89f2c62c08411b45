package logtap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToggleOpensAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tio.log")
	tap := New(path, false)
	require.False(t, tap.Enabled())

	require.NoError(t, tap.Toggle())
	require.True(t, tap.Enabled())

	tap.Write([]byte("hello"))
	require.NoError(t, tap.Toggle())
	require.False(t, tap.Enabled())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestToggleNoopWithoutFilename(t *testing.T) {
	tap := New("", false)
	require.NoError(t, tap.Toggle())
	require.False(t, tap.Enabled())
}

func TestWriteStripsNonPrintable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tio.log")
	tap := New(path, true)
	require.NoError(t, tap.Toggle())
	tap.Write([]byte{'a', 0x01, 'b', '\n'})
	require.NoError(t, tap.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "ab\n", string(data))
}

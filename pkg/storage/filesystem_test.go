package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveStream("user-1/notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	require.Equal(t, "user-1/notes.txt", name)

	f, err := store.Open(name)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(name))
	require.NoError(t, store.Delete(name))
	_, err = store.Open(name)
	require.Error(t, err)
}

func TestLocalStorageConfinesTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	name, err := store.Save("../../escape.txt", []byte("x"))
	require.NoError(t, err)

	f, err := store.Open(name)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(f.Name(), dir))
	require.NoError(t, f.Close())
}

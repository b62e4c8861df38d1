package storage

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := "imports/run-1/inventory.csv"
	require.NoError(t, s.Save(key, []byte("vendor,part\nACME,P1\n")))
	assert.True(t, s.Exists(key))

	data, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "vendor,part\nACME,P1\n", string(data))

	r, err := s.Open(key)
	require.NoError(t, err)
	streamed, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, data, streamed)

	require.NoError(t, s.Delete(key))
	assert.False(t, s.Exists(key))
	_, err = s.Get(key)
	assert.Equal(t, ErrNotFound, err)
	_, err = s.Open(key)
	assert.Equal(t, ErrNotFound, err)

	// Deleting twice is not an error
	assert.NoError(t, s.Delete(key))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ErrInvalidKey, s.Save("../escape.csv", []byte("x")))
	_, err = s.Get("")
	assert.Equal(t, ErrInvalidKey, err)
}

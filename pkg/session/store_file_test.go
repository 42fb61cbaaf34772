package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyAccessToken, "T1"))
	require.NoError(t, s.Set(KeyUser, `{"id":"u1"}`))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, err := reopened.Get(KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "T1", v)

	require.NoError(t, reopened.Delete(KeyAccessToken, KeyUser))
	again, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = again.Get(KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreMissingFile(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	_, err = s.Get(KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o600))

	s, err := NewFileStore(path)
	var corrupt *CorruptFileError
	require.True(t, errors.As(err, &corrupt), "err = %v", err)
	require.NotNil(t, s)

	sess := New(s)
	_, ok := sess.Get()
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyAccessToken, "T1"))
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, err := reopened.Get(KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "T1", v)
}

func TestFileStoreRequiresPath(t *testing.T) {
	_, err := NewFileStore("  ")
	assert.Error(t, err)
}

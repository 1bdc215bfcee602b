package cleaner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/guard"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestRemoveAllWithExt(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp3"))
	touch(t, filepath.Join(dir, "sub", "b.MP3"))
	touch(t, filepath.Join(dir, "keep.png"))
	touch(t, filepath.Join(dir, "mp3"))

	c, err := New(dir)
	require.NoError(t, err)

	paths, n, err := c.RemoveAllWithExt(".mp3")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.ElementsMatch(t, []string{
		filepath.ToSlash(filepath.Join(dir, "a.mp3")),
		filepath.ToSlash(filepath.Join(dir, "sub", "b.MP3")),
	}, paths)
	require.FileExists(t, filepath.Join(dir, "keep.png"))
	require.FileExists(t, filepath.Join(dir, "mp3"))

	_, n, err = c.RemoveAllWithExt(".mp3")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRemoveAllWithExt_InvalidExt(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	for _, ext := range []string{"", ".", "mp3"} {
		_, _, err := c.RemoveAllWithExt(ext)
		require.ErrorIs(t, err, guard.ErrInvalidArgument, ext)
	}
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

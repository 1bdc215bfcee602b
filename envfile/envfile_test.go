package envfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/guard"
)

func envPath(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), FileName)
	if content != "" {
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return p
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(data)
}

func TestParsePair(t *testing.T) {
	k, v, err := ParsePair(" API_KEY = 123 ")
	require.NoError(t, err)
	require.Equal(t, "API_KEY", k)
	require.Equal(t, "123", v)

	for _, bad := range []string{"NOEQUALS", "A=B=C", "A=#x", "=value"} {
		_, _, err := ParsePair(bad)
		require.ErrorIs(t, err, ErrInvalidPair, bad)
		require.ErrorIs(t, err, guard.ErrInvalidArgument, bad)
	}
}

func TestAdd_CreatesFile(t *testing.T) {
	p := envPath(t, "")
	res, err := Add(p, "GEMINI_API_KEY=abc")
	require.NoError(t, err)
	require.Equal(t, Result{Key: "GEMINI_API_KEY", Action: ActionAdded, Created: true, Written: true}, res)
	require.Equal(t, "GEMINI_API_KEY=abc\n", readFile(t, p))
}

func TestAdd_AppendsWithNewlineFix(t *testing.T) {
	p := envPath(t, "# comment\nA=1")
	res, err := Add(p, "B=2")
	require.NoError(t, err)
	require.Equal(t, ActionAdded, res.Action)
	require.Equal(t, "# comment\nA=1\nB=2\n", readFile(t, p))
}

func TestAdd_UpdatesInPlace(t *testing.T) {
	p := envPath(t, "A=1\nB=2\n\nC=3\n")
	res, err := Add(p, "B=20")
	require.NoError(t, err)
	require.Equal(t, ActionUpdated, res.Action)
	require.True(t, res.Written)
	require.Equal(t, "A=1\nB=20\n\nC=3\n", readFile(t, p))

	res, err = Add(p, "B=20")
	require.NoError(t, err)
	require.Equal(t, ActionUpdated, res.Action)
	require.False(t, res.Written)
}

func TestRemove(t *testing.T) {
	p := envPath(t, "A=1\nB=2\n")
	res, err := Remove(p, "A")
	require.NoError(t, err)
	require.Equal(t, ActionRemoved, res.Action)
	require.Equal(t, "B=2\n", readFile(t, p))

	res, err = Remove(p, "ZZZ")
	require.NoError(t, err)
	require.Equal(t, ActionNotFound, res.Action)
	require.False(t, res.Written)

	_, err = Remove(p, "A=1")
	require.ErrorIs(t, err, ErrInvalidPair)
}

func TestRemove_MissingFile(t *testing.T) {
	_, err := Remove(envPath(t, ""), "A")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReadAndGet(t *testing.T) {
	p := envPath(t, "A=1\n  B=2  \n")
	lines, err := Read(p)
	require.NoError(t, err)
	require.Equal(t, []string{"A=1", "B=2"}, lines)

	v, ok, err := Get(p, "B")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", v)

	_, err = Read(envPath(t, ""))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_DoesNotOverride(t *testing.T) {
	p := envPath(t, "FREEAI_TEST_A=file\nFREEAI_TEST_B=file\n")
	t.Setenv("FREEAI_TEST_A", "env")
	t.Setenv("FREEAI_TEST_B", "")
	os.Unsetenv("FREEAI_TEST_B")

	require.NoError(t, Load(p, filepath.Join(t.TempDir(), "missing.env")))
	require.Equal(t, "env", os.Getenv("FREEAI_TEST_A"))
	require.Equal(t, "file", os.Getenv("FREEAI_TEST_B"))
}

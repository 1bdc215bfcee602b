package tts

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/guard"
)

func TestSplitChunks(t *testing.T) {
	text := strings.Repeat("word ", 50)
	chunks := SplitChunks(text, 20)
	for _, c := range chunks {
		require.LessOrEqual(t, len([]rune(c)), 20)
		require.False(t, strings.HasPrefix(c, " "))
	}
	require.Equal(t, strings.TrimSpace(text), strings.Join(chunks, " "))

	require.Equal(t, []string{"abcde", "fgh", "xy"}, SplitChunks("abcdefgh xy", 5))
	require.Empty(t, SplitChunks("   ", 5))
}

func TestGoogleSpeak(t *testing.T) {
	var mu sync.Mutex
	var idx []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		idx = append(idx, r.URL.Query().Get("idx"))
		mu.Unlock()
		w.Write([]byte("mp3:" + r.URL.Query().Get("tl") + ";"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	g := NewGoogle(dir)
	g.SetURL(srv.URL)

	var played []byte
	g.Play = func(ctx context.Context, path string) error {
		var err error
		played, err = os.ReadFile(path)
		return err
	}

	path, err := g.Speak(context.Background(), strings.Repeat("xin chào ", 20), "vi")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, ".mp3"))
	require.NoFileExists(t, path)
	require.Equal(t, []string{"0", "1"}, idx)
	require.True(t, bytes.Equal([]byte("mp3:vi;mp3:vi;"), played))
}

func TestGoogleValidation(t *testing.T) {
	g := NewGoogle(t.TempDir())
	_, err := g.Synthesize(context.Background(), "hi", "xx")
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
	_, err = g.Synthesize(context.Background(), " ", "en")
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
}

func TestGoogleHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGoogle(t.TempDir())
	g.SetURL(srv.URL)
	_, err := g.Speak(context.Background(), "hello", "en")
	require.Error(t, err)
}

func TestParseVoices(t *testing.T) {
	out := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en-us           --/M      English_(America)  gmw/en-US            (en 10)
`
	voices := ParseVoices(out)
	require.Equal(t, []Voice{{"af", "Afrikaans"}, {"en-us", "English_(America)"}}, voices)
}

func TestPrintSupportedLanguages(t *testing.T) {
	var buf bytes.Buffer
	PrintSupportedLanguages(&buf)
	require.Contains(t, buf.String(), "vi: Vietnamese\n")
	require.Equal(t, "Vietnamese", SupportedLanguages()["vi"])
}

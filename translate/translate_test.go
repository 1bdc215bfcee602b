package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/llm"
)

func TestDetect(t *testing.T) {
	d, err := Detect("Đây là một đoạn văn bản mẫu bằng tiếng Việt.")
	require.NoError(t, err)
	require.Equal(t, "vi", d.Lang)

	d, err = Detect("This is a sample text written in plain English, nothing more.")
	require.NoError(t, err)
	require.Equal(t, "en", d.Lang)

	_, err = Detect("  ")
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
}

func TestDetectAll(t *testing.T) {
	all, err := DetectAll("Ceci est un exemple de texte en français, rien de plus.", 3)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	require.LessOrEqual(t, len(all), 3)
	require.Equal(t, "fr", all[0].Lang)

	seen := map[string]bool{}
	for _, d := range all {
		require.False(t, seen[d.Lang])
		seen[d.Lang] = true
	}
}

func TestParseGTX(t *testing.T) {
	got, err := parseGTX([]byte(`[[["Hello ","Xin chào ",null,null,10],["friend","bạn",null,null,10]],null,"vi"]`))
	require.NoError(t, err)
	require.Equal(t, "Hello friend", got)

	_, err = parseGTX([]byte(`{}`))
	require.Error(t, err)
}

func TestGoogleTranslate(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query = map[string]string{"client": q.Get("client"), "sl": q.Get("sl"), "tl": q.Get("tl"), "q": q.Get("q")}
		w.Write([]byte(`[[["Hello","Xin chào bạn",null,null,10]],null,"vi"]`))
	}))
	defer srv.Close()

	g := NewGoogle()
	g.SetURL(srv.URL)
	got, err := g.Translate(context.Background(), "Xin chào bạn", "", "en")
	require.NoError(t, err)
	require.Equal(t, "Hello", got)
	require.Equal(t, map[string]string{"client": "gtx", "sl": "auto", "tl": "en", "q": "Xin chào bạn"}, query)
}

func TestLocalTranslate(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		p, _ := req["prompt"].(string)
		prompts = append(prompts, p)
		json.NewEncoder(w).Encode(map[string]any{"response": "<think>hmm</think>\n Hello friends. ", "done": true})
	}))
	defer srv.Close()

	l, err := NewLocal(context.Background(), llm.New(llm.Config{URL: srv.URL}), "", "cpu")
	require.NoError(t, err)
	require.Equal(t, "local:"+DefaultLocalModel, l.Name())

	got, err := l.Translate(context.Background(), "Xin chào bạn", "vi", "en")
	require.NoError(t, err)
	require.Equal(t, "Hello friends.", got)
	require.Equal(t, Prompt("Xin chào bạn", "vi", "en"), prompts[len(prompts)-1])
}

type fakeEngine struct {
	name  string
	out   string
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Translate(context.Context, string, string, string) (string, error) {
	f.calls++
	return f.out, f.err
}

func TestTranslatorModes(t *testing.T) {
	ctx := context.Background()

	remote := &fakeEngine{name: "google", err: errors.New("offline")}
	local := &fakeEngine{name: "local", out: "Hello"}
	tr, err := NewTranslator(remote, local, LocalBackup)
	require.NoError(t, err)
	got, err := tr.Translate(ctx, "Xin chào", "en")
	require.NoError(t, err)
	require.Equal(t, "Hello", got)
	require.Equal(t, 1, remote.calls)

	tr, err = NewTranslator(remote, local, LocalInactive)
	require.NoError(t, err)
	require.False(t, tr.HasLocal())
	_, err = tr.Translate(ctx, "Xin chào", "en")
	require.Error(t, err)

	tr, err = NewTranslator(nil, local, LocalActive)
	require.NoError(t, err)
	got, err = tr.Translate(ctx, "Xin chào", "en")
	require.NoError(t, err)
	require.Equal(t, "Hello", got)
	require.Equal(t, 2, local.calls)

	_, err = NewTranslator(remote, local, "unknown")
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
	_, err = NewTranslator(remote, nil, LocalBackup)
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
}

package gemini

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/logging"
)

type fakeAPI struct {
	answer   string
	err      error
	calls    [][]*genai.Content
	configs  []*genai.GenerateContentConfig
	uploaded []string
	list     []ModelInfo
}

func (f *fakeAPI) generate(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	f.calls = append(f.calls, contents)
	f.configs = append(f.configs, cfg)
	return f.answer, f.err
}

func (f *fakeAPI) upload(_ context.Context, path string) (*genai.File, error) {
	f.uploaded = append(f.uploaded, path)
	return &genai.File{Name: "files/1", URI: "https://files/1", MIMEType: "image/png"}, nil
}

func (f *fakeAPI) models(context.Context) ([]ModelInfo, error) {
	return f.list, nil
}

func newTestClient(t *testing.T, api *fakeAPI, search bool) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Search = search
	c, err := newClient(api, cfg, logging.New("gemini-test"))
	require.NoError(t, err)
	return c
}

func lastText(f *fakeAPI) string {
	parts := f.calls[len(f.calls)-1][0].Parts
	return parts[len(parts)-1].Text
}

func TestAsk_EmptyPromptSkipsCall(t *testing.T) {
	api := &fakeAPI{answer: "x"}
	c := newTestClient(t, api, false)

	got, err := c.Ask(context.Background(), "", "")
	require.NoError(t, err)
	require.Empty(t, got)
	require.Empty(t, api.calls)
}

func TestAsk_PrependsWordPrompt(t *testing.T) {
	api := &fakeAPI{answer: "Paris"}
	c := newTestClient(t, api, false)

	got, err := c.Ask(context.Background(), "Capital of France?", "")
	require.NoError(t, err)
	require.Equal(t, "Paris", got)
	require.Equal(t, "Please remember to answer with less than 150 words.Capital of France?", lastText(api))
	require.Nil(t, api.configs[0])
}

func TestAsk_WithFileAndSearch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	api := &fakeAPI{answer: "B"}
	c := newTestClient(t, api, true)

	_, err := c.Ask(context.Background(), "solve", path)
	require.NoError(t, err)
	require.Equal(t, []string{path}, api.uploaded)

	parts := api.calls[0][0].Parts
	require.Len(t, parts, 2)
	require.Equal(t, "https://files/1", parts[0].FileData.FileURI)
	require.NotNil(t, api.configs[0].Tools[0].GoogleSearch)
}

func TestAsk_MissingFile(t *testing.T) {
	api := &fakeAPI{answer: "B"}
	c := newTestClient(t, api, true)
	_, err := c.Ask(context.Background(), "solve", filepath.Join(t.TempDir(), "none.png"))
	require.Error(t, err)
	require.Empty(t, api.calls)
}

func TestAsk_APIError(t *testing.T) {
	api := &fakeAPI{err: errors.New("quota exceeded")}
	c := newTestClient(t, api, false)
	got, err := c.Ask(context.Background(), "hi", "")
	require.Error(t, err)
	require.Empty(t, got)
}

func TestAskWithMemories(t *testing.T) {
	api := &fakeAPI{answer: "A1"}
	c := newTestClient(t, api, false)
	require.NoError(t, c.SetMaxMemoryLength(1))

	_, err := c.AskWithMemories(context.Background(), "Q1", "")
	require.NoError(t, err)
	api.answer = "A2"
	_, err = c.AskWithMemories(context.Background(), "Q2", "")
	require.NoError(t, err)

	require.Contains(t, lastText(api), "User: Q1\nAI: A1\nNow, continue the conversation:\nQ2")
	require.Len(t, c.History(), 1)
	require.Equal(t, "Q2", c.History()[0].Question)

	require.ErrorIs(t, c.SetMaxMemoryLength(0), guard.ErrInvalidArgument)
	c.ClearHistory()
	require.Empty(t, c.History())
}

func TestAskAndCopy(t *testing.T) {
	api := &fakeAPI{answer: "copied"}
	c := newTestClient(t, api, false)
	var clip string
	c.copyText = func(s string) error { clip = s; return nil }

	got, err := c.AskAndCopy(context.Background(), "q", "")
	require.NoError(t, err)
	require.Equal(t, "copied", got)
	require.Equal(t, "copied", clip)

	c.copyText = func(string) error { return errors.New("no display") }
	got, err = c.AskAndCopy(context.Background(), "q", "")
	require.NoError(t, err)
	require.Equal(t, "copied", got)
}

func TestListModels(t *testing.T) {
	api := &fakeAPI{list: []ModelInfo{{Name: "models/gemini-2.0-flash"}, {Name: "models/embedding-001"}}}
	c := newTestClient(t, api, false)
	got, err := c.ListModels(context.Background(), "gemini")
	require.NoError(t, err)
	require.Equal(t, []ModelInfo{{Name: "models/gemini-2.0-flash"}}, got)
}

func TestResolveAPIKey(t *testing.T) {
	key, err := ResolveAPIKey("explicit")
	require.NoError(t, err)
	require.Equal(t, "explicit", key)

	t.Setenv(EnvAPIKey, "from-env")
	key, err = ResolveAPIKey("")
	require.NoError(t, err)
	require.Equal(t, "from-env", key)
}

func TestNewClient_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WordLimit = 0
	_, err := newClient(&fakeAPI{}, cfg, logging.New("t"))
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
}

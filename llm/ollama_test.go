package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/guard"
)

// fakeOllama имитирует нужную часть API Ollama.
type fakeOllama struct {
	mu       sync.Mutex
	requests map[string][]map[string]any
	reply    func(path string, req map[string]any) (int, any)
}

func newFakeOllama(t *testing.T, reply func(path string, req map[string]any) (int, any)) (*fakeOllama, *Client) {
	t.Helper()
	f := &fakeOllama{requests: map[string][]map[string]any{}, reply: reply}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, New(Config{URL: srv.URL + "/"})
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req map[string]any
	if r.Method == http.MethodPost {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	f.mu.Lock()
	f.requests[r.URL.Path] = append(f.requests[r.URL.Path], req)
	f.mu.Unlock()

	status, body := f.reply(r.URL.Path, req)
	w.WriteHeader(status)
	if s, ok := body.(string); ok {
		fmt.Fprint(w, s)
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeOllama) last(path string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	reqs := f.requests[path]
	return reqs[len(reqs)-1]
}

func TestSplitThinking(t *testing.T) {
	th, c := SplitThinking("<think>\nhmm\n</think>\n\nAnswer")
	require.Equal(t, "hmm", th)
	require.Equal(t, "Answer", c)

	th, c = SplitThinking("  plain  ")
	require.Empty(t, th)
	require.Equal(t, "plain", c)

	th, c = SplitThinking("<think>unfinished")
	require.Equal(t, "unfinished", th)
	require.Empty(t, c)
}

func TestDeviceOptions(t *testing.T) {
	require.Equal(t, Options{"num_gpu": 0}, DeviceOptions(device.CPU))
	require.Empty(t, DeviceOptions(device.CUDA))
}

func TestGenerate_ErrorBody(t *testing.T) {
	_, c := newFakeOllama(t, func(string, map[string]any) (int, any) {
		return http.StatusNotFound, map[string]string{"error": "model 'x' not found"}
	})
	_, err := c.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	require.ErrorIs(t, err, ErrOllama)
	require.Contains(t, err.Error(), "model 'x' not found")
}

func TestCorrectText(t *testing.T) {
	f, c := newFakeOllama(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, GenerateResponse{Response: "<think></think>Привет, мир.", Done: true}
	})

	out, err := c.CorrectText(context.Background(), "привет мир")
	require.NoError(t, err)
	require.Equal(t, "Привет, мир.", out)

	req := f.last("/api/generate")
	require.Equal(t, DefaultModel, req["model"])
	require.Equal(t, false, req["think"])
	require.Contains(t, req["prompt"], "привет мир")

	same, err := c.CorrectText(context.Background(), "   ")
	require.NoError(t, err)
	require.Equal(t, "   ", same)
}

func TestEmbed(t *testing.T) {
	_, c := newFakeOllama(t, func(_ string, req map[string]any) (int, any) {
		n := len(req["input"].([]any))
		out := make([][]float64, n)
		for i := range out {
			out[i] = []float64{float64(i), 1}
		}
		return http.StatusOK, map[string]any{"embeddings": out}
	})
	vecs, err := c.Embed(context.Background(), "nomic-embed-text", []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, [][]float64{{0, 1}, {1, 1}}, vecs)
}

func TestPull(t *testing.T) {
	_, c := newFakeOllama(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, "{\"status\":\"pulling manifest\"}\n" +
			"{\"status\":\"downloading\",\"total\":100,\"completed\":40}\n" +
			"{\"status\":\"downloading\",\"total\":100,\"completed\":100}\n" +
			"{\"status\":\"success\"}\n"
	})
	var seen []int64
	require.NoError(t, c.Pull(context.Background(), "qwen3:0.6b", func(done, total int64) {
		require.Equal(t, int64(100), total)
		seen = append(seen, done)
	}))
	require.Equal(t, []int64{40, 100}, seen)
}

func TestPull_StreamError(t *testing.T) {
	_, c := newFakeOllama(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, "{\"error\":\"pull model manifest: file does not exist\"}\n"
	})
	err := c.Pull(context.Background(), "nope", nil)
	require.ErrorIs(t, err, ErrOllama)
}

func TestHasModel(t *testing.T) {
	_, c := newFakeOllama(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"models": []map[string]string{{"name": "moondream:latest"}, {"name": "qwen3:0.6b"}}}
	})
	ok, err := c.HasModel(context.Background(), "moondream")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.HasModel(context.Background(), "gemma3:1b")
	require.NoError(t, err)
	require.False(t, ok)

	require.True(t, c.IsAvailable(context.Background()))
}

func TestAssistant_FallsBackToCPU(t *testing.T) {
	t.Setenv("FREEAI_DEVICE", "")
	f, c := newFakeOllama(t, func(path string, req map[string]any) (int, any) {
		switch path {
		case "/api/generate":
			opts, _ := req["options"].(map[string]any)
			if _, cpu := opts["num_gpu"]; !cpu {
				return http.StatusInternalServerError, map[string]string{"error": "cuda out of memory"}
			}
			return http.StatusOK, GenerateResponse{Done: true}
		default:
			return http.StatusOK, ChatResponse{Message: Message{Role: "assistant", Content: "<think>reason</think>Hi!"}}
		}
	})

	a, err := NewAssistant(context.Background(), c, AssistantConfig{Model: "qwen3:0.6b", Device: "cpu", MemoriesLength: 2})
	require.NoError(t, err)
	require.Equal(t, device.CPU, a.Device())

	content, thinking, err := a.AskWithMemories(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "Hi!", content)
	require.Equal(t, "reason", thinking)
	require.Len(t, a.History(), 1)

	req := f.last("/api/chat")
	msgs := req["messages"].([]any)
	require.Contains(t, msgs[0].(map[string]any)["content"], "Now, continue the conversation:\nhello")
	require.Equal(t, float64(0), req["options"].(map[string]any)["num_gpu"])

	_, _, err = a.AskWithMemories(context.Background(), "again")
	require.NoError(t, err)
	req = f.last("/api/chat")
	msgs = req["messages"].([]any)
	require.Contains(t, msgs[0].(map[string]any)["content"], "User: hello\nAI: Hi!\n")

	require.ErrorIs(t, a.SetMemoriesLength(-1), guard.ErrInvalidArgument)
	_, _, err = a.AskMessages(context.Background(), nil)
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
}

func TestAssistant_ThinkingField(t *testing.T) {
	_, c := newFakeOllama(t, func(path string, _ map[string]any) (int, any) {
		if path == "/api/generate" {
			return http.StatusOK, GenerateResponse{Done: true}
		}
		return http.StatusOK, ChatResponse{Message: Message{Content: "42", Thinking: "math"}}
	})
	a, err := NewAssistant(context.Background(), c, AssistantConfig{Device: "cpu"})
	require.NoError(t, err)
	content, thinking, err := a.Ask(context.Background(), "6*7?")
	require.NoError(t, err)
	require.Equal(t, "42", content)
	require.Equal(t, "math", thinking)
}

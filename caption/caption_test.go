package caption

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/llm"
)

func TestCaption(t *testing.T) {
	var mu sync.Mutex
	var last map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		last = req
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"response": "  A cat on a sofa. \n", "done": true})
	}))
	defer srv.Close()

	client := llm.New(llm.Config{URL: srv.URL})
	c, err := New(context.Background(), client, "", "cpu")
	require.NoError(t, err)
	require.Equal(t, device.CPU, c.Device())
	require.Equal(t, DefaultModel, c.Model())

	img := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(img, []byte("png-bytes"), 0o644))

	got, err := c.Caption(context.Background(), img, "")
	require.NoError(t, err)
	require.Equal(t, "A cat on a sofa.", got)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, DefaultPrompt, last["prompt"])
	require.Equal(t, []any{base64.StdEncoding.EncodeToString([]byte("png-bytes"))}, last["images"])
	opts := last["options"].(map[string]any)
	require.EqualValues(t, 0, opts["num_gpu"])
	require.EqualValues(t, DefaultMaxLength, opts["num_predict"])
}

func TestCaption_Validation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"","done":true}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), llm.New(llm.Config{URL: srv.URL}), "moondream", "cpu")
	require.NoError(t, err)

	_, err = c.Caption(context.Background(), "", "")
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
	_, err = c.Caption(context.Background(), filepath.Join(t.TempDir(), "missing.png"), "")
	require.ErrorIs(t, err, os.ErrNotExist)
	require.ErrorIs(t, c.SetMaxLength(0), guard.ErrInvalidArgument)
}

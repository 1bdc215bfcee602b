package decider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/llm"
)

func TestBuildSystemPrompt(t *testing.T) {
	require.Equal(t,
		"Analyze the following question and determine if an internet search is required to answer it. "+
			"Respond with 'YES' or 'NO'.\n\nExample:\n<no example provided>",
		BuildSystemPrompt("", "YES", "NO"))
}

func TestDecide(t *testing.T) {
	var prompts []string
	var options []llm.Options
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.GenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Prompt == "" {
			json.NewEncoder(w).Encode(llm.GenerateResponse{Done: true})
			return
		}
		prompts = append(prompts, req.Prompt)
		options = append(options, req.Options)
		json.NewEncoder(w).Encode(llm.GenerateResponse{Response: "  search_internet \n", Done: true})
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Device = "cpu"
	d, err := New(context.Background(), llm.New(llm.Config{URL: srv.URL}), cfg)
	require.NoError(t, err)
	d.ConfigDefaultInternetSearch()

	got, err := d.Decide(context.Background(), "Price of gold today?", "")
	require.NoError(t, err)
	require.Equal(t, SearchInternet, got)
	require.Contains(t, prompts[0], "Respond with 'SEARCH_INTERNET' or 'NO_SEARCH_NEEDED'.")
	require.Contains(t, prompts[0], DefaultExamples)
	require.True(t, strings.HasSuffix(prompts[0], "\nQuestion: Price of gold today? ->"))
	require.EqualValues(t, 100, options[0]["num_predict"])
	require.EqualValues(t, 0, options[0]["num_gpu"])

	_, err = d.Decide(context.Background(), "q", "custom")
	require.NoError(t, err)
	require.Equal(t, "custom\nQuestion: q ->", prompts[1])
}

func TestNew_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Positive = ""
	_, err := New(context.Background(), llm.New(llm.Config{}), cfg)
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
}

package search_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/logging"
	"github.com/freeai-utils/freeai-utils/search"
)

// Сценарий пользовательского скрипта: пакет подключается по пути модуля.
func TestScraperFromUserCode(t *testing.T) {
	logging.SetLevel(slog.LevelError)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a rel="nofollow" class="result__a" href="https://example.com/go">Go</a>`+
			`<a class="result__snippet" href="x">The Go language</a>`)
	}))
	defer srv.Close()

	opts := search.DefaultOptions()
	opts.SearchURL = srv.URL
	s, err := search.New(opts)
	require.NoError(t, err)

	results, err := s.URLs(context.Background(), "golang")
	require.NoError(t, err)
	require.Equal(t, []search.Result{{Title: "Go", URL: "https://example.com/go", Snippet: "The Go language"}}, results)

	_, err = s.URLs(context.Background(), "")
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
}

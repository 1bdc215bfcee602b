package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/guard"
)

const article = `<html><head><title>%s</title></head><body>
<nav>menu</nav>
<article><h1>%s</h1>
<p>%s</p>
<p>Second paragraph with enough words to look like real content for the extractor to keep it around.</p>
</article></body></html>`

func resultsPage(base string, paths ...string) string {
	var b strings.Builder
	for i, p := range paths {
		target := url.QueryEscape(base + p)
		fmt.Fprintf(&b, `<div class="result"><h2 class="result__title"><a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=%s&amp;rut=abc">Title <b>%d</b> &amp; co</a></h2>`, target, i)
		fmt.Fprintf(&b, `<a class="result__snippet" href="x">Snippet %d</a></div>`, i)
	}
	return b.String()
}

func TestParseResults(t *testing.T) {
	got := ParseResults(resultsPage("https://example.com", "/a", "/b"))
	require.Len(t, got, 2)
	require.Equal(t, Result{Title: "Title 0 & co", URL: "https://example.com/a", Snippet: "Snippet 0"}, got[0])
	require.Equal(t, "https://example.com/b", got[1].URL)
}

func TestParseResults_MissingSnippet(t *testing.T) {
	page := `<div class="result"><a class="result__a" href="https://ads.example.com/x">Sponsored</a></div>` +
		`<div class="result"><a class="result__a" href="https://example.com/a">First</a>` +
		`<a class="result__snippet" href="x">About first</a></div>` +
		`<div class="result"><a class="result__a" href="https://example.com/b">Second</a></div>` +
		`<div class="result"><a class="result__a" href="https://example.com/c">Third</a>` +
		`<a class="result__snippet" href="x">About <b>third</b></a></div>`

	got := ParseResults(page)
	require.Len(t, got, 4)
	require.Equal(t, "", got[0].Snippet)
	require.Equal(t, "About first", got[1].Snippet)
	require.Equal(t, "", got[2].Snippet)
	require.Equal(t, Result{Title: "Third", URL: "https://example.com/c", Snippet: "About third"}, got[3])
}

func TestReduce(t *testing.T) {
	require.Equal(t, "a b  c", Reduce("a\nb\n\nc", true))
	require.Equal(t, "a\nb\nc", Reduce("a\nb\n\nc", false))
}

func TestSearch(t *testing.T) {
	var ua string
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/html/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "golang", r.URL.Query().Get("q"))
		fmt.Fprint(w, resultsPage(srv.URL, "/one", "/broken", "/two", "/three"))
	})
	mux.HandleFunc("/one", func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		fmt.Fprintf(w, article, "One", "One", strings.Repeat("alpha ", 100))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/two", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, article, "Two", "Two", strings.Repeat("beta ", 100))
	})

	opts := DefaultOptions()
	opts.SearchURL = srv.URL + "/html/"
	opts.NumResults = 3
	opts.LimitPerURL = 50
	opts.RequestsPerSecond = 0
	s, err := New(opts)
	require.NoError(t, err)

	text, err := s.Search(context.Background(), "golang", true)
	require.NoError(t, err)
	require.Equal(t, "Mozilla/5.0", ua)
	require.Contains(t, text, "alpha")
	require.Contains(t, text, "beta")
	require.NotContains(t, text, "\n")
	require.LessOrEqual(t, len([]rune(text)), 100)
}

func TestNew_Validation(t *testing.T) {
	opts := DefaultOptions()
	opts.NumResults = 0
	_, err := New(opts)
	require.ErrorIs(t, err, guard.ErrInvalidArgument)

	s, err := New(DefaultOptions())
	require.NoError(t, err)
	_, err = s.URLs(context.Background(), "  ")
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
}

// Package search ищет страницы через DuckDuckGo и извлекает из них читаемый текст.
package search

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/logging"
)

// DefaultSearchURL HTML-версия DuckDuckGo, не требует ключа API.
const DefaultSearchURL = "https://html.duckduckgo.com/html/"

const maxBody = 5 * 1024 * 1024

var (
	titleRegex      = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.+?)</a>`)
	snippetRegex    = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]*>(.+?)</a>`)
	tagRegex        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Result одна ссылка из выдачи.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Options параметры Scraper.
type Options struct {
	UserAgent   string
	NumResults  int
	LimitPerURL int // символов текста с одной страницы
	SearchURL   string
	Timeout     time.Duration
	// RequestsPerSecond ограничивает частоту загрузки страниц.
	RequestsPerSecond float64
}

// DefaultOptions значения по умолчанию.
func DefaultOptions() Options {
	return Options{
		UserAgent:         "Mozilla/5.0",
		NumResults:        5,
		LimitPerURL:       500,
		SearchURL:         DefaultSearchURL,
		Timeout:           15 * time.Second,
		RequestsPerSecond: 2,
	}
}

// Scraper ищет и читает страницы.
type Scraper struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// New создаёт Scraper.
func New(opts Options) (*Scraper, error) {
	if err := guard.NotEmpty("user_agent", opts.UserAgent); err != nil {
		return nil, err
	}
	if err := guard.Positive("num_results", opts.NumResults); err != nil {
		return nil, err
	}
	if err := guard.Positive("limit_word_per_url", opts.LimitPerURL); err != nil {
		return nil, err
	}
	if opts.SearchURL == "" {
		opts.SearchURL = DefaultSearchURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Scraper{
		opts: opts,
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return errors.New("слишком много перенаправлений")
				}
				return nil
			},
		},
		limiter: rate.NewLimiter(limit, 1),
		log:     logging.New("search"),
	}, nil
}

func (s *Scraper) get(ctx context.Context, target string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP ошибка: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// URLs возвращает первые NumResults результатов поиска.
func (s *Scraper) URLs(ctx context.Context, query string) ([]Result, error) {
	if err := guard.NotEmpty("prompt", strings.TrimSpace(query)); err != nil {
		return nil, err
	}
	s.log.Debug("поиск ссылок", "query", query)

	page, err := s.get(ctx, s.opts.SearchURL+"?q="+url.QueryEscape(query))
	if err != nil {
		return nil, fmt.Errorf("поиск: %w", err)
	}
	results := ParseResults(page)
	if len(results) > s.opts.NumResults {
		results = results[:s.opts.NumResults]
	}
	return results, nil
}

// FetchHTML скачивает страницу.
func (s *Scraper) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	body, err := s.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		s.log.Warn("пустой ответ", "url", pageURL)
	}
	return body, nil
}

// ExtractReadable извлекает основной текст страницы.
func ExtractReadable(page, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	article, err := readability.FromReader(strings.NewReader(page), u)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	return article.TextContent, nil
}

// Search собирает до LimitPerURL символов с каждой найденной страницы.
// Недоступные страницы пропускаются. reduce заменяет переводы строк пробелами.
func (s *Scraper) Search(ctx context.Context, prompt string, reduce bool) (string, error) {
	results, err := s.URLs(ctx, prompt)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, r := range results {
		page, err := s.FetchHTML(ctx, r.URL)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.log.Debug("страница пропущена", "url", r.URL, "error", err)
			continue
		}
		text, err := ExtractReadable(page, r.URL)
		if err != nil {
			s.log.Debug("страница пропущена", "url", r.URL, "error", err)
			continue
		}
		b.WriteString(truncateRunes(text, s.opts.LimitPerURL))
	}

	return Reduce(b.String(), reduce), nil
}

// Reduce сжимает текст: reduce=true заменяет все "\n" пробелами,
// иначе схлопывает пустые строки "\n\n" в "\n".
func Reduce(text string, reduce bool) string {
	if reduce {
		return strings.ReplaceAll(text, "\n", " ")
	}
	return strings.ReplaceAll(text, "\n\n", "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ParseResults разбирает HTML выдачи DuckDuckGo. Сниппет ищется только между
// ссылкой результата и ссылкой следующего, поэтому блок без сниппета не сдвигает остальные.
func ParseResults(page string) []Result {
	titles := titleRegex.FindAllStringSubmatchIndex(page, 30)

	var results []Result
	for i, m := range titles {
		target := actualURL(strings.ReplaceAll(page[m[2]:m[3]], "&amp;", "&"))
		title := cleanHTML(page[m[4]:m[5]])
		if target == "" || title == "" {
			continue
		}
		end := len(page)
		if i+1 < len(titles) {
			end = titles[i+1][0]
		}
		snippet := ""
		if sm := snippetRegex.FindStringSubmatch(page[m[1]:end]); sm != nil {
			snippet = cleanHTML(sm[1])
		}
		results = append(results, Result{Title: title, URL: target, Snippet: snippet})
	}
	return results
}

// actualURL достаёт настоящий адрес из перенаправления //duckduckgo.com/l/?uddg=...
func actualURL(raw string) string {
	if strings.Contains(raw, "uddg=") {
		if strings.HasPrefix(raw, "//") {
			raw = "https:" + raw
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		if u := parsed.Query().Get("uddg"); u != "" {
			return u
		}
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return ""
}

func cleanHTML(s string) string {
	text := tagRegex.ReplaceAllString(s, "")
	text = html.UnescapeString(text)
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

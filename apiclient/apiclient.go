// Package apiclient универсальный JSON-клиент для REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/logging"
)

// DefaultTimeout таймаут запроса.
const DefaultTimeout = 30 * time.Second

// ErrNoToken запрос требует авторизации, а токен не задан.
var ErrNoToken = errors.New("нужна авторизация, но токен не задан")

var methods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Options параметры клиента.
type Options struct {
	AuthToken string
	Timeout   time.Duration
	Cookies   map[string]string
}

// RequestOptions параметры одного запроса.
type RequestOptions struct {
	AuthRequired bool
	JSON         any
	Params       map[string]string
	// JSONBodyInGet разрешает тело в GET, иначе оно отбрасывается.
	JSONBodyInGet bool
}

// Client клиент с базовым адресом, токеном и куками.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	token   string
	timeout time.Duration
	cookies map[string]string
	http    *resty.Client
	log     *slog.Logger
}

// New создаёт клиента. Завершающий '/' в baseURL отбрасывается.
func New(baseURL string, opts Options) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if err := guard.Positive("timeout", opts.Timeout); err != nil {
		return nil, err
	}
	cookies := make(map[string]string, len(opts.Cookies))
	for k, v := range opts.Cookies {
		cookies[k] = v
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   opts.AuthToken,
		timeout: opts.Timeout,
		cookies: cookies,
		http:    resty.New().SetAllowGetMethodPayload(true),
		log:     logging.New("apiclient"),
	}, nil
}

// BaseURL базовый адрес.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// ChangeBaseURL единственный способ сменить базовый адрес.
func (c *Client) ChangeBaseURL(u string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(u, "/")
	c.mu.Unlock()
}

// Timeout таймаут запроса.
func (c *Client) Timeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeout
}

// SetTimeout меняет таймаут.
func (c *Client) SetTimeout(d time.Duration) error {
	if err := guard.Positive("timeout", d); err != nil {
		return err
	}
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
	return nil
}

// AuthToken текущий Bearer-токен.
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetAuthToken задаёт Bearer-токен.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Cookies копия кук, отправляемых с каждым запросом.
func (c *Client) Cookies() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.cookies))
	for k, v := range c.cookies {
		out[k] = v
	}
	return out
}

// SetCookies заменяет куки.
func (c *Client) SetCookies(cookies map[string]string) {
	cp := make(map[string]string, len(cookies))
	for k, v := range cookies {
		cp[k] = v
	}
	c.mu.Lock()
	c.cookies = cp
	c.mu.Unlock()
}

// Request отправляет запрос на baseURL+endpoint и возвращает статус и разобранный JSON.
// Пустой ответ даёт пустую карту. Ответ не в JSON возвращается как
// {"warning": ..., "raw_text": ...}. JSON, который не является объектом, кладётся в "data".
func (c *Client) Request(ctx context.Context, method, endpoint string, opts RequestOptions) (int, map[string]any, error) {
	method = strings.ToUpper(method)
	if !methods[method] {
		return 0, nil, fmt.Errorf("%w: неизвестный HTTP метод %q", guard.ErrInvalidArgument, method)
	}

	c.mu.RLock()
	base, token, timeout := c.baseURL, c.token, c.timeout
	cookies := make([]*http.Cookie, 0, len(c.cookies))
	for k, v := range c.cookies {
		cookies = append(cookies, &http.Cookie{Name: k, Value: v})
	}
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "*/*").
		SetQueryParams(opts.Params).
		SetCookies(cookies)

	if opts.AuthRequired {
		if token == "" {
			return 0, nil, ErrNoToken
		}
		req.SetAuthToken(token)
	}
	if opts.JSON != nil && (method != http.MethodGet || opts.JSONBodyInGet) {
		req.SetHeader("Content-Type", "application/json").SetBody(opts.JSON)
	}

	resp, err := req.Execute(method, base+endpoint)
	if err != nil {
		c.log.Error("ошибка соединения", "url", base+endpoint, "error", err)
		return 0, nil, err
	}
	return resp.StatusCode(), decode(c.log, resp.Body()), nil
}

func decode(log *slog.Logger, body []byte) map[string]any {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		log.Error("ответ не JSON, возвращается как текст")
		return map[string]any{
			"warning":  "Response was not valid JSON",
			"raw_text": string(body),
		}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"data": v}
}

package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/freeai-utils/freeai-utils/guard"
)

// DefaultGoogleURL бесплатный эндпоинт Google Translate (client=gtx).
const DefaultGoogleURL = "https://translate.googleapis.com/translate_a/single"

// Auto автоопределение исходного языка.
const Auto = "auto"

// Google переводчик через translate.googleapis.com.
type Google struct {
	client *resty.Client
	url    string
}

// NewGoogle создаёт переводчик.
func NewGoogle() *Google {
	return &Google{
		client: resty.New().
			SetTimeout(15*time.Second).
			SetHeader("User-Agent", "Mozilla/5.0"),
		url: DefaultGoogleURL,
	}
}

// SetURL меняет адрес эндпоинта.
func (g *Google) SetURL(u string) { g.url = u }

// Name имя движка.
func (g *Google) Name() string { return "google" }

// Translate переводит text с языка src (Auto для автоопределения) на dest.
func (g *Google) Translate(ctx context.Context, text, src, dest string) (string, error) {
	if err := guard.NotEmpty("text", text); err != nil {
		return "", err
	}
	if err := guard.NotEmpty("dest", dest); err != nil {
		return "", err
	}
	if src == "" {
		src = Auto
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     src,
			"tl":     dest,
			"dt":     "t",
			"q":      text,
		}).
		Get(g.url)
	if err != nil {
		return "", fmt.Errorf("google translate: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("google translate: статус %d", resp.StatusCode())
	}
	return parseGTX(resp.Body())
}

// parseGTX достаёт перевод из ответа вида [[["Hello","Xin chào",...],...],null,"vi"].
func parseGTX(body []byte) (string, error) {
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("ответ google translate: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("ответ google translate: пустой")
	}
	segments, ok := raw[0].([]any)
	if !ok {
		return "", fmt.Errorf("ответ google translate: нет перевода")
	}

	var b strings.Builder
	for _, s := range segments {
		parts, ok := s.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if t, ok := parts[0].(string); ok {
			b.WriteString(t)
		}
	}
	return b.String(), nil
}

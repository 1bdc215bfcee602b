// Package llm работает с локальными LLM через Ollama: генерация, чат, эмбеддинги, загрузка моделей.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/logging"
)

const (
	DefaultOllamaURL = "http://localhost:11434"
	DefaultModel     = "qwen3:0.6b"
	DefaultTimeout   = 2 * time.Minute
)

// ErrOllama ошибка, которую вернул сервер Ollama.
var ErrOllama = errors.New("ollama")

// Options параметры генерации Ollama (temperature, num_predict, num_gpu...).
type Options map[string]any

// DeviceOptions параметры загрузки модели на устройство. Для CPU отключаются слои на GPU.
func DeviceOptions(d device.Device) Options {
	if d.IsCUDA() {
		return Options{}
	}
	return Options{"num_gpu": 0}
}

func merge(base, extra Options) Options {
	out := make(Options, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Client представляет клиент для работы с Ollama.
type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

// Config конфигурация LLM клиента.
type Config struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		URL:     DefaultOllamaURL,
		Model:   DefaultModel,
		Timeout: DefaultTimeout,
	}
}

// New создаёт новый LLM клиент.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	url := strings.TrimRight(cfg.URL, "/")
	if url == "" {
		url = DefaultOllamaURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		baseURL:    url,
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{},
		log:        logging.New("ollama"),
	}
}

// Model возвращает модель по умолчанию.
func (c *Client) Model() string {
	return c.model
}

// SetModel устанавливает модель по умолчанию.
func (c *Client) SetModel(model string) {
	c.model = model
}

// BaseURL адрес сервера.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GenerateRequest запрос к /api/generate.
type GenerateRequest struct {
	Model     string   `json:"model"`
	Prompt    string   `json:"prompt"`
	System    string   `json:"system,omitempty"`
	Images    []string `json:"images,omitempty"` // base64
	Think     *bool    `json:"think,omitempty"`
	Stream    bool     `json:"stream"`
	KeepAlive string   `json:"keep_alive,omitempty"`
	Options   Options  `json:"options,omitempty"`
}

// GenerateResponse ответ /api/generate.
type GenerateResponse struct {
	Response string `json:"response"`
	Thinking string `json:"thinking,omitempty"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Message сообщение чата.
type Message struct {
	Role     string   `json:"role"`
	Content  string   `json:"content"`
	Thinking string   `json:"thinking,omitempty"`
	Images   []string `json:"images,omitempty"`
}

// ChatRequest запрос к /api/chat.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Think    *bool     `json:"think,omitempty"`
	Stream   bool      `json:"stream"`
	Options  Options   `json:"options,omitempty"`
}

// ChatResponse ответ /api/chat.
type ChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

type embedRequest struct {
	Model   string   `json:"model"`
	Input   []string `json:"input"`
	Options Options  `json:"options,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

type pullStatus struct {
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// post отправляет JSON и декодирует JSON-ответ.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: ошибка %d: %s", ErrOllama, resp.StatusCode, ollamaError(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func ollamaError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

// Generate выполняет однократную генерацию.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	req.Stream = false

	var result GenerateResponse
	if err := c.post(ctx, "/api/generate", req, &result); err != nil {
		return GenerateResponse{}, err
	}
	if result.Error != "" {
		return GenerateResponse{}, fmt.Errorf("%w: %s", ErrOllama, result.Error)
	}
	return result, nil
}

// Chat отправляет историю сообщений и возвращает ответ ассистента.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (Message, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	req.Stream = false

	var result ChatResponse
	if err := c.post(ctx, "/api/chat", req, &result); err != nil {
		return Message{}, err
	}
	if result.Error != "" {
		return Message{}, fmt.Errorf("%w: %s", ErrOllama, result.Error)
	}
	return result.Message, nil
}

// Embed возвращает векторы для текстов.
func (c *Client) Embed(ctx context.Context, model string, input []string) ([][]float64, error) {
	return c.EmbedOptions(ctx, model, input, nil)
}

// EmbedOptions как Embed, но с параметрами загрузки модели (num_gpu и т.п.).
func (c *Client) EmbedOptions(ctx context.Context, model string, input []string, opts Options) ([][]float64, error) {
	if model == "" {
		model = c.model
	}
	var result embedResponse
	if err := c.post(ctx, "/api/embed", embedRequest{Model: model, Input: input, Options: opts}, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrOllama, result.Error)
	}
	if len(result.Embeddings) != len(input) {
		return nil, fmt.Errorf("%w: получено %d векторов для %d текстов", ErrOllama, len(result.Embeddings), len(input))
	}
	return result.Embeddings, nil
}

// Warm загружает модель в память с указанными параметрами (пустой промпт).
func (c *Client) Warm(ctx context.Context, model string, opts Options) error {
	_, err := c.Generate(ctx, GenerateRequest{Model: model, KeepAlive: "10m", Options: opts})
	return err
}

// LoadOnDevice загружает модель на первом устройстве, где это удалось,
// и возвращает параметры для последующих запросов.
func (c *Client) LoadOnDevice(ctx context.Context, model, preferred string) (Options, device.Device, error) {
	return device.Load(c.log, device.Candidates(preferred), func(d device.Device) (Options, error) {
		opts := DeviceOptions(d)
		if err := c.Warm(ctx, model, opts); err != nil {
			return nil, err
		}
		return opts, nil
	})
}

// Pull скачивает модель, сообщая прогресс. Поток NDJSON читается до статуса success.
func (c *Client) Pull(ctx context.Context, model string, progress func(completed, total int64)) error {
	body, _ := json.Marshal(map[string]any{"model": model, "stream": true})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: ошибка %d: %s", ErrOllama, resp.StatusCode, ollamaError(bodyBytes))
	}

	c.log.Info("загрузка модели", "model", model)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var st pullStatus
		if err := json.Unmarshal(scanner.Bytes(), &st); err != nil {
			continue
		}
		if st.Error != "" {
			return fmt.Errorf("%w: %s", ErrOllama, st.Error)
		}
		if progress != nil && st.Total > 0 {
			progress(st.Completed, st.Total)
		}
		if st.Status == "success" {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: поток загрузки %s оборвался", ErrOllama, model)
}

// IsAvailable проверяет доступность Ollama.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// ListModels возвращает список установленных моделей.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ошибка %d", ErrOllama, resp.StatusCode)
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	models := make([]string, len(result.Models))
	for i, m := range result.Models {
		models[i] = m.Name
	}
	return models, nil
}

// HasModel проверяет, установлена ли модель. Тег ":latest" можно опускать.
func (c *Client) HasModel(ctx context.Context, model string) (bool, error) {
	names, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == model || n == model+":latest" {
			return true, nil
		}
	}
	return false, nil
}

// CorrectText исправляет ошибки распознавания речи в тексте.
func (c *Client) CorrectText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	prompt := fmt.Sprintf(`Исправь ошибки распознавания речи в тексте. Верни ТОЛЬКО исправленный текст без пояснений:

%s`, text)

	noThink := false
	c.log.Info("отправка запроса на исправление", "chars", len(text))
	start := time.Now()

	resp, err := c.Generate(ctx, GenerateRequest{
		Prompt:  prompt,
		Think:   &noThink,
		Options: Options{"temperature": 0.1, "num_predict": 500},
	})
	if err != nil {
		return text, err
	}

	_, corrected := SplitThinking(resp.Response)
	c.log.Info("текст исправлен", "elapsed", time.Since(start).Round(time.Millisecond))
	return corrected, nil
}

// SplitThinking отделяет ведущий блок <think>...</think> от ответа.
func SplitThinking(s string) (thinking, content string) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "<think>") {
		return "", trimmed
	}
	end := strings.Index(trimmed, "</think>")
	if end < 0 {
		return strings.TrimSpace(strings.TrimPrefix(trimmed, "<think>")), ""
	}
	thinking = strings.TrimSpace(trimmed[len("<think>"):end])
	content = strings.TrimSpace(trimmed[end+len("</think>"):])
	return thinking, content
}

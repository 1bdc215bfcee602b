// Package gemini - клиент Gemini с памятью диалога, загрузкой файлов и поиском Google.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"github.com/freeai-utils/freeai-utils/clipboard"
	"github.com/freeai-utils/freeai-utils/envfile"
	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/history"
	"github.com/freeai-utils/freeai-utils/logging"
)

// DefaultModel модель по умолчанию.
const DefaultModel = "models/gemini-2.0-flash-lite"

// EnvAPIKey переменная окружения с ключом.
const EnvAPIKey = "GEMINI_API_KEY"

// ErrNoAPIKey ключ не передан и не найден в окружении.
var ErrNoAPIKey = errors.New("API ключ не передан и не найден в переменной окружения 'GEMINI_API_KEY'")

// Config параметры клиента.
type Config struct {
	Model          string
	APIKey         string
	MemoriesLength int
	WordLimit      int
	// Search включает инструмент Google Search.
	Search bool
}

// DefaultConfig значения по умолчанию.
func DefaultConfig() Config {
	return Config{Model: DefaultModel, MemoriesLength: 4, WordLimit: 150}
}

// ModelInfo описание модели из списка API.
type ModelInfo struct {
	Name        string
	DisplayName string
	Description string
}

// backend - часть API Gemini, которой пользуется клиент.
type backend interface {
	generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error)
	upload(ctx context.Context, path string) (*genai.File, error)
	models(ctx context.Context) ([]ModelInfo, error)
}

type genaiBackend struct {
	client *genai.Client
}

func (b *genaiBackend) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (b *genaiBackend) upload(ctx context.Context, path string) (*genai.File, error) {
	return b.client.Files.UploadFromPath(ctx, path, nil)
}

func (b *genaiBackend) models(ctx context.Context) ([]ModelInfo, error) {
	var out []ModelInfo
	for m, err := range b.client.Models.All(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, ModelInfo{Name: m.Name, DisplayName: m.DisplayName, Description: m.Description})
	}
	return out, nil
}

// Client - чат с Gemini.
type Client struct {
	api        backend
	model      string
	wordPrompt string
	search     bool
	history    *history.History
	log        *slog.Logger

	copyText func(string) error
}

// ResolveAPIKey возвращает ключ: переданный явно, иначе из окружения после загрузки .env в текущем каталоге.
func ResolveAPIKey(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if cwd, err := os.Getwd(); err == nil {
		if err := envfile.Load(filepath.Join(cwd, envfile.FileName)); err != nil {
			logging.New("gemini").Warn("не удалось прочитать .env", "error", err)
		}
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key, nil
	}
	return "", ErrNoAPIKey
}

// New подключается к Gemini API.
func New(ctx context.Context, cfg Config) (*Client, error) {
	key, err := ResolveAPIKey(cfg.APIKey)
	if err != nil {
		return nil, err
	}

	log := logging.New("gemini")
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Error("ошибка настройки Gemini API", "error", err)
		return nil, fmt.Errorf("настройка Gemini API: %w", err)
	}
	log.Info("Gemini API настроен")

	return newClient(&genaiBackend{client: gc}, cfg, log)
}

func newClient(api backend, cfg Config, log *slog.Logger) (*Client, error) {
	if err := guard.Positive("limit_word_per_respond", cfg.WordLimit); err != nil {
		return nil, err
	}
	if err := guard.Positive("memories_length", cfg.MemoriesLength); err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	h, err := history.New(cfg.MemoriesLength)
	if err != nil {
		return nil, err
	}
	return &Client{
		api:        api,
		model:      cfg.Model,
		wordPrompt: WordPrompt(cfg.WordLimit),
		search:     cfg.Search,
		history:    h,
		log:        log,
		copyText:   clipboard.Copy,
	}, nil
}

// WordPrompt инструкция об ограничении длины ответа.
func WordPrompt(limit int) string {
	return fmt.Sprintf("Please remember to answer with less than %d words.", limit)
}

// Model имя модели.
func (c *Client) Model() string { return c.model }

// WordPrompt текущая инструкция об ограничении длины.
func (c *Client) WordPrompt() string { return c.wordPrompt }

// History копия памяти диалога.
func (c *Client) History() []history.Turn { return c.history.Turns() }

// MaxMemoryLength длина памяти.
func (c *Client) MaxMemoryLength() int { return c.history.Max() }

// SetMaxMemoryLength меняет длину памяти, значение должно быть положительным.
func (c *Client) SetMaxMemoryLength(n int) error {
	if err := guard.Positive("max_memory_length", n); err != nil {
		return err
	}
	return c.history.SetMax(n)
}

// ClearHistory очищает память.
func (c *Client) ClearHistory() { c.history.Clear() }

// UploadFile загружает файл в Gemini Files API.
func (c *Client) UploadFile(ctx context.Context, path string) (*genai.File, error) {
	if _, err := os.Stat(path); err != nil {
		c.log.Error("файл не найден", "path", path)
		return nil, fmt.Errorf("файл не найден: %w", err)
	}
	c.log.Info("загрузка файла", "path", path)
	f, err := c.api.upload(ctx, path)
	if err != nil {
		c.log.Error("ошибка загрузки файла", "path", path, "error", err)
		return nil, fmt.Errorf("загрузка %s: %w", path, err)
	}
	c.log.Info("файл загружен", "name", f.Name)
	return f, nil
}

func (c *Client) contents(ctx context.Context, prompt, filePath string) ([]*genai.Content, error) {
	var parts []*genai.Part
	if filePath != "" {
		f, err := c.UploadFile(ctx, filePath)
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.NewPartFromURI(f.URI, f.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(c.wordPrompt+prompt))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil
}

// Ask отправляет вопрос и, если задан filePath, файл. Пустой вопрос возвращает "" без запроса.
func (c *Client) Ask(ctx context.Context, prompt, filePath string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		c.log.Warn("пустой запрос, обращение к API пропущено")
		return "", nil
	}

	contents, err := c.contents(ctx, prompt, filePath)
	if err != nil {
		return "", err
	}

	var cfg *genai.GenerateContentConfig
	if c.search {
		cfg = &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		}
	}

	answer, err := c.api.generate(ctx, c.model, contents, cfg)
	if err != nil {
		c.log.Error("ошибка при обращении к API", "error", err)
		return "", fmt.Errorf("gemini: %w", err)
	}
	if answer == "" {
		c.log.Info("пустой ответ, возможно сработали фильтры безопасности")
		return "", nil
	}
	c.log.Info("ответ получен")
	return answer, nil
}

// AskWithMemories добавляет предыдущий диалог к вопросу и запоминает обмен.
func (c *Client) AskWithMemories(ctx context.Context, prompt, filePath string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		c.log.Warn("пустой запрос, обращение к API пропущено")
		return "", nil
	}
	answer, err := c.Ask(ctx, c.history.Prompt(prompt), filePath)
	if err != nil {
		return "", err
	}
	c.history.Add(prompt, answer)
	return answer, nil
}

// AskAndCopy отвечает и копирует непустой ответ в буфер обмена.
// Ошибка буфера обмена только логируется.
func (c *Client) AskAndCopy(ctx context.Context, prompt, filePath string) (string, error) {
	answer, err := c.Ask(ctx, prompt, filePath)
	if err != nil || answer == "" {
		return answer, err
	}
	if err := c.copyText(answer); err != nil {
		c.log.Error("не удалось скопировать в буфер обмена", "error", err)
	} else {
		c.log.Info("ответ скопирован в буфер обмена")
	}
	return answer, nil
}

// ListModels возвращает модели, в имени которых есть filter.
func (c *Client) ListModels(ctx context.Context, filter string) ([]ModelInfo, error) {
	all, err := c.api.models(ctx)
	if err != nil {
		c.log.Error("ошибка получения списка моделей", "error", err)
		return nil, err
	}
	var out []ModelInfo
	for _, m := range all {
		if strings.Contains(m.Name, filter) {
			out = append(out, m)
		}
	}
	return out, nil
}

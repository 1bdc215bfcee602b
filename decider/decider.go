// Package decider отвечает на вопрос "нужен ли поиск в интернете" одним из двух ответов.
package decider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/llm"
	"github.com/freeai-utils/freeai-utils/logging"
)

// Ответы конфигурации по умолчанию.
const (
	SearchInternet = "SEARCH_INTERNET"
	NoSearchNeeded = "NO_SEARCH_NEEDED"
)

// DefaultExamples примеры для конфигурации по умолчанию.
const DefaultExamples = "Question: What is the weather like in London tomorrow? -> SEARCH_INTERNET\n" +
	"Question: What is the capital of France? -> NO_SEARCH_NEEDED\n" +
	"Question: What was the score of the latest football match between Real Madrid and Barcelona? -> SEARCH_INTERNET\n" +
	"Question: What is the chemical formula for water? -> NO_SEARCH_NEEDED\n" +
	"Question: Who is the current Prime Minister of Canada? -> SEARCH_INTERNET\n" +
	"Question: What is the definition of photosynthesis? -> NO_SEARCH_NEEDED\n" +
	"Question: What is the price of Bitcoin right now? -> SEARCH_INTERNET\n" +
	"Question: What is the history of the Eiffel Tower? -> NO_SEARCH_NEEDED\n" +
	"Question: What is the date today? -> SEARCH_INTERNET\n"

// Config параметры DecisionMaker.
type Config struct {
	Examples string // примеры "Question: ... -> ANSWER"
	Positive string
	Negative string
	Model    string
	Device   string
}

// DefaultConfig "YES"/"NO" без примеров.
func DefaultConfig() Config {
	return Config{Positive: "YES", Negative: "NO", Model: llm.DefaultModel}
}

// BuildSystemPrompt собирает системный промпт из примеров и вариантов ответа.
func BuildSystemPrompt(examples, positive, negative string) string {
	if examples == "" {
		examples = "<no example provided>"
	}
	return "Analyze the following question and determine if an internet search is required to answer it. " +
		fmt.Sprintf("Respond with '%s' or '%s'.\n\n", positive, negative) +
		"Example:\n" + examples
}

// Decider классифицирует вопросы через локальную LLM.
type Decider struct {
	client *llm.Client
	model  string
	device device.Device
	log    *slog.Logger

	mu           sync.RWMutex
	systemPrompt string
	// Params параметры генерации, копируются в каждый запрос.
	params llm.Options
}

// New загружает модель и строит системный промпт.
func New(ctx context.Context, client *llm.Client, cfg Config) (*Decider, error) {
	if err := guard.NotEmpty("positive_ans", cfg.Positive); err != nil {
		return nil, err
	}
	if err := guard.NotEmpty("negative_ans", cfg.Negative); err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel
	}

	log := logging.New("decider")
	log.Info("загрузка модели", "model", cfg.Model)
	opts, dev, err := client.LoadOnDevice(ctx, cfg.Model, cfg.Device)
	if err != nil {
		return nil, err
	}

	d := &Decider{
		client: client,
		model:  cfg.Model,
		device: dev,
		log:    log,
		params: llm.Options{
			"num_predict":    100,
			"temperature":    0,
			"repeat_penalty": 1.2,
			"repeat_last_n":  3,
		},
	}
	for k, v := range opts {
		d.params[k] = v
	}
	d.ConstructSystemPrompt(cfg.Examples, cfg.Positive, cfg.Negative)
	return d, nil
}

// ConstructSystemPrompt пересобирает системный промпт.
func (d *Decider) ConstructSystemPrompt(examples, positive, negative string) {
	d.SetSystemPrompt(BuildSystemPrompt(examples, positive, negative))
}

// ConfigDefaultInternetSearch включает встроенные примеры SEARCH_INTERNET / NO_SEARCH_NEEDED.
func (d *Decider) ConfigDefaultInternetSearch() {
	d.ConstructSystemPrompt(DefaultExamples, SearchInternet, NoSearchNeeded)
}

// SystemPrompt текущий системный промпт.
func (d *Decider) SystemPrompt() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.systemPrompt
}

// SetSystemPrompt заменяет системный промпт.
func (d *Decider) SetSystemPrompt(p string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.systemPrompt = p
}

// SetParam меняет параметр генерации.
func (d *Decider) SetParam(key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.params[key] = value
}

// Model имя модели.
func (d *Decider) Model() string { return d.model }

// Device устройство модели.
func (d *Decider) Device() device.Device { return d.device }

// Prompt промпт для вопроса. tempPrompt, если не пуст, заменяет системный.
func (d *Decider) Prompt(question, tempPrompt string) string {
	sys := tempPrompt
	if sys == "" {
		sys = d.SystemPrompt()
	}
	return fmt.Sprintf("%s\nQuestion: %s ->", sys, question)
}

// Decide возвращает ответ модели в верхнем регистре.
func (d *Decider) Decide(ctx context.Context, question, tempPrompt string) (string, error) {
	d.mu.RLock()
	params := make(llm.Options, len(d.params))
	for k, v := range d.params {
		params[k] = v
	}
	d.mu.RUnlock()

	noThink := false
	resp, err := d.client.Generate(ctx, llm.GenerateRequest{
		Model:   d.model,
		Prompt:  d.Prompt(question, tempPrompt),
		Think:   &noThink,
		Options: params,
	})
	if err != nil {
		return "", err
	}
	_, answer := llm.SplitThinking(resp.Response)
	decision := strings.ToUpper(strings.TrimSpace(answer))
	d.log.Debug("решение", "question", question, "decision", decision)
	return decision, nil
}

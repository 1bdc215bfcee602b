package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/history"
	"github.com/freeai-utils/freeai-utils/logging"
)

// AssistantConfig параметры локального ассистента.
type AssistantConfig struct {
	Model          string
	Device         string
	MemoriesLength int
}

// DefaultAssistantConfig значения по умолчанию.
func DefaultAssistantConfig() AssistantConfig {
	return AssistantConfig{Model: DefaultModel, MemoriesLength: 4}
}

// Assistant - чат с локальной моделью (qwen3) с памятью последних обменов.
type Assistant struct {
	client  *Client
	model   string
	device  device.Device
	opts    Options
	history *history.History
	log     *slog.Logger
}

// NewAssistant загружает модель на первом доступном устройстве.
func NewAssistant(ctx context.Context, client *Client, cfg AssistantConfig) (*Assistant, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	h, err := history.New(cfg.MemoriesLength)
	if err != nil {
		return nil, err
	}

	log := logging.New("assistant")
	log.Info("загрузка модели", "model", cfg.Model)
	opts, dev, err := client.LoadOnDevice(ctx, cfg.Model, cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("модель %s: %w", cfg.Model, err)
	}
	log.Info("модель запущена", "model", cfg.Model, "device", dev)

	return &Assistant{
		client:  client,
		model:   cfg.Model,
		device:  dev,
		opts:    opts,
		history: h,
		log:     log,
	}, nil
}

// Model имя модели.
func (a *Assistant) Model() string { return a.model }

// Device устройство модели.
func (a *Assistant) Device() device.Device { return a.device }

// MemoriesLength длина памяти.
func (a *Assistant) MemoriesLength() int { return a.history.Max() }

// SetMemoriesLength меняет длину памяти (n >= 0).
func (a *Assistant) SetMemoriesLength(n int) error {
	return a.history.SetMax(n)
}

// History копия памяти.
func (a *Assistant) History() []history.Turn { return a.history.Turns() }

// ClearHistory очищает память.
func (a *Assistant) ClearHistory() { a.history.Clear() }

// Ask отправляет одиночный вопрос. Возвращает ответ и рассуждения модели.
func (a *Assistant) Ask(ctx context.Context, prompt string) (content, thinking string, err error) {
	return a.AskMessages(ctx, []Message{{Role: "user", Content: prompt}})
}

// AskMessages отправляет готовую историю сообщений.
func (a *Assistant) AskMessages(ctx context.Context, messages []Message) (content, thinking string, err error) {
	if len(messages) == 0 {
		return "", "", fmt.Errorf("%w: 'messages' пуст", guard.ErrInvalidArgument)
	}
	think := true
	msg, err := a.client.Chat(ctx, ChatRequest{
		Model:    a.model,
		Messages: messages,
		Think:    &think,
		Options:  a.opts,
	})
	if err != nil {
		a.log.Error("ошибка запроса к модели", "error", err)
		return "", "", err
	}

	thinking, content = SplitThinking(msg.Content)
	if msg.Thinking != "" {
		thinking = msg.Thinking
	}
	return content, thinking, nil
}

// AskWithMemories добавляет к вопросу предыдущий диалог и запоминает новый обмен.
func (a *Assistant) AskWithMemories(ctx context.Context, prompt string) (content, thinking string, err error) {
	content, thinking, err = a.Ask(ctx, a.history.Prompt(prompt))
	if err != nil {
		return "", "", err
	}
	a.history.Add(prompt, content)
	return content, thinking, nil
}

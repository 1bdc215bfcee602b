package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/llm"
	"github.com/freeai-utils/freeai-utils/logging"
)

// DefaultLocalModel модель Ollama для офлайн-перевода.
const DefaultLocalModel = "gemma3:1b"

// Local переводчик на локальной модели Ollama.
type Local struct {
	client *llm.Client
	model  string
	device device.Device
	opts   llm.Options
	log    *slog.Logger
}

// NewLocal загружает модель на первом доступном устройстве.
func NewLocal(ctx context.Context, client *llm.Client, model, preferred string) (*Local, error) {
	if model == "" {
		model = DefaultLocalModel
	}
	log := logging.New("translate")
	opts, dev, err := client.LoadOnDevice(ctx, model, preferred)
	if err != nil {
		return nil, fmt.Errorf("модель %s: %w", model, err)
	}
	log.Info("модель перевода загружена", "model", model, "device", dev)
	return &Local{client: client, model: model, device: dev, opts: opts, log: log}, nil
}

// Name имя движка.
func (l *Local) Name() string { return "local:" + l.model }

// Device устройство модели.
func (l *Local) Device() device.Device { return l.device }

// Prompt инструкция для модели.
func Prompt(text, src, dest string) string {
	from := "the source language"
	if src != "" && src != Auto {
		from = src
	}
	return fmt.Sprintf("Translate the following text from %s to %s. Reply with the translation only, without quotes or explanations.\n\n%s", from, dest, text)
}

// Translate переводит text на dest.
func (l *Local) Translate(ctx context.Context, text, src, dest string) (string, error) {
	if err := guard.NotEmpty("text", text); err != nil {
		return "", err
	}
	if err := guard.NotEmpty("dest", dest); err != nil {
		return "", err
	}

	opts := llm.Options{"temperature": 0}
	for k, v := range l.opts {
		opts[k] = v
	}
	think := false
	resp, err := l.client.Generate(ctx, llm.GenerateRequest{
		Model:   l.model,
		Prompt:  Prompt(text, src, dest),
		Think:   &think,
		Options: opts,
	})
	if err != nil {
		return "", fmt.Errorf("локальный перевод: %w", err)
	}
	_, content := llm.SplitThinking(resp.Response)
	return strings.TrimSpace(content), nil
}

// Package caption подписывает изображения локальной vision-моделью Ollama.
package caption

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/llm"
	"github.com/freeai-utils/freeai-utils/logging"
)

const (
	DefaultModel     = "moondream"
	DefaultPrompt    = "Describe this image in one sentence."
	DefaultMaxLength = 100
)

// Captioner генерирует подпись к картинке. Вопросы по изображению он не поддерживает.
type Captioner struct {
	client    *llm.Client
	model     string
	device    device.Device
	opts      llm.Options
	maxLength int
	log       *slog.Logger
}

// New загружает модель на первом доступном устройстве.
func New(ctx context.Context, client *llm.Client, model, preferred string) (*Captioner, error) {
	if model == "" {
		model = DefaultModel
	}
	log := logging.New("caption")

	log.Info("загрузка модели", "model", model)
	opts, dev, err := client.LoadOnDevice(ctx, model, preferred)
	if err != nil {
		return nil, fmt.Errorf("модель %s: %w", model, err)
	}
	log.Info("модель загружена", "model", model, "device", dev)

	return &Captioner{
		client:    client,
		model:     model,
		device:    dev,
		opts:      opts,
		maxLength: DefaultMaxLength,
		log:       log,
	}, nil
}

// Device устройство модели.
func (c *Captioner) Device() device.Device { return c.device }

// Model имя модели.
func (c *Captioner) Model() string { return c.model }

// SetMaxLength ограничивает длину подписи в токенах.
func (c *Captioner) SetMaxLength(n int) error {
	if err := guard.Positive("max_length", n); err != nil {
		return err
	}
	c.maxLength = n
	return nil
}

// Caption возвращает подпись к изображению. Пустой prompt заменяется DefaultPrompt.
func (c *Captioner) Caption(ctx context.Context, imagePath, prompt string) (string, error) {
	if err := guard.NotEmpty("image_path", imagePath); err != nil {
		return "", err
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("изображение не найдено: %w", err)
	}
	if prompt == "" {
		prompt = DefaultPrompt
	}

	opts := llm.Options{"num_predict": c.maxLength, "temperature": 0}
	for k, v := range c.opts {
		opts[k] = v
	}

	resp, err := c.client.Generate(ctx, llm.GenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Images:  []string{base64.StdEncoding.EncodeToString(data)},
		Options: opts,
	})
	if err != nil {
		return "", fmt.Errorf("подпись: %w", err)
	}
	return strings.TrimSpace(resp.Response), nil
}

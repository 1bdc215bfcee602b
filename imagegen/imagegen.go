// Package imagegen генерирует изображения через HTTP API Stable Diffusion WebUI.
package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/logging"
)

const (
	DefaultURL        = "http://127.0.0.1:7860"
	DefaultCheckpoint = "sd_xl_turbo_1.0_fp16"
	DefaultOutputDir  = "generated_images"
)

// Params параметры txt2img. Значения по умолчанию подобраны для sdxl-turbo.
type Params struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"cfg_scale"`
	Seed           int64   `json:"seed"`
	BatchSize      int     `json:"batch_size"`
	SamplerName    string  `json:"sampler_name,omitempty"`
}

// DefaultParams один шаг без guidance, 512x512.
func DefaultParams(prompt string) Params {
	return Params{
		Prompt:      prompt,
		Width:       512,
		Height:      512,
		Steps:       1,
		CFGScale:    0,
		Seed:        -1,
		BatchSize:   1,
		SamplerName: "Euler a",
	}
}

// Validate проверяет параметры.
func (p Params) Validate() error {
	if err := guard.NotEmpty("prompt", p.Prompt); err != nil {
		return err
	}
	if err := guard.Positive("width", p.Width); err != nil {
		return err
	}
	if err := guard.Positive("height", p.Height); err != nil {
		return err
	}
	if err := guard.Positive("steps", p.Steps); err != nil {
		return err
	}
	if err := guard.NonNegative("cfg_scale", p.CFGScale); err != nil {
		return err
	}
	return guard.Positive("batch_size", p.BatchSize)
}

// Checkpoint модель, известная WebUI.
type Checkpoint struct {
	Title     string `json:"title"`
	ModelName string `json:"model_name"`
	Filename  string `json:"filename"`
}

// Config параметры клиента.
type Config struct {
	URL        string
	Checkpoint string
	OutputDir  string
	Timeout    time.Duration
}

// Client генератор изображений.
type Client struct {
	http      *resty.Client
	outputDir string
	log       *slog.Logger
}

// New создаёт клиента. Чекпойнт переключается при первом Generate через SetCheckpoint.
func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.URL, "/")).
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
		outputDir: cfg.OutputDir,
		log:       logging.New("imagegen"),
	}
}

// OutputDir каталог для картинок.
func (c *Client) OutputDir() string { return c.outputDir }

// IsAvailable отвечает ли WebUI.
func (c *Client) IsAvailable(ctx context.Context) bool {
	resp, err := c.http.R().SetContext(ctx).Get("/sdapi/v1/options")
	return err == nil && !resp.IsError()
}

// Checkpoints список моделей WebUI.
func (c *Client) Checkpoints(ctx context.Context) ([]Checkpoint, error) {
	var out []Checkpoint
	resp, err := c.http.R().SetContext(ctx).ForceContentType("application/json").SetResult(&out).Get("/sdapi/v1/sd-models")
	if err != nil {
		return nil, fmt.Errorf("список моделей: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("список моделей: статус %d", resp.StatusCode())
	}
	return out, nil
}

// SetCheckpoint переключает модель WebUI.
func (c *Client) SetCheckpoint(ctx context.Context, name string) error {
	if err := guard.NotEmpty("checkpoint", name); err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"sd_model_checkpoint": name}).
		Post("/sdapi/v1/options")
	if err != nil {
		return fmt.Errorf("смена модели: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("смена модели %s: статус %d", name, resp.StatusCode())
	}
	c.log.Info("модель выбрана", "checkpoint", name)
	return nil
}

type txt2imgResponse struct {
	Images []string `json:"images"`
}

// Generate создаёт изображения и сохраняет их в OutputDir. Возвращает пути к файлам.
func (c *Client) Generate(ctx context.Context, p Params) ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var out txt2imgResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(p).
		ForceContentType("application/json").
		SetResult(&out).
		Post("/sdapi/v1/txt2img")
	if err != nil {
		return nil, fmt.Errorf("txt2img: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("txt2img: статус %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(out.Images))
	for _, img := range out.Images {
		// WebUI может вернуть data URL
		if i := strings.Index(img, ","); i >= 0 && strings.HasPrefix(img, "data:") {
			img = img[i+1:]
		}
		data, err := base64.StdEncoding.DecodeString(img)
		if err != nil {
			return paths, fmt.Errorf("декодирование изображения: %w", err)
		}
		path := filepath.Join(c.outputDir, uuid.NewString()+".png")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	c.log.Info("изображения созданы", "count", len(paths), "dir", c.outputDir)
	return paths, nil
}

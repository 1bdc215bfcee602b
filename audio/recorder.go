// Package audio предоставляет запись аудио с микрофона в WAV и MP3.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/logging"
	"github.com/freeai-utils/freeai-utils/pcm"
)

// Format формат выходного файла.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

const (
	// DefaultRate - частота записи по умолчанию.
	DefaultRate = 44100
	// DefaultChunk - кадров в одном буфере.
	DefaultChunk = 1024
	// DefaultBitrate - битрейт MP3, кбит/с.
	DefaultBitrate = 192
	// DefaultSilenceThreshold - порог тишины по RMS для 16-битных сэмплов.
	DefaultSilenceThreshold = 800
	// DefaultMaxSilence - длительность тишины до остановки.
	DefaultMaxSilence = 3 * time.Second

	pollInterval = 10 * time.Millisecond
)

// ErrNoAudio ничего не записано.
var ErrNoAudio = errors.New("аудио не записано")

// Config параметры записи.
type Config struct {
	Channels int
	Rate     int
	Chunk    int
	Format   Format
	// Bitrate и Quality используются только для MP3.
	Bitrate int
	Quality int
}

// DefaultConfig параметры по умолчанию для указанного формата.
func DefaultConfig(format Format) Config {
	return Config{
		Channels: 1,
		Rate:     DefaultRate,
		Chunk:    DefaultChunk,
		Format:   format,
		Bitrate:  DefaultBitrate,
		Quality:  2,
	}
}

// Validate проверяет параметры.
func (c Config) Validate() error {
	if err := guard.Positive("channels", c.Channels); err != nil {
		return err
	}
	if err := guard.Positive("rate", c.Rate); err != nil {
		return err
	}
	if err := guard.Positive("chunk", c.Chunk); err != nil {
		return err
	}
	if err := guard.OneOf("format", c.Format, FormatWAV, FormatMP3); err != nil {
		return err
	}
	if c.Format == FormatMP3 {
		if err := guard.Positive("bitrate", c.Bitrate); err != nil {
			return err
		}
		if err := guard.Range("quality", c.Quality, 0, 9); err != nil {
			return err
		}
	}
	return nil
}

// OutputName дописывает расширение формата, если его нет.
func (c Config) OutputName(name string) string {
	ext := "." + string(c.Format)
	if strings.EqualFold(filepath.Ext(name), ext) {
		return name
	}
	return name + ext
}

// Recorder записывает аудио с микрофона.
type Recorder struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	running bool
}

// New инициализирует PortAudio и создаёт Recorder.
func New(cfg Config) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("инициализация PortAudio: %w", err)
	}
	return &Recorder{cfg: cfg, log: logging.New("audio")}, nil
}

// Config возвращает параметры записи.
func (r *Recorder) Config() Config {
	return r.cfg
}

// Capture читает микрофон порциями, пока onChunk не вернёт true или не отменён ctx.
// Возвращает всё записанное, даже если произошла ошибка.
func (r *Recorder) Capture(ctx context.Context, onChunk func(chunk []int16) bool) ([]int16, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, errors.New("запись уже идёт")
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	buffer := make([]int16, r.cfg.Chunk*r.cfg.Channels)
	stream, err := portaudio.OpenDefaultStream(r.cfg.Channels, 0, float64(r.cfg.Rate), r.cfg.Chunk, buffer)
	if err != nil {
		return nil, fmt.Errorf("открытие аудиопотока: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("запуск аудиопотока: %w", err)
	}
	defer stream.Stop()

	samples := make([]int16, 0, r.cfg.Rate*r.cfg.Channels*30)
	for {
		if err := ctx.Err(); err != nil {
			return samples, err
		}

		available, err := stream.AvailableToRead()
		if err != nil || available < r.cfg.Chunk {
			if onChunk(nil) {
				return samples, nil
			}
			time.Sleep(pollInterval)
			continue
		}

		if err := stream.Read(); err != nil {
			r.log.Warn("ошибка чтения аудио", "error", err)
			time.Sleep(pollInterval)
			continue
		}

		chunk := make([]int16, len(buffer))
		copy(chunk, buffer)
		samples = append(samples, chunk...)

		if onChunk(chunk) {
			return samples, nil
		}
	}
}

// RecordFixed записывает ровно seconds секунд.
func (r *Recorder) RecordFixed(ctx context.Context, seconds int, out string) (string, error) {
	if err := guard.Positive("seconds", seconds); err != nil {
		return "", err
	}
	total := fixedChunks(r.cfg.Rate, r.cfg.Chunk, seconds)
	read := 0

	r.log.Info("запись начата", "seconds", seconds)
	samples, err := r.Capture(ctx, func(chunk []int16) bool {
		if chunk != nil {
			read++
		}
		return read >= total
	})
	return r.finish(ctx, samples, err, out)
}

// fixedChunks число блоков по chunk кадров на seconds секунд при частоте rate, не меньше одного.
func fixedChunks(rate, chunk, seconds int) int {
	return max(1, int(float64(rate)/float64(chunk)*float64(seconds)))
}

// RecordUntil записывает, пока не придёт сигнал в stop (например, повторное нажатие клавиши).
func (r *Recorder) RecordUntil(ctx context.Context, stop <-chan struct{}, out string) (string, error) {
	r.log.Info("запись начата, ожидание сигнала остановки")
	samples, err := r.Capture(ctx, func([]int16) bool {
		select {
		case <-stop:
			return true
		default:
			return false
		}
	})
	return r.finish(ctx, samples, err, out)
}

// RecordSilence записывает, пока тишина не продлится maxSilence.
func (r *Recorder) RecordSilence(ctx context.Context, threshold float64, maxSilence time.Duration, out string) (string, error) {
	if err := guard.Positive("threshold", threshold); err != nil {
		return "", err
	}
	if err := guard.Positive("max_silence", maxSilence); err != nil {
		return "", err
	}
	detector := pcm.SilenceDetector{Threshold: threshold, MaxSilence: maxSilence}

	r.log.Info("запись начата, остановка по тишине", "threshold", threshold, "silence", maxSilence)
	samples, err := r.Capture(ctx, func(chunk []int16) bool {
		if chunk == nil {
			return false
		}
		return detector.Observe(pcm.RMS(chunk), time.Now())
	})
	return r.finish(ctx, samples, err, out)
}

// finish сохраняет записанное независимо от ошибки записи.
func (r *Recorder) finish(ctx context.Context, samples []int16, recErr error, out string) (string, error) {
	if len(samples) == 0 {
		if recErr != nil {
			return "", recErr
		}
		return "", ErrNoAudio
	}

	path := r.cfg.OutputName(out)
	if err := r.Save(context.WithoutCancel(ctx), samples, path); err != nil {
		return "", errors.Join(recErr, err)
	}
	r.log.Info("запись сохранена", "path", path, "seconds", float64(len(samples))/float64(r.cfg.Rate*r.cfg.Channels))

	if recErr != nil && !errors.Is(recErr, context.Canceled) {
		return path, recErr
	}
	return path, nil
}

// Save пишет сэмплы в файл в формате Recorder.
func (r *Recorder) Save(ctx context.Context, samples []int16, path string) error {
	switch r.cfg.Format {
	case FormatMP3:
		return EncodeMP3(ctx, samples, r.cfg, path)
	default:
		return pcm.SaveWAV(path, samples, r.cfg.Rate, r.cfg.Channels)
	}
}

// Close освобождает PortAudio.
func (r *Recorder) Close() error {
	return portaudio.Terminate()
}

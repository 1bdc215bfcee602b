package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/freeai-utils/freeai-utils/audio"
	"github.com/freeai-utils/freeai-utils/clipboard"
	"github.com/freeai-utils/freeai-utils/internal/config"
	"github.com/freeai-utils/freeai-utils/internal/dialog"
	"github.com/freeai-utils/freeai-utils/internal/hotkey"
	"github.com/freeai-utils/freeai-utils/internal/i18n"
	"github.com/freeai-utils/freeai-utils/internal/input"
	"github.com/freeai-utils/freeai-utils/internal/notify"
	"github.com/freeai-utils/freeai-utils/llm"
	"github.com/freeai-utils/freeai-utils/logging"
	"github.com/freeai-utils/freeai-utils/models"
	"github.com/freeai-utils/freeai-utils/pcm"
	"github.com/freeai-utils/freeai-utils/speech"
)

const (
	// MinRecordingDuration - минимальная длительность записи для распознавания.
	MinRecordingDuration = 500 * time.Millisecond

	correctTimeout = 30 * time.Second
	// typeDelay пауза перед вводом, чтобы отпустить клавиши горячей комбинации.
	typeDelay = 150 * time.Millisecond
)

// Corrector исправляет ошибки распознавания.
type Corrector interface {
	CorrectText(ctx context.Context, text string) (string, error)
}

// captureFunc пишет микрофон, пока не закроется stop.
type captureFunc func(ctx context.Context, stop <-chan struct{}) ([]int16, error)

// Dictation голосовой ввод: первое нажатие начинает запись, второе
// останавливает, текст распознаётся и вводится в активное поле.
type Dictation struct {
	recognizer speech.Recognizer
	corrector  Corrector
	output     func(text string) error
	notifier   *notify.Notifier
	lang       string
	capture    captureFunc
	minLength  time.Duration
	log        *slog.Logger

	presses chan struct{}
}

// OnPress обработчик горячей клавиши.
func (d *Dictation) OnPress() {
	select {
	case d.presses <- struct{}{}:
	default:
	}
}

// Run обрабатывает сессии записи до отмены ctx.
func (d *Dictation) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.presses:
		}

		if _, err := d.session(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d.log.Error("ошибка голосового ввода", "error", err)
			d.notifier.Error(err.Error())
		}
		d.drain()
	}
}

// drain отбрасывает нажатия, пришедшие во время распознавания.
func (d *Dictation) drain() {
	for {
		select {
		case <-d.presses:
		default:
			return
		}
	}
}

type captured struct {
	samples []int16
	err     error
}

func (d *Dictation) session(ctx context.Context) (string, error) {
	stop := make(chan struct{})
	done := make(chan captured, 1)
	start := time.Now()

	go func() {
		samples, err := d.capture(ctx, stop)
		done <- captured{samples: samples, err: err}
	}()
	d.log.Info("запись начата")

	select {
	case <-d.presses:
	case <-ctx.Done():
	}
	close(stop)
	res := <-done
	elapsed := time.Since(start)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if res.err != nil {
		return "", fmt.Errorf("запись: %w", res.err)
	}
	if elapsed < d.minLength || len(res.samples) == 0 {
		d.log.Info("запись слишком короткая", "elapsed", elapsed.Round(time.Millisecond))
		return "", nil
	}
	return d.process(ctx, res.samples)
}

// process распознаёт 16-битные сэмплы 16 кГц и выводит текст.
func (d *Dictation) process(ctx context.Context, samples []int16) (string, error) {
	floats := pcm.PCM16ToFloat32(pcm.Int16ToBytes(samples))
	text, err := d.recognizer.Transcribe(speech.PadSamples(floats), d.lang)
	if err != nil {
		return "", fmt.Errorf("распознавание (%s): %w", d.recognizer.Name(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		d.notifier.Empty()
		return "", nil
	}

	if d.corrector != nil {
		cctx, cancel := context.WithTimeout(ctx, correctTimeout)
		corrected, err := d.corrector.CorrectText(cctx, text)
		cancel()
		switch {
		case err != nil:
			d.log.Warn("коррекция не удалась, используется исходный текст", "error", err)
		case strings.TrimSpace(corrected) != "":
			text = strings.TrimSpace(corrected)
		}
	}

	if err := d.output(text); err != nil {
		return text, fmt.Errorf("вывод текста: %w", err)
	}
	d.notifier.Transcribed(text)
	return text, nil
}

// DictationOptions параметры голосового ввода.
type DictationOptions struct {
	// ModelID модель распознавания, по умолчанию из конфигурации.
	ModelID string
	// Hotkey по умолчанию из конфигурации.
	Hotkey string
	// Correct исправлять текст локальной LLM.
	Correct bool
	// Copy копировать в буфер обмена вместо ввода в активное поле.
	Copy bool
	// SelectHotkey выбрать клавишу в диалоге и сохранить её в конфигурации.
	SelectHotkey bool
}

// RunDictation загружает распознаватель, регистрирует горячую клавишу и
// обрабатывает сессии голосового ввода до отмены ctx.
func RunDictation(ctx context.Context, cfg *config.Config, opts DictationOptions) error {
	log := logging.New("dictation")

	hk := cfg.Hotkey()
	if opts.Hotkey != "" {
		parsed, err := config.ParseHotkey(opts.Hotkey)
		if err != nil {
			return err
		}
		hk = parsed
	}
	if opts.SelectHotkey {
		selected, err := dialog.SelectHotkey(hk)
		if err != nil {
			return fmt.Errorf("выбор горячей клавиши: %w", err)
		}
		cfg.SetHotkey(selected)
		hk = selected
	}

	modelID := opts.ModelID
	if modelID == "" {
		modelID = cfg.WhisperModel()
	}
	manager, err := models.NewManager(cfg.ModelsDir())
	if err != nil {
		return err
	}
	factory := speech.NewFactory(manager, cfg.Device())
	if err := factory.Load(modelID); err != nil {
		return err
	}
	defer factory.Close()
	log.Info("модель распознавания загружена", "model", factory.CurrentModelID(), "engine", factory.Current().Name())

	recCfg := audio.DefaultConfig(audio.FormatWAV)
	recCfg.Rate = speech.SampleRate
	rec, err := audio.New(recCfg)
	if err != nil {
		return err
	}
	defer rec.Close()

	output, err := dictationOutput(opts.Copy, log)
	if err != nil {
		return err
	}

	d := &Dictation{
		recognizer: factory.Current(),
		output:     output,
		notifier:   notify.New(cfg.NotificationsEnabled()),
		lang:       cfg.Language(),
		minLength:  MinRecordingDuration,
		log:        log,
		presses:    make(chan struct{}, 1),
		capture: func(ctx context.Context, stop <-chan struct{}) ([]int16, error) {
			return rec.Capture(ctx, func([]int16) bool {
				select {
				case <-stop:
					return true
				default:
					return false
				}
			})
		},
	}

	if opts.Correct {
		llmCfg := cfg.LLM()
		client := llm.New(llm.Config{URL: llmCfg.URL, Model: llmCfg.Model})
		if client.IsAvailable(ctx) {
			d.corrector = client
		} else {
			log.Warn("Ollama недоступна, коррекция отключена", "url", client.BaseURL())
		}
	}

	handler := hotkey.New(d.OnPress)
	if err := handler.Register(hk); err != nil {
		return err
	}
	defer func() {
		if err := handler.Unregister(); err != nil {
			log.Warn("ошибка снятия горячей клавиши", "error", err)
		}
	}()

	fmt.Println(i18n.Tf("dictate_started", hk.String()))
	return d.Run(ctx)
}

// dictationOutput выбирает вывод: ввод в активное поле или буфер обмена.
func dictationOutput(copyOnly bool, log *slog.Logger) (func(string) error, error) {
	if copyOnly {
		return clipboard.Copy, nil
	}
	typer, err := input.New()
	if errors.Is(err, input.ErrNoTyper) {
		log.Warn("ввод текста недоступен, результат копируется в буфер обмена", "error", err)
		return clipboard.Copy, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("ввод текста", "typer", typer.Name())
	return func(text string) error {
		time.Sleep(typeDelay)
		return typer.Type(text)
	}, nil
}

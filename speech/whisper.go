package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/freeai-utils/freeai-utils/audio"
	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/logging"
	"github.com/freeai-utils/freeai-utils/models"
	"github.com/freeai-utils/freeai-utils/timeit"
)

// detectWindow - сколько аудио использовать для определения языка (30 сек).
const detectWindow = SampleRate * 30

// Whisper распознаёт речь через whisper.cpp.
type Whisper struct {
	mu     sync.Mutex
	model  whisper.Model
	device device.Device
	opts   Options
	log    *slog.Logger
}

// NewWhisperFromFile создаёт Whisper из файла модели на первом доступном устройстве.
// preferred - желаемое устройство ("cuda", "cpu" или пусто).
func NewWhisperFromFile(modelPath, preferred string, opts Options) (*Whisper, error) {
	log := logging.New("whisper")

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("модель Whisper не найдена: %s", modelPath)
	}

	// whisper.cpp сам использует GPU, если собран с CUDA
	model, dev, err := device.Load(log, device.Candidates(preferred), func(device.Device) (whisper.Model, error) {
		return whisper.New(modelPath)
	})
	if err != nil {
		return nil, err
	}
	log.Info("модель Whisper загружена", "path", modelPath, "device", dev, "multilingual", model.IsMultilingual())

	if opts.Language == "" {
		opts.Language = "auto"
	}
	return &Whisper{model: model, device: dev, opts: opts, log: log}, nil
}

// OpenWhisper загружает скачанную модель из реестра по ID.
func OpenWhisper(manager *models.Manager, modelID, preferred string, opts Options) (*Whisper, error) {
	info, ok := models.GetModel(modelID)
	if !ok || info.Engine != models.EngineWhisper {
		return nil, fmt.Errorf("модель Whisper не найдена: %s", modelID)
	}
	if !manager.IsDownloaded(info) {
		return nil, fmt.Errorf("модель не скачана: %s (freeai-utils setup S)", info.Name)
	}
	return NewWhisperFromFile(manager.GetModelPath(info), preferred, opts)
}

// NewVietnamese - предустановка для вьетнамского языка на модели medium.
func NewVietnamese(manager *models.Manager, preferred string) (*Whisper, error) {
	return OpenWhisper(manager, models.VietnameseWhisperID(), preferred, Options{Language: "vi"})
}

// Name возвращает название движка.
func (w *Whisper) Name() string {
	return string(EngineWhisper)
}

// Device устройство, на котором загружена модель.
func (w *Whisper) Device() device.Device {
	return w.device
}

// Transcribe распознаёт речь из аудио сэмплов.
func (w *Whisper) Transcribe(samples []float32, lang string) (string, error) {
	opts := w.opts
	if lang != "" {
		opts.Language = lang
	}
	res, err := w.TranscribeSamples(samples, opts)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// TranscribeSamples распознаёт сэмплы и возвращает текст, язык и сегменты.
func (w *Whisper) TranscribeSamples(samples []float32, opts Options) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model == nil {
		return Result{}, fmt.Errorf("модель Whisper закрыта")
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return Result{}, err
	}

	wctx.SetTranslate(opts.Translate)
	if opts.Threads > 0 {
		wctx.SetThreads(opts.Threads)
	}
	if opts.Language != "" {
		if err := wctx.SetLanguage(opts.Language); err != nil {
			return Result{}, fmt.Errorf("язык %q: %w", opts.Language, err)
		}
	}

	if err := wctx.Process(PadSamples(samples), nil, nil, nil); err != nil {
		return Result{}, err
	}

	var segments []Segment
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, err
		}
		segments = append(segments, Segment{Start: segment.Start, End: segment.End, Text: segment.Text})
	}

	return buildResult(wctx.DetectedLanguage(), segments), nil
}

// TranscribeFile декодирует файл через ffmpeg и распознаёт его.
func (w *Whisper) TranscribeFile(ctx context.Context, path string, opts Options) (Result, error) {
	defer timeit.Track(w.log, "transcribe")()

	samples, err := audio.LoadFile(ctx, path, SampleRate)
	if err != nil {
		return Result{}, err
	}
	if opts.Language == "" {
		opts.Language = w.opts.Language
	}
	res, err := w.TranscribeSamples(samples, opts)
	if err != nil {
		return Result{}, fmt.Errorf("распознавание %s: %w", path, err)
	}
	w.log.Info("файл распознан", "path", path, "language", res.Language, "segments", len(res.Segments))
	return res, nil
}

// Transcription возвращает только текст файла.
func (w *Whisper) Transcription(ctx context.Context, path string) (string, error) {
	res, err := w.TranscribeFile(ctx, path, w.opts)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// TimedTranscription возвращает сегменты с таймкодами.
func (w *Whisper) TimedTranscription(ctx context.Context, path string) ([]Segment, error) {
	res, err := w.TranscribeFile(ctx, path, w.opts)
	if err != nil {
		return nil, err
	}
	return res.Segments, nil
}

// DetectLanguage определяет язык по первым 30 секундам файла.
func (w *Whisper) DetectLanguage(ctx context.Context, path string) (string, error) {
	samples, err := audio.LoadFile(ctx, path, SampleRate)
	if err != nil {
		return "", err
	}
	if len(samples) > detectWindow {
		samples = samples[:detectWindow]
	}
	res, err := w.TranscribeSamples(samples, Options{Language: "auto"})
	if err != nil {
		return "", err
	}
	w.log.Info("язык определён", "path", path, "language", res.Language)
	return res.Language, nil
}

// Close освобождает ресурсы.
func (w *Whisper) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
}

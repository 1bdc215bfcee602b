package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	vosk "github.com/alphacep/vosk-api/go"

	"github.com/freeai-utils/freeai-utils/audio"
	"github.com/freeai-utils/freeai-utils/logging"
	"github.com/freeai-utils/freeai-utils/models"
	"github.com/freeai-utils/freeai-utils/pcm"
)

const (
	// DefaultLiveThreshold - порог тишины (нормированный RMS) для живого распознавания.
	DefaultLiveThreshold = 0.01
	// DefaultLiveSilence - длительность тишины до остановки.
	DefaultLiveSilence = 4 * time.Second

	liveChunk = 4000
)

// VoskRecognizer реализует Recognizer через Vosk.
type VoskRecognizer struct {
	mu         sync.Mutex
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
	sampleRate float64
}

// voskResult структура для парсинга JSON результата от Vosk.
type voskResult struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

func parseVosk(raw string) (voskResult, error) {
	var r voskResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return voskResult{}, fmt.Errorf("некорректный ответ Vosk: %w", err)
	}
	r.Text = strings.TrimSpace(r.Text)
	r.Partial = strings.TrimSpace(r.Partial)
	return r, nil
}

// NewVosk создаёт VoskRecognizer из пути к модели.
func NewVosk(modelPath string) (*VoskRecognizer, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("модель Vosk не найдена: %s", modelPath)
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели Vosk: %w", err)
	}

	rec, err := vosk.NewRecognizer(model, SampleRate)
	if err != nil {
		model.Free()
		return nil, err
	}

	return &VoskRecognizer{
		model:      model,
		recognizer: rec,
		sampleRate: SampleRate,
	}, nil
}

// Name возвращает название движка.
func (v *VoskRecognizer) Name() string {
	return string(EngineVosk)
}

// Transcribe распознаёт речь из аудио сэмплов.
func (v *VoskRecognizer) Transcribe(samples []float32, lang string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.recognizer.AcceptWaveform(pcm.Float32ToPCM16(samples))
	resultJSON := v.recognizer.FinalResult()
	v.recognizer.Reset()

	result, err := parseVosk(resultJSON)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Close освобождает ресурсы.
func (v *VoskRecognizer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
}

// VoskLive распознаёт речь с микрофона в реальном времени.
type VoskLive struct {
	rec *VoskRecognizer
	log *slog.Logger

	// OnPartial вызывается при изменении промежуточного результата.
	OnPartial func(text string)
}

// OpenVoskLive загружает скачанную модель Vosk из реестра.
func OpenVoskLive(manager *models.Manager, modelID string) (*VoskLive, error) {
	info, ok := models.GetModel(modelID)
	if !ok || info.Engine != models.EngineVosk {
		return nil, fmt.Errorf("модель Vosk не найдена: %s", modelID)
	}
	path := manager.GetModelPath(info)
	if !manager.IsDownloaded(info) {
		return nil, fmt.Errorf("модель Vosk не найдена: %s (freeai-utils setup V)", path)
	}
	rec, err := NewVosk(path)
	if err != nil {
		return nil, err
	}
	return &VoskLive{rec: rec, log: logging.New("vosk")}, nil
}

// liveState собирает результаты Vosk по мере поступления аудио.
type liveState struct {
	parts       []string
	lastPartial string
	detector    pcm.SilenceDetector
	onPartial   func(string)
}

// feed обрабатывает ответ распознавателя и громкость фрагмента.
// final - признак завершённой фразы, raw - JSON от Vosk.
func (s *liveState) feed(final bool, raw string, level float64, now time.Time) (bool, error) {
	res, err := parseVosk(raw)
	if err != nil {
		return false, err
	}
	if final {
		if res.Text != "" {
			s.parts = append(s.parts, res.Text)
		}
		s.lastPartial = ""
	} else if res.Partial != s.lastPartial {
		s.lastPartial = res.Partial
		if s.onPartial != nil && res.Partial != "" {
			s.onPartial(res.Partial)
		}
	}
	return s.detector.Observe(level, now), nil
}

func (s *liveState) text(finalRaw string) string {
	if res, err := parseVosk(finalRaw); err == nil && res.Text != "" {
		s.parts = append(s.parts, res.Text)
	}
	return strings.TrimSpace(strings.Join(s.parts, " "))
}

// TranscribeUntilSilence слушает микрофон, пока тишина не продлится silence.
// threshold - нормированный RMS в [0, 1].
func (l *VoskLive) TranscribeUntilSilence(ctx context.Context, threshold float64, silence time.Duration) (string, error) {
	cfg := audio.Config{Channels: 1, Rate: SampleRate, Chunk: liveChunk, Format: audio.FormatWAV}
	recorder, err := audio.New(cfg)
	if err != nil {
		return "", err
	}
	defer recorder.Close()

	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	l.rec.recognizer.Reset()

	state := &liveState{
		detector:  pcm.SilenceDetector{Threshold: threshold, MaxSilence: silence},
		onPartial: l.OnPartial,
	}

	l.log.Info("слушаю микрофон")
	var feedErr error
	_, err = recorder.Capture(ctx, func(chunk []int16) bool {
		if chunk == nil {
			return false
		}
		final := l.rec.recognizer.AcceptWaveform(pcm.Int16ToBytes(chunk)) != 0
		raw := l.rec.recognizer.PartialResult()
		if final {
			raw = l.rec.recognizer.Result()
		}
		stop, err := state.feed(final, raw, pcm.NormalizedRMS(chunk), time.Now())
		if err != nil {
			feedErr = err
			return true
		}
		return stop
	})
	if feedErr != nil {
		return "", feedErr
	}

	text := state.text(l.rec.recognizer.FinalResult())
	l.rec.recognizer.Reset()
	if err != nil && ctx.Err() == nil {
		return text, err
	}
	l.log.Info("распознавание завершено", "chars", len(text))
	return text, nil
}

// Close освобождает модель.
func (l *VoskLive) Close() {
	l.rec.Close()
}

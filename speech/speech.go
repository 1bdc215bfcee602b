// Package speech предоставляет движки распознавания речи: whisper.cpp и Vosk.
package speech

import (
	"fmt"
	"strings"
	"time"
)

// Engine тип движка распознавания.
type Engine string

const (
	// EngineWhisper - whisper.cpp движок.
	EngineWhisper Engine = "whisper"
	// EngineVosk - Vosk движок.
	EngineVosk Engine = "vosk"
)

const (
	// SampleRate - частота дискретизации для распознавания.
	SampleRate = 16000
	// MinSamples - минимальное количество сэмплов (200ms при 16kHz).
	// Whisper требует минимум 100ms, добавляем запас.
	MinSamples = SampleRate / 5
)

// Recognizer - интерфейс для движков распознавания речи.
type Recognizer interface {
	// Transcribe распознаёт речь из аудио сэмплов.
	// samples - аудио данные в формате float32, 16kHz, mono.
	// lang - язык распознавания ("ru", "en", "auto" для автоопределения).
	Transcribe(samples []float32, lang string) (string, error)

	// Close освобождает ресурсы движка.
	Close()

	// Name возвращает название движка (для логирования).
	Name() string
}

// Segment фрагмент распознанного текста с таймкодами.
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Result полный результат распознавания.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Options параметры распознавания файла.
type Options struct {
	// Language - язык или "auto".
	Language string
	// Translate - переводить на английский.
	Translate bool
	// Threads - число потоков, 0 - по умолчанию.
	Threads uint
}

// PadSamples дополняет короткую запись тишиной до MinSamples.
func PadSamples(samples []float32) []float32 {
	if len(samples) >= MinSamples {
		return samples
	}
	padded := make([]float32, MinSamples)
	copy(padded, samples)
	return padded
}

func buildResult(lang string, segments []Segment) Result {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return Result{
		Text:     strings.TrimSpace(b.String()),
		Language: lang,
		Segments: segments,
	}
}

// FormatTimed печатает сегменты в виде "[0.00s -> 2.50s] text".
func FormatTimed(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		fmt.Fprintf(&b, "[%.2fs -> %.2fs] %s\n", s.Start.Seconds(), s.End.Seconds(), strings.TrimSpace(s.Text))
	}
	return b.String()
}

// Package models управляет загружаемыми моделями: реестр, загрузка с докачкой, очистка.
package models

import (
	"fmt"
	"sort"
	"strings"
)

// Engine тип движка, для которого предназначена модель.
type Engine string

const (
	EngineWhisper  Engine = "whisper"
	EngineVosk     Engine = "vosk"
	EngineTessdata Engine = "tessdata"
	EngineImage    Engine = "image"
	EngineImageEmb Engine = "image-embedding"
	EngineOllama   Engine = "ollama"
)

// Флаги команды setup.
const (
	GroupDefault    = "A"
	GroupSpeech     = "S"
	GroupDocument   = "D"
	GroupImageOCR   = "I"
	GroupTranslate  = "T"
	GroupLLM        = "L"
	GroupImageGen   = "ICF"
	GroupImageEmbed = "ICE"
	GroupVosk       = "V"
)

// ModelInfo информация о модели.
type ModelInfo struct {
	ID       string   // Уникальный идентификатор: "whisper-base-q5"
	Engine   Engine   // Движок
	Name     string   // Отображаемое имя
	Filename string   // Имя файла/директории, для Ollama - тег модели
	URL      string   // URL для скачивания (пусто для Ollama)
	Size     int64    // Примерный размер в байтах (для прогресса)
	IsZip    bool     // Нужно ли распаковывать
	Groups   []string // Флаги setup, в которые входит модель
}

// InGroup входит ли модель в группу.
func (m ModelInfo) InGroup(flag string) bool {
	for _, g := range m.Groups {
		if g == flag {
			return true
		}
	}
	return false
}

const mb = 1024 * 1024

// Registry все доступные модели.
var Registry = []ModelInfo{
	// Whisper (whisper.cpp ggml)
	{
		ID:       "whisper-base-q5",
		Engine:   EngineWhisper,
		Name:     "Whisper Base Q5",
		Filename: "ggml-base-q5_1.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base-q5_1.bin",
		Size:     60 * mb,
		Groups:   []string{GroupDefault, GroupSpeech},
	},
	{
		ID:       "whisper-small-q5",
		Engine:   EngineWhisper,
		Name:     "Whisper Small Q5",
		Filename: "ggml-small-q5_1.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small-q5_1.bin",
		Size:     190 * mb,
	},
	{
		ID:       "whisper-medium-q5",
		Engine:   EngineWhisper,
		Name:     "Whisper Medium Q5 (vi)",
		Filename: "ggml-medium-q5_0.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium-q5_0.bin",
		Size:     539 * mb,
		Groups:   []string{GroupDefault, GroupSpeech},
	},
	{
		ID:       "whisper-turbo",
		Engine:   EngineWhisper,
		Name:     "Whisper Large v3 Turbo",
		Filename: "ggml-large-v3-turbo-q5_0.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3-turbo-q5_0.bin",
		Size:     574 * mb,
	},
	// Vosk
	{
		ID:       "vosk-en-us-small",
		Engine:   EngineVosk,
		Name:     "Vosk English Small",
		Filename: "vosk-model-small-en-us-0.15",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-en-us-0.15.zip",
		Size:     40 * mb,
		IsZip:    true,
		Groups:   []string{GroupSpeech, GroupVosk},
	},
	{
		ID:       "vosk-ru-small",
		Engine:   EngineVosk,
		Name:     "Vosk Russian Small",
		Filename: "vosk-model-small-ru-0.22",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-ru-0.22.zip",
		Size:     45 * mb,
		IsZip:    true,
	},
	// Tesseract
	{
		ID:       "tessdata-eng",
		Engine:   EngineTessdata,
		Name:     "Tesseract English",
		Filename: "eng.traineddata",
		URL:      "https://github.com/tesseract-ocr/tessdata_fast/raw/main/eng.traineddata",
		Size:     4 * mb,
		Groups:   []string{GroupDefault, GroupImageOCR},
	},
	{
		ID:       "tessdata-vie",
		Engine:   EngineTessdata,
		Name:     "Tesseract Vietnamese",
		Filename: "vie.traineddata",
		URL:      "https://github.com/tesseract-ocr/tessdata_fast/raw/main/vie.traineddata",
		Size:     1 * mb,
		Groups:   []string{GroupDefault, GroupImageOCR},
	},
	// Stable Diffusion
	{
		ID:       "sdxl-turbo",
		Engine:   EngineImage,
		Name:     "SDXL Turbo fp16",
		Filename: "sd_xl_turbo_1.0_fp16.safetensors",
		URL:      "https://huggingface.co/stabilityai/sdxl-turbo/resolve/main/sd_xl_turbo_1.0_fp16.safetensors",
		Size:     6938 * mb,
		Groups:   []string{GroupImageGen},
	},
	{
		ID:       "easynegative",
		Engine:   EngineImageEmb,
		Name:     "EasyNegative embedding",
		Filename: "EasyNegative.safetensors",
		URL:      "https://huggingface.co/embed/EasyNegative/resolve/main/EasyNegative.safetensors",
		Size:     1 * mb,
		Groups:   []string{GroupImageEmbed},
	},
	// Ollama
	{
		ID:       "ollama-qwen3",
		Engine:   EngineOllama,
		Name:     "Qwen3 0.6B",
		Filename: "qwen3:0.6b",
		Size:     523 * mb,
		Groups:   []string{GroupDefault, GroupLLM, GroupDocument},
	},
	{
		ID:       "ollama-moondream",
		Engine:   EngineOllama,
		Name:     "Moondream (описание изображений)",
		Filename: "moondream",
		Size:     1700 * mb,
		Groups:   []string{GroupDefault, GroupImageOCR},
	},
	{
		ID:       "ollama-nomic-embed",
		Engine:   EngineOllama,
		Name:     "Nomic Embed Text",
		Filename: "nomic-embed-text",
		Size:     274 * mb,
		Groups:   []string{GroupDefault, GroupDocument},
	},
	{
		ID:       "ollama-translator",
		Engine:   EngineOllama,
		Name:     "Gemma3 1B (перевод)",
		Filename: "gemma3:1b",
		Size:     815 * mb,
		Groups:   []string{GroupTranslate},
	},
}

var groupDescriptions = map[string]string{
	GroupDefault:    "Default models",
	GroupSpeech:     "Speech-to-Text models",
	GroupDocument:   "Document-related models",
	GroupImageOCR:   "Image OCR models",
	GroupTranslate:  "Translation models",
	GroupLLM:        "Default LLM models",
	GroupImageGen:   "Image generator models",
	GroupImageEmbed: "Embeded for Image generator models",
	GroupVosk:       "Vosk models",
}

// GroupDescription описание флага setup.
func GroupDescription(flag string) string {
	return groupDescriptions[flag]
}

// Flags все флаги setup в порядке вывода.
func Flags() []string {
	return []string{
		GroupDefault, GroupSpeech, GroupDocument, GroupImageOCR, GroupTranslate,
		GroupLLM, GroupImageGen, GroupImageEmbed, GroupVosk,
	}
}

// Group возвращает модели для флага setup. Пустой флаг означает "A".
func Group(flag string) ([]ModelInfo, error) {
	flag = strings.ToUpper(strings.TrimSpace(flag))
	if flag == "" {
		flag = GroupDefault
	}
	if _, ok := groupDescriptions[flag]; !ok {
		return nil, fmt.Errorf("неизвестный флаг setup: %q (допустимо: %s)", flag, strings.Join(Flags(), ", "))
	}
	var result []ModelInfo
	for _, m := range Registry {
		if m.InGroup(flag) {
			result = append(result, m)
		}
	}
	return result, nil
}

// GetModel возвращает модель по ID.
func GetModel(id string) (ModelInfo, bool) {
	for _, m := range Registry {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// GetModelsByEngine возвращает модели для указанного движка.
func GetModelsByEngine(engine Engine) []ModelInfo {
	var result []ModelInfo
	for _, m := range Registry {
		if m.Engine == engine {
			result = append(result, m)
		}
	}
	return result
}

// Engines все движки, отсортированные по имени.
func Engines() []Engine {
	seen := map[Engine]bool{}
	var result []Engine
	for _, m := range Registry {
		if !seen[m.Engine] {
			seen[m.Engine] = true
			result = append(result, m.Engine)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// DefaultWhisperID модель Whisper по умолчанию.
func DefaultWhisperID() string {
	return "whisper-base-q5"
}

// VietnameseWhisperID модель для вьетнамского пресета.
func VietnameseWhisperID() string {
	return "whisper-medium-q5"
}

// DefaultVoskID модель Vosk по умолчанию.
func DefaultVoskID() string {
	return "vosk-en-us-small"
}

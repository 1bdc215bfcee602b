// Package config предоставляет конфигурацию приложения с сохранением в файл.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/freeai-utils/freeai-utils/logging"
)

// FileName имя файла конфигурации.
const FileName = "config.json"

// Modifier представляет модификатор клавиши.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super" // Win/Cmd
)

// Key представляет клавишу.
type Key string

const (
	KeySpace  Key = "space"
	KeyReturn Key = "return"
	KeyTab    Key = "tab"
	KeyGrave  Key = "`"
	KeyF1     Key = "f1"
	KeyF2     Key = "f2"
	KeyF3     Key = "f3"
	KeyF4     Key = "f4"
	KeyF5     Key = "f5"
	KeyF6     Key = "f6"
	KeyF7     Key = "f7"
	KeyF8     Key = "f8"
	KeyF9     Key = "f9"
	KeyF10    Key = "f10"
	KeyF11    Key = "f11"
	KeyF12    Key = "f12"
)

// HotkeyConfig хранит настройки горячей клавиши.
type HotkeyConfig struct {
	Modifiers []Modifier `json:"modifiers"`
	Key       Key        `json:"key"`
}

// String возвращает строковое представление горячей клавиши.
func (h HotkeyConfig) String() string {
	parts := make([]string, 0, len(h.Modifiers)+1)
	for _, m := range h.Modifiers {
		parts = append(parts, string(m))
	}
	parts = append(parts, string(h.Key))
	return strings.Join(parts, "+")
}

// ParseHotkey разбирает строку вида "ctrl+shift+space" или "`".
func ParseHotkey(s string) (HotkeyConfig, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return HotkeyConfig{}, fmt.Errorf("пустая горячая клавиша")
	}
	if s == "+" {
		return HotkeyConfig{}, fmt.Errorf("неизвестная клавиша: %q", s)
	}

	parts := strings.Split(s, "+")
	var hk HotkeyConfig
	for _, p := range parts[:len(parts)-1] {
		mod := Modifier(strings.TrimSpace(p))
		if !isModifier(mod) {
			return HotkeyConfig{}, fmt.Errorf("неизвестный модификатор: %q", p)
		}
		hk.Modifiers = append(hk.Modifiers, mod)
	}

	key := Key(strings.TrimSpace(parts[len(parts)-1]))
	if !isKey(key) {
		return HotkeyConfig{}, fmt.Errorf("неизвестная клавиша: %q", key)
	}
	hk.Key = key
	return hk, nil
}

func isModifier(m Modifier) bool {
	for _, a := range AvailableModifiers() {
		if a == m {
			return true
		}
	}
	return false
}

func isKey(k Key) bool {
	for _, a := range AvailableKeys() {
		if a == k {
			return true
		}
	}
	return false
}

// AvailableModifiers возвращает список доступных модификаторов.
func AvailableModifiers() []Modifier {
	return []Modifier{ModCtrl, ModShift, ModAlt, ModSuper}
}

// AvailableKeys возвращает список доступных клавиш.
func AvailableKeys() []Key {
	keys := []Key{KeySpace, KeyReturn, KeyTab, KeyGrave}
	for c := 'a'; c <= 'z'; c++ {
		keys = append(keys, Key(string(c)))
	}
	return append(keys,
		KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12)
}

// LLMConfig настройки локальной LLM через Ollama.
type LLMConfig struct {
	URL   string `json:"url,omitempty"`
	Model string `json:"model,omitempty"`
}

// GeminiConfig настройки Gemini.
type GeminiConfig struct {
	Model          string `json:"model,omitempty"`
	MemoriesLength int    `json:"memories_length,omitempty"`
	WordLimit      int    `json:"word_limit,omitempty"`
}

// configData структура для сериализации.
type configData struct {
	Language      string       `json:"language"`
	UILanguage    string       `json:"ui_language,omitempty"`
	Notifications bool         `json:"notifications"`
	Hotkey        HotkeyConfig `json:"hotkey"`
	WhisperModel  string       `json:"whisper_model,omitempty"`
	VoskModel     string       `json:"vosk_model,omitempty"`
	Device        string       `json:"device,omitempty"`
	LLM           LLMConfig    `json:"llm"`
	Gemini        GeminiConfig `json:"gemini"`
	ImageAPI      string       `json:"image_api,omitempty"`
	ModelsDir     string       `json:"models_dir,omitempty"`
	LogLevel      string       `json:"log_level,omitempty"`
}

func defaults() configData {
	return configData{
		Language:      "auto",
		UILanguage:    "ru",
		Notifications: true,
		Hotkey:        HotkeyConfig{Key: KeyGrave},
		WhisperModel:  "whisper-base-q5",
		VoskModel:     "vosk-en-us-small",
		LLM: LLMConfig{
			URL:   "http://localhost:11434",
			Model: "qwen3:0.6b",
		},
		Gemini: GeminiConfig{
			Model:          "models/gemini-2.0-flash-lite",
			MemoriesLength: 4,
			WordLimit:      150,
		},
		ImageAPI: "http://127.0.0.1:7860",
		LogLevel: "info",
	}
}

// Config хранит настройки приложения.
type Config struct {
	mu         sync.RWMutex
	data       configData
	configPath string
	log        *slog.Logger
}

// DefaultPath путь к config.json рядом с бинарником.
func DefaultPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(execPath), FileName)
}

// New загружает конфигурацию рядом с бинарником или создаёт настройки по умолчанию.
func New() *Config {
	return Open(DefaultPath())
}

// Open загружает конфигурацию из path. Пустой path - только значения по умолчанию.
func Open(path string) *Config {
	c := &Config{
		data:       defaults(),
		configPath: path,
		log:        logging.New("config"),
	}
	c.load()
	return c
}

// Path путь к файлу конфигурации.
func (c *Config) Path() string {
	return c.configPath
}

// load загружает конфигурацию из файла поверх значений по умолчанию.
func (c *Config) load() {
	if c.configPath == "" {
		return
	}

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return // Файл не существует, используем defaults
	}

	cfg := defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		c.log.Warn("повреждённый файл конфигурации, используются значения по умолчанию", "path", c.configPath, "error", err)
		return
	}
	if cfg.Hotkey.Key == "" {
		cfg.Hotkey = defaults().Hotkey
	}
	c.data = cfg
}

// save сохраняет конфигурацию в файл. Вызывается под c.mu.
func (c *Config) save() {
	if c.configPath == "" {
		return
	}

	data, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return
	}

	if err := os.WriteFile(c.configPath, data, 0o644); err != nil {
		c.log.Warn("не удалось сохранить конфигурацию", "path", c.configPath, "error", err)
	}
}

func (c *Config) update(fn func(d *configData)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.data)
	c.save()
}

func (c *Config) read() configData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// Language возвращает язык распознавания.
func (c *Config) Language() string { return c.read().Language }

// SetLanguage устанавливает язык распознавания.
func (c *Config) SetLanguage(lang string) {
	c.update(func(d *configData) { d.Language = lang })
}

// UILanguage возвращает язык интерфейса.
func (c *Config) UILanguage() string { return c.read().UILanguage }

// SetUILanguage устанавливает язык интерфейса.
func (c *Config) SetUILanguage(lang string) {
	c.update(func(d *configData) { d.UILanguage = lang })
}

// NotificationsEnabled возвращает true если уведомления включены.
func (c *Config) NotificationsEnabled() bool { return c.read().Notifications }

// SetNotifications включает/выключает уведомления.
func (c *Config) SetNotifications(enabled bool) {
	c.update(func(d *configData) { d.Notifications = enabled })
}

// ToggleNotifications переключает состояние уведомлений.
func (c *Config) ToggleNotifications() bool {
	var v bool
	c.update(func(d *configData) {
		d.Notifications = !d.Notifications
		v = d.Notifications
	})
	return v
}

// Hotkey возвращает горячую клавишу голосового ввода и записи.
func (c *Config) Hotkey() HotkeyConfig { return c.read().Hotkey }

// SetHotkey устанавливает горячую клавишу.
func (c *Config) SetHotkey(hk HotkeyConfig) {
	c.update(func(d *configData) { d.Hotkey = hk })
}

// WhisperModel возвращает ID модели Whisper.
func (c *Config) WhisperModel() string { return c.read().WhisperModel }

// SetWhisperModel устанавливает ID модели Whisper.
func (c *Config) SetWhisperModel(id string) {
	c.update(func(d *configData) { d.WhisperModel = id })
}

// VoskModel возвращает ID модели Vosk.
func (c *Config) VoskModel() string { return c.read().VoskModel }

// Device предпочитаемое устройство ("cuda", "cpu" или пусто).
func (c *Config) Device() string { return c.read().Device }

// SetDevice устанавливает предпочитаемое устройство.
func (c *Config) SetDevice(dev string) {
	c.update(func(d *configData) { d.Device = dev })
}

// LLM возвращает настройки Ollama. OLLAMA_HOST имеет приоритет над файлом.
func (c *Config) LLM() LLMConfig {
	cfg := c.read().LLM
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		cfg.URL = host
	}
	return cfg
}

// SetLLM устанавливает настройки Ollama.
func (c *Config) SetLLM(cfg LLMConfig) {
	c.update(func(d *configData) { d.LLM = cfg })
}

// Gemini возвращает настройки Gemini.
func (c *Config) Gemini() GeminiConfig { return c.read().Gemini }

// SetGemini устанавливает настройки Gemini.
func (c *Config) SetGemini(cfg GeminiConfig) {
	c.update(func(d *configData) { d.Gemini = cfg })
}

// ImageAPI адрес Stable Diffusion WebUI.
func (c *Config) ImageAPI() string { return c.read().ImageAPI }

// ModelsDir каталог моделей. FREEAI_MODELS_DIR имеет приоритет.
func (c *Config) ModelsDir() string {
	if dir := os.Getenv("FREEAI_MODELS_DIR"); dir != "" {
		return dir
	}
	return c.read().ModelsDir
}

// LogLevel уровень логирования. FREEAI_LOG_LEVEL имеет приоритет.
func (c *Config) LogLevel() string {
	if lvl := os.Getenv("FREEAI_LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return c.read().LogLevel
}

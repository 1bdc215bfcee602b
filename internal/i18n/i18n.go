// Package i18n provides internationalization support.
package i18n

import (
	"fmt"
	"sync"
)

// Language represents a UI language.
type Language string

const (
	RU Language = "ru"
	EN Language = "en"
)

var (
	mu      sync.RWMutex
	current = RU // Default language
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	RU: {
		// App
		"app_name":    "freeai-utils",
		"app_tooltip": "freeai-utils - набор обёрток для бесплатных AI-моделей",
		"app_error":   "Ошибка: %v",

		// Setup
		"setup_confirm":   "Будут скачаны модели группы %s (%s), около %s. Это может занять много времени. Продолжить?",
		"setup_cancelled": "Загрузка отменена.",
		"setup_model":     "Загрузка %s",
		"setup_skip":      "%s уже скачана",
		"setup_done":      "Все модели группы %s скачаны.",
		"setup_failed":    "Не удалось скачать %s: %v",

		// Clean
		"clean_confirm_V":     "Удалить только модели Vosk?",
		"clean_confirm_ICF":   "Удалить только файлы safetensors?",
		"clean_confirm_A":     "Удалить всё (Vosk + safetensors)?",
		"clean_confirm_all":   "Будут удалены все скачанные файлы с civitai и модели Vosk.\nИспользуйте перед удалением программы.\nПродолжить?",
		"clean_cancelled":     "Очистка отменена.",
		"clean_unknown":       "Неизвестная цель '%s'. Допустимые значения: '', 'V', 'ICF', 'A'",
		"clean_progress_all":  "Очистка: модели Vosk и файлы safetensors...",
		"clean_progress_V":    "Очистка: только модели Vosk...",
		"clean_progress_ICF":  "Очистка: только файлы safetensors...",
		"clean_removed_files": "Удалено файлов %s: %d",
		"clean_removed_dir":   "Удалён каталог %s",

		// Secret key
		"secret_invalid_action": "Неизвестное действие. Допустимо 'add', 'remove' или 'read'.",
		"secret_requires_arg":   "Действию '%s' нужен ключ или пара ключ=значение.",
		"secret_reading":        "Чтение файла .env: %s",
		"secret_new_file":       "Файл .env не найден в %s. Будет создан новый.",
		"secret_no_file":        "Файл .env не найден в %s. Невозможно удалить ключ '%s'.",
		"secret_content_header": "\n--- Содержимое файла .env ---\n",
		"secret_content_footer": "----------------------------------------------",
		"secret_added":          "Добавлен новый ключ `%s` в .env.",
		"secret_updated":        "Обновлён ключ `%s` в .env.",
		"secret_removed":        "Удалён ключ `%s` из .env.",
		"secret_not_found":      "Предупреждение: ключ `%s` не найден в .env. Ничего не изменено.",
		"secret_written":        "Изменения записаны в файл .env",
		"secret_unchanged":      "Файл .env не изменился.",

		// Install deps
		"deps_invalid":   "Ошибка: неизвестная группа зависимостей '%s'.",
		"deps_available": "   Доступные группы: %s",
		"deps_ok":        "%-10s найден: %s",
		"deps_missing":   "%-10s не найден. %s",
		"deps_all_ok":    "Все зависимости группы '%s' установлены.",
		"deps_some_miss": "Не хватает зависимостей: %d. Установите их и повторите.",

		// Code helper
		"helper_need_key": "Нужен ключ Gemini API: передайте его аргументом или выполните 'freeai-utils secret-key add GEMINI_API_KEY=...'",
		"helper_started":  "Нажмите %s, чтобы отправить снимок экрана в Gemini. Ctrl+C для выхода.",
		"helper_busy":     "Предыдущий вопрос ещё обрабатывается",
		"helper_prompt":   "Введите ключ Gemini API",
		"helper_save_key": "Сохранить ключ в %s?",

		// Dictation
		"dictate_started": "Нажмите %s, чтобы начать запись, и ещё раз, чтобы остановить. Ctrl+C для выхода.",

		// Notifications
		"notify_thinking":   "Отправляю снимок...",
		"notify_copied":     "Ответ скопирован",
		"notify_empty":      "Пустой ответ",
		"notify_error":      "Ошибка",
		"notify_transcript": "Распознано",

		// Models
		"models_header":     "Модели (%s):",
		"models_downloaded": "скачана",
		"models_missing":    "не скачана",

		// Record
		"record_saved":  "Запись сохранена: %s (%s)",
		"record_toggle": "Нажмите %s, чтобы остановить запись.",

		// Config
		"config_saved":   "Параметр %s сохранён.",
		"config_unknown": "Неизвестный параметр '%s'. Доступные: %s",
		"config_path":    "Файл настроек: %s",
	},

	EN: {
		// App
		"app_name":    "freeai-utils",
		"app_tooltip": "freeai-utils - wrappers around free AI models",
		"app_error":   "Error: %v",

		// Setup
		"setup_confirm":   "This will download the %s models (%s), about %s. The process can take a significant amount of time. Proceed?",
		"setup_cancelled": "Download cancelled.",
		"setup_model":     "Downloading %s",
		"setup_skip":      "%s is already downloaded",
		"setup_done":      "All %s models are downloaded.",
		"setup_failed":    "Failed to download %s: %v",

		// Clean
		"clean_confirm_V":     "Are you sure you want to remove only the Vosk model files?",
		"clean_confirm_ICF":   "Are you sure you want to remove only the safetensors files?",
		"clean_confirm_A":     "Are you sure you want to remove everything (Vosk + safetensors)?",
		"clean_confirm_all":   "This will remove all downloaded files from civitai and the Vosk model.\nUse this before uninstalling.\nAre you sure you want to proceed?",
		"clean_cancelled":     "Clean up cancelled.",
		"clean_unknown":       "Unknown target '%s'. Valid options are: '', 'V', 'ICF', 'A'",
		"clean_progress_all":  "Cleaning: Vosk model and safetensors files...",
		"clean_progress_V":    "Cleaning: Vosk model files only...",
		"clean_progress_ICF":  "Cleaning: extra safetensors files only...",
		"clean_removed_files": "Removed %s files: %d",
		"clean_removed_dir":   "Removed directory %s",

		// Secret key
		"secret_invalid_action": "Invalid action. Must be 'add', 'remove', or 'read'.",
		"secret_requires_arg":   "Action '%s' requires a key or key=value pair.",
		"secret_reading":        "Reading from existing .env file at %s",
		"secret_new_file":       "Note: .env file not found at %s. A new one will be created.",
		"secret_no_file":        ".env file not found at %s. Cannot remove key '%s'.",
		"secret_content_header": "\n--- Content of .env file ---\n",
		"secret_content_footer": "----------------------------------------------",
		"secret_added":          "Added new key `%s` to .env.",
		"secret_updated":        "Updated key `%s` in .env.",
		"secret_removed":        "Removed key `%s` from .env.",
		"secret_not_found":      "Warning: Key `%s` was not found in .env. No action taken.",
		"secret_written":        "Successfully wrote updates to .env file",
		"secret_unchanged":      "No changes were made to the .env file.",

		// Install deps
		"deps_invalid":   "Error: Invalid dependency group '%s'.",
		"deps_available": "   Available groups: %s",
		"deps_ok":        "%-10s found: %s",
		"deps_missing":   "%-10s missing. %s",
		"deps_all_ok":    "All '%s' dependencies are installed.",
		"deps_some_miss": "%d dependencies are missing. Install them and try again.",

		// Code helper
		"helper_need_key": "Require secret key for gemini api: pass it as an argument or run 'freeai-utils secret-key add GEMINI_API_KEY=...'",
		"helper_started":  "Press %s to send a screenshot to Gemini. Ctrl+C to quit.",
		"helper_busy":     "Previous question is still being processed",
		"helper_prompt":   "Enter your Gemini API key",
		"helper_save_key": "Save the key to %s?",

		// Dictation
		"dictate_started": "Press %s to start recording and again to stop. Ctrl+C to exit.",

		// Notifications
		"notify_thinking":   "Sending screenshot...",
		"notify_copied":     "Answer copied",
		"notify_empty":      "Empty answer",
		"notify_error":      "Error",
		"notify_transcript": "Transcribed",

		// Models
		"models_header":     "Models (%s):",
		"models_downloaded": "downloaded",
		"models_missing":    "not downloaded",

		// Record
		"record_saved":  "Recording saved: %s (%s)",
		"record_toggle": "Press %s to stop recording.",

		// Config
		"config_saved":   "Setting %s saved.",
		"config_unknown": "Unknown setting '%s'. Available: %s",
		"config_path":    "Settings file: %s",
	},
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if strings, ok := translations[current]; ok {
		if s, ok := strings[key]; ok {
			return s
		}
	}
	// Fallback to key itself
	return key
}

// Tf formats the translation for the given key.
func Tf(key string, args ...any) string {
	return fmt.Sprintf(T(key), args...)
}

// SetLanguage sets the current UI language.
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	current = lang
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Parse returns the language for s, or the current one when s is unknown.
func Parse(s string) Language {
	for _, l := range AvailableLanguages() {
		if string(l) == s {
			return l
		}
	}
	return GetLanguage()
}

// AvailableLanguages returns list of supported languages.
func AvailableLanguages() []Language {
	return []Language{RU, EN}
}

// LanguageName returns display name for a language.
func LanguageName(lang Language) string {
	switch lang {
	case RU:
		return "Русский"
	case EN:
		return "English"
	default:
		return string(lang)
	}
}

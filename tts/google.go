// Package tts озвучивает текст через Google Translate TTS или локальный espeak.
package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/logging"
)

// DefaultTTSURL адрес синтеза речи Google Translate.
const DefaultTTSURL = "https://translate.google.com/translate_tts"

// MaxChunk ограничение длины одного запроса к синтезу.
const MaxChunk = 100

var languages = map[string]string{
	"af": "Afrikaans", "ar": "Arabic", "bg": "Bulgarian", "bn": "Bengali", "ca": "Catalan",
	"cs": "Czech", "da": "Danish", "de": "German", "el": "Greek", "en": "English",
	"es": "Spanish", "et": "Estonian", "fi": "Finnish", "fr": "French", "gu": "Gujarati",
	"hi": "Hindi", "hr": "Croatian", "hu": "Hungarian", "id": "Indonesian", "is": "Icelandic",
	"it": "Italian", "iw": "Hebrew", "ja": "Japanese", "jw": "Javanese", "km": "Khmer",
	"kn": "Kannada", "ko": "Korean", "la": "Latin", "lv": "Latvian", "ml": "Malayalam",
	"mr": "Marathi", "ms": "Malay", "my": "Myanmar (Burmese)", "ne": "Nepali", "nl": "Dutch",
	"no": "Norwegian", "pl": "Polish", "pt": "Portuguese", "ro": "Romanian", "ru": "Russian",
	"si": "Sinhala", "sk": "Slovak", "sq": "Albanian", "sr": "Serbian", "su": "Sundanese",
	"sv": "Swedish", "sw": "Swahili", "ta": "Tamil", "te": "Telugu", "th": "Thai",
	"tl": "Filipino", "tr": "Turkish", "uk": "Ukrainian", "ur": "Urdu", "vi": "Vietnamese",
	"zh-CN": "Chinese (Simplified)", "zh-TW": "Chinese (Traditional)", "zh": "Chinese (Mandarin)",
}

// SupportedLanguages возвращает копию таблицы код -> название языка.
func SupportedLanguages() map[string]string {
	out := make(map[string]string, len(languages))
	for k, v := range languages {
		out[k] = v
	}
	return out
}

// PrintSupportedLanguages печатает таблицу языков в w, отсортированную по коду.
func PrintSupportedLanguages(w io.Writer) {
	codes := make([]string, 0, len(languages))
	for code := range languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fmt.Fprintln(w, "Supported languages by gTTS:")
	for _, code := range codes {
		fmt.Fprintf(w, "%s: %s\n", code, languages[code])
	}
}

// Google синтезирует речь через Google Translate.
type Google struct {
	// Dir куда сохраняются временные mp3.
	Dir string
	// Play проигрывает файл. По умолчанию PlayFile.
	Play func(ctx context.Context, path string) error

	client  *resty.Client
	url     string
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewGoogle создаёт синтезатор, сохраняющий файлы в dir.
func NewGoogle(dir string) *Google {
	return &Google{
		Dir:  dir,
		Play: PlayFile,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", "Mozilla/5.0").
			SetHeader("Referer", "http://translate.google.com/"),
		url:     DefaultTTSURL,
		limiter: rate.NewLimiter(rate.Limit(5), 1),
		log:     logging.New("tts"),
	}
}

// SetURL меняет адрес синтеза (используется для зеркал и тестов).
func (g *Google) SetURL(u string) {
	g.url = u
}

// Synthesize возвращает mp3 для текста на языке lang.
func (g *Google) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if err := guard.NotEmpty("text", text); err != nil {
		return nil, err
	}
	if _, ok := languages[lang]; !ok {
		return nil, fmt.Errorf("%w: язык %q не поддерживается", guard.ErrInvalidArgument, lang)
	}

	chunks := SplitChunks(text, MaxChunk)
	var out bytes.Buffer
	for i, chunk := range chunks {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := g.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"ie":      "UTF-8",
				"q":       chunk,
				"tl":      lang,
				"client":  "tw-ob",
				"total":   strconv.Itoa(len(chunks)),
				"idx":     strconv.Itoa(i),
				"textlen": strconv.Itoa(utf8.RuneCountInString(chunk)),
			}).
			Get(g.url)
		if err != nil {
			return nil, fmt.Errorf("запрос синтеза: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("синтез речи: статус %d", resp.StatusCode())
		}
		out.Write(resp.Body())
	}
	return out.Bytes(), nil
}

// Save синтезирует речь в файл path.
func (g *Google) Save(ctx context.Context, text, lang, path string) error {
	data, err := g.Synthesize(ctx, text, lang)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Speak озвучивает текст: сохраняет временный mp3, проигрывает и удаляет его.
// Возвращает путь временного файла.
func (g *Google) Speak(ctx context.Context, text, lang string) (string, error) {
	dir := g.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, uuid.NewString()+".mp3")

	if err := g.Save(ctx, text, lang, path); err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			g.log.Warn("не удалось удалить файл", "path", path, "error", err)
		}
	}()

	if g.Play != nil {
		if err := g.Play(ctx, path); err != nil {
			return path, fmt.Errorf("воспроизведение: %w", err)
		}
	}
	return path, nil
}

// SplitChunks делит текст на части не длиннее max символов по границам слов.
// Слово длиннее max режется.
func SplitChunks(text string, max int) []string {
	var chunks []string
	var cur []rune

	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			chunks = append(chunks, s)
		}
		cur = cur[:0]
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > max {
			flush()
			chunks = append(chunks, string(w[:max]))
			w = w[max:]
		}
		extra := len(w)
		if len(cur) > 0 {
			extra++
		}
		if len(cur)+extra > max {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	flush()
	return chunks
}

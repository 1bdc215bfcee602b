// Package ocr распознаёт текст на изображениях и снимках экрана через Tesseract.
package ocr

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/logging"
	"github.com/freeai-utils/freeai-utils/screen"
)

// DefaultLanguages вьетнамский и английский.
var DefaultLanguages = []string{"vi", "en"}

var tessCodes = map[string]string{
	"af": "afr", "ar": "ara", "be": "bel", "bg": "bul", "bn": "ben", "cs": "ces",
	"da": "dan", "de": "deu", "en": "eng", "es": "spa", "et": "est", "fa": "fas",
	"fr": "fra", "hi": "hin", "hr": "hrv", "hu": "hun", "id": "ind", "it": "ita",
	"ja": "jpn", "ko": "kor", "lt": "lit", "lv": "lav", "nl": "nld", "no": "nor",
	"pl": "pol", "pt": "por", "ro": "ron", "ru": "rus", "sk": "slk", "sl": "slv",
	"sv": "swe", "th": "tha", "tr": "tur", "uk": "ukr", "vi": "vie",
	"ch_sim": "chi_sim", "ch_tra": "chi_tra",
}

// TesseractLanguages переводит короткие коды (vi, en) в коды Tesseract (vie, eng).
// Коды, которые уже в формате Tesseract, проходят без изменений.
func TesseractLanguages(langs []string) ([]string, error) {
	if len(langs) == 0 {
		return nil, fmt.Errorf("%w: список языков пуст", guard.ErrInvalidArgument)
	}
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		l = strings.TrimSpace(l)
		if code, ok := tessCodes[l]; ok {
			out = append(out, code)
			continue
		}
		if len(l) == 3 || strings.Contains(l, "_") {
			out = append(out, l)
			continue
		}
		return nil, fmt.Errorf("%w: язык %q не поддерживается", guard.ErrInvalidArgument, l)
	}
	return out, nil
}

// Detection одно распознанное слово.
type Detection struct {
	Box        image.Rectangle
	Text       string
	Confidence float64
}

// Joined склеивает распознанные слова через пробел.
func Joined(ds []Detection) string {
	words := make([]string, 0, len(ds))
	for _, d := range ds {
		if t := strings.TrimSpace(d.Text); t != "" {
			words = append(words, t)
		}
	}
	return strings.Join(words, " ")
}

// Extractor распознаёт текст. Tesseract работает только на CPU.
type Extractor struct {
	mu        sync.Mutex
	client    *gosseract.Client
	languages []string
	region    screen.Rect
	device    device.Device
	log       *slog.Logger
}

// New создаёт распознаватель. tessdata каталог с *.traineddata, пустой означает системный.
func New(languages []string, preferred, tessdata string) (*Extractor, error) {
	if languages == nil {
		languages = DefaultLanguages
	}
	codes, err := TesseractLanguages(languages)
	if err != nil {
		return nil, err
	}

	log := logging.New("ocr")
	if device.Device(preferred).IsCUDA() {
		log.Info("Tesseract не поддерживает CUDA, используется CPU")
	}

	client := gosseract.NewClient()
	if tessdata != "" {
		if _, err := os.Stat(tessdata); err == nil {
			if err := client.SetTessdataPrefix(tessdata); err != nil {
				client.Close()
				return nil, fmt.Errorf("tessdata: %w", err)
			}
		}
	}
	if err := client.SetLanguage(codes...); err != nil {
		client.Close()
		return nil, fmt.Errorf("языки OCR: %w", err)
	}

	e := &Extractor{
		client:    client,
		languages: codes,
		device:    device.CPU,
		log:       log,
	}
	if r, err := screen.PrimaryBounds(); err == nil {
		e.region = r
	} else {
		log.Warn("размер экрана неизвестен", "error", err)
	}
	log.Info("OCR инициализирован", "languages", strings.Join(codes, "+"))
	return e, nil
}

// Languages коды Tesseract.
func (e *Extractor) Languages() []string { return append([]string(nil), e.languages...) }

// Device всегда cpu.
func (e *Extractor) Device() device.Device { return e.device }

// CaptureRegion область снимка по умолчанию.
func (e *Extractor) CaptureRegion() screen.Rect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.region
}

// SetCaptureRegion меняет область по умолчанию.
func (e *Extractor) SetCaptureRegion(r screen.Rect) error {
	if err := r.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.region = r
	e.mu.Unlock()
	return nil
}

// CropCaptureRegion задаёт область отступами в процентах от краёв основного дисплея.
func (e *Extractor) CropCaptureRegion(left, right, up, down float64) (screen.Rect, error) {
	full, err := screen.PrimaryBounds()
	if err != nil {
		return screen.Rect{}, err
	}
	r, err := screen.Crop(full, left, right, up, down)
	if err != nil {
		return screen.Rect{}, err
	}
	return r, e.SetCaptureRegion(r)
}

// ReadImage распознаёт слова на изображении.
func (e *Extractor) ReadImage(path string) ([]Detection, error) {
	if err := guard.NotEmpty("image_path", path); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImage(path); err != nil {
		return nil, fmt.Errorf("загрузка изображения: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("распознавание: %w", err)
	}

	ds := make([]Detection, 0, len(boxes))
	for _, b := range boxes {
		ds = append(ds, Detection{Box: b.Box, Text: b.Word, Confidence: b.Confidence})
	}
	return ds, nil
}

// TextFromImage возвращает весь текст изображения одной строкой.
func (e *Extractor) TextFromImage(path string) (string, error) {
	ds, err := e.ReadImage(path)
	if err != nil {
		return "", err
	}
	return Joined(ds), nil
}

// ReadScreen снимает область (нулевая означает область по умолчанию) в imagePath
// и распознаёт её. Пустой imagePath даёт имя по времени в текущем каталоге.
func (e *Extractor) ReadScreen(region screen.Rect, imagePath string) ([]Detection, error) {
	if region == (screen.Rect{}) {
		region = e.CaptureRegion()
	}
	if imagePath == "" {
		imagePath = strconv.FormatInt(time.Now().UnixMilli()/100, 10) + ".png"
	}
	if err := screen.CaptureToPNG(imagePath, region); err != nil {
		return nil, err
	}
	return e.ReadImage(imagePath)
}

// TextFromScreen возвращает текст с экрана одной строкой.
func (e *Extractor) TextFromScreen(region screen.Rect, imagePath string) (string, error) {
	ds, err := e.ReadScreen(region, imagePath)
	if err != nil {
		return "", err
	}
	return Joined(ds), nil
}

// Close освобождает Tesseract.
func (e *Extractor) Close() error {
	return e.client.Close()
}

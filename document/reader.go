// Package document читает PDF и DOCX и ищет в них фрагменты, близкие к запросу.
package document

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/logging"
)

const (
	ExtPDF  = ".pdf"
	ExtDOCX = ".docx"

	// AllPages значение LastPage для чтения до конца документа.
	AllPages = -1
	// DefaultImageDir каталог для извлечённых изображений.
	DefaultImageDir = "extracted_images"
)

// ErrUnsupported формат файла не поддерживается.
var ErrUnsupported = errors.New("неподдерживаемый тип файла")

// Pages диапазон страниц с нуля, Last включительно. Для DOCX не используется.
type Pages struct {
	First int
	Last  int
}

// Validate проверяет диапазон.
func (p Pages) Validate() error {
	if err := guard.NonNegative("first_page", p.First); err != nil {
		return err
	}
	if p.Last < AllPages {
		return fmt.Errorf("%w: 'last_page' должен быть >= -1, получено %d", guard.ErrInvalidArgument, p.Last)
	}
	return nil
}

// span переводит диапазон в полуинтервал [from, to) с учётом числа страниц.
func (p Pages) span(total int) (from, to int) {
	to = total
	if p.Last != AllPages && p.Last+1 < total {
		to = p.Last + 1
	}
	from = p.First
	if from > to {
		from = to
	}
	return from, to
}

// Ext возвращает расширение поддерживаемого файла в нижнем регистре.
func Ext(path string) (string, error) {
	if err := guard.NotEmpty("file_path", path); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ExtPDF && ext != ExtDOCX {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	return ext, nil
}

// Reader читает текст и изображения из PDF и DOCX.
type Reader struct {
	pages Pages
	log   *slog.Logger
}

// NewReader создаёт читатель с диапазоном страниц по умолчанию.
func NewReader(pages Pages) (*Reader, error) {
	if err := pages.Validate(); err != nil {
		return nil, err
	}
	return &Reader{pages: pages, log: logging.New("document")}, nil
}

// Pages диапазон по умолчанию.
func (r *Reader) Pages() Pages { return r.pages }

// AllText извлекает весь текст в диапазоне по умолчанию.
func (r *Reader) AllText(path string) (string, error) {
	return r.AllTextRange(path, r.pages)
}

// AllTextRange извлекает текст одной строкой. DOCX: сначала абзацы, затем ячейки таблиц.
func (r *Reader) AllTextRange(path string, pages Pages) (string, error) {
	ext, err := Ext(path)
	if err != nil {
		return "", err
	}
	if err := pages.Validate(); err != nil {
		return "", err
	}
	r.log.Debug("тип файла", "ext", ext, "path", path)

	if ext == ExtDOCX {
		blocks, err := readDocx(path)
		if err != nil {
			return "", err
		}
		return docxAllText(blocks), nil
	}
	return pdfPlainText(path, pages)
}

// OrderedText извлекает текст с сохранением порядка строк в диапазоне по умолчанию.
func (r *Reader) OrderedText(path string) (string, error) {
	return r.OrderedTextRange(path, r.pages)
}

// OrderedTextRange PDF читается построчно, DOCX в порядке тела документа
// (строки таблиц склеиваются табуляцией). При ошибке используется AllTextRange.
func (r *Reader) OrderedTextRange(path string, pages Pages) (string, error) {
	ext, err := Ext(path)
	if err != nil {
		return "", err
	}
	if err := pages.Validate(); err != nil {
		return "", err
	}

	var text string
	if ext == ExtDOCX {
		var blocks []block
		if blocks, err = readDocx(path); err == nil {
			text = docxOrderedText(blocks)
		}
	} else {
		text, err = pdfRowText(path, pages)
	}
	if err != nil {
		r.log.Warn("не удалось сохранить порядок, читаем весь текст", "path", path, "error", err)
		return r.AllTextRange(path, pages)
	}
	return text, nil
}

// ExtractImages сохраняет изображения документа в dir и возвращает их количество.
func (r *Reader) ExtractImages(path, dir string) (int, error) {
	return r.ExtractImagesRange(path, dir, r.pages)
}

// ExtractImagesRange как ExtractImages с явным диапазоном страниц.
func (r *Reader) ExtractImagesRange(path, dir string, pages Pages) (int, error) {
	ext, err := Ext(path)
	if err != nil {
		return 0, err
	}
	if err := pages.Validate(); err != nil {
		return 0, err
	}
	if dir == "" {
		dir = DefaultImageDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	var n int
	if ext == ExtDOCX {
		n, err = docxImages(path, dir)
	} else {
		n, err = pdfImages(path, dir, pages)
	}
	if err != nil {
		return n, err
	}
	r.log.Info("изображения извлечены", "path", path, "dir", dir, "count", n)
	return n, nil
}

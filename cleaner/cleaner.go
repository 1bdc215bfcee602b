// Package cleaner удаляет временные файлы по расширению.
package cleaner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/logging"
)

// Cleaner удаляет файлы внутри одного каталога.
type Cleaner struct {
	dir string
	log *slog.Logger
}

// New создаёт Cleaner для существующего каталога.
func New(dir string) (*Cleaner, error) {
	if err := guard.NotEmpty("directory", dir); err != nil {
		return nil, err
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("каталог не существует: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s не является каталогом", dir)
	}
	return &Cleaner{dir: dir, log: logging.New("cleaner")}, nil
}

// Dir каталог очистки.
func (c *Cleaner) Dir() string {
	return c.dir
}

// RemoveAllWithExt рекурсивно удаляет файлы с расширением ext (без учёта регистра).
// Возвращает пути удалённых файлов через '/' и их количество.
func (c *Cleaner) RemoveAllWithExt(ext string) ([]string, int, error) {
	if err := guard.Extension("ends_with", ext); err != nil {
		return nil, 0, err
	}
	ext = strings.ToLower(ext)

	var removed []string
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ext) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("удаление %s: %w", path, err)
		}
		removed = append(removed, filepath.ToSlash(path))
		return nil
	})
	if len(removed) > 0 {
		c.log.Info("файлы удалены", "ext", ext, "count", len(removed))
	}
	return removed, len(removed), err
}

// Package clipboard копирует текст в системный буфер обмена.
package clipboard

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// ErrUnavailable нет ни нативного буфера, ни утилит wl-copy/xclip.
var ErrUnavailable = errors.New("буфер обмена недоступен")

func ensureInit() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
	})
	return initErr
}

// Copy помещает текст в буфер обмена.
// Если нативный буфер не инициализировался (например, чистый Wayland),
// используются wl-copy или xclip.
func Copy(text string) error {
	err := ensureInit()
	if err == nil {
		clipboard.Write(clipboard.FmtText, []byte(text))
		return nil
	}

	cmd := fallbackCommand(os.Getenv("WAYLAND_DISPLAY") != "", exec.LookPath)
	if cmd == nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c := exec.Command(cmd[0], cmd[1:]...)
	c.Stdin = strings.NewReader(text)
	if err := c.Run(); err != nil {
		return fmt.Errorf("%s: %w", cmd[0], err)
	}
	return nil
}

// Paste читает текст из буфера обмена.
func Paste() (string, error) {
	if err := ensureInit(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// fallbackCommand подбирает внешнюю утилиту копирования.
func fallbackCommand(wayland bool, lookPath func(string) (string, error)) []string {
	candidates := [][]string{
		{"xclip", "-selection", "clipboard"},
		{"xsel", "--clipboard", "--input"},
	}
	if wayland {
		candidates = append([][]string{{"wl-copy"}}, candidates...)
	}
	for _, c := range candidates {
		if _, err := lookPath(c[0]); err == nil {
			return c
		}
	}
	return nil
}

// Package input вводит распознанный текст в активное поле ввода.
package input

import "errors"

// ErrNoTyper в системе нет способа эмулировать ввод.
var ErrNoTyper = errors.New("не найдена утилита ввода текста (wtype, ydotool или xdotool)")

// Typer вводит текст в активное поле ввода.
type Typer interface {
	// Type вводит текст в текущее активное поле.
	Type(text string) error
	// Name название механизма ввода для логов.
	Name() string
}

// New создаёт платформо-специфичный Typer.
func New() (Typer, error) {
	return newTyper()
}

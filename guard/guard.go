// Package guard проверяет аргументы до того, как они попадут в обёртки.
package guard

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument возвращается при недопустимом значении аргумента.
var ErrInvalidArgument = errors.New("недопустимый аргумент")

func invalid(name, format string, args ...any) error {
	return fmt.Errorf("%w: '%s' %s", ErrInvalidArgument, name, fmt.Sprintf(format, args...))
}

// Positive проверяет что значение больше нуля.
func Positive[T ~int | ~int64 | ~float64](name string, v T) error {
	if v <= 0 {
		return invalid(name, "должен быть положительным, получено %v", v)
	}
	return nil
}

// NonNegative проверяет что значение не меньше нуля.
func NonNegative[T ~int | ~int64 | ~float64](name string, v T) error {
	if v < 0 {
		return invalid(name, "не может быть отрицательным, получено %v", v)
	}
	return nil
}

// NotEmpty проверяет что строка не пустая (без учёта пробелов).
func NotEmpty(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid(name, "не может быть пустым")
	}
	return nil
}

// OneOf проверяет что значение входит в список допустимых.
func OneOf[T ~string](name string, v T, allowed ...T) error {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		if v == a {
			return nil
		}
		names[i] = string(a)
	}
	return invalid(name, "должен быть одним из %s, получено %q", strings.Join(names, ", "), string(v))
}

// Extension проверяет строку расширения файла вида ".txt".
func Extension(name, v string) error {
	if len(v) < 2 || !strings.HasPrefix(v, ".") {
		return invalid(name, "должен быть расширением файла (например '.txt'), получено %q", v)
	}
	return nil
}

// Range проверяет что значение в диапазоне [lo, hi].
func Range[T ~int | ~float64](name string, v, lo, hi T) error {
	if v < lo || v > hi {
		return invalid(name, "должен быть в диапазоне [%v, %v], получено %v", lo, hi, v)
	}
	return nil
}

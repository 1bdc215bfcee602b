// Package envfile читает и редактирует .env файл с секретами.
package envfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/freeai-utils/freeai-utils/guard"
)

// FileName имя файла с секретами.
const FileName = ".env"

var (
	// ErrInvalidPair неверный формат KEY=VALUE или ключа.
	ErrInvalidPair = fmt.Errorf("%w: неверный формат", guard.ErrInvalidArgument)
	// ErrNotFound .env файл отсутствует.
	ErrNotFound = errors.New(".env файл не найден")
)

// Action что произошло с ключом.
type Action string

const (
	ActionAdded    Action = "added"
	ActionUpdated  Action = "updated"
	ActionRemoved  Action = "removed"
	ActionNotFound Action = "not_found"
)

// Result итог операции над .env.
type Result struct {
	Key     string
	Action  Action
	Created bool // файл был создан
	Written bool // файл был перезаписан
}

// ParsePair разбирает "KEY=VALUE": ровно один '=', без '#'.
func ParsePair(pair string) (key, value string, err error) {
	if strings.Contains(pair, "#") {
		return "", "", fmt.Errorf("%w: символ '#' запрещён", ErrInvalidPair)
	}
	if strings.Count(pair, "=") != 1 {
		return "", "", fmt.Errorf("%w: ожидается 'KEY=VALUE', получено %q", ErrInvalidPair, pair)
	}
	key, value, _ = strings.Cut(pair, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", fmt.Errorf("%w: пустой ключ", ErrInvalidPair)
	}
	return key, strings.TrimSpace(value), nil
}

// ParseKey проверяет имя ключа для удаления.
func ParseKey(s string) (string, error) {
	if strings.Contains(s, "#") {
		return "", fmt.Errorf("%w: символ '#' запрещён", ErrInvalidPair)
	}
	key := strings.TrimSpace(s)
	if key == "" || strings.Contains(key, "=") {
		return "", fmt.Errorf("%w: для удаления нужен только ключ (например 'API_KEY'), получено %q", ErrInvalidPair, s)
	}
	return key, nil
}

// readLines читает файл построчно, сохраняя переводы строк.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return strings.SplitAfter(string(data), "\n"), nil
}

func lineKey(line string) (string, bool) {
	stripped := strings.TrimSpace(line)
	if stripped == "" || !strings.Contains(stripped, "=") {
		return "", false
	}
	k, _, _ := strings.Cut(stripped, "=")
	return strings.TrimSpace(k), true
}

func trimEmptyTail(lines []string) []string {
	if n := len(lines); n > 0 && lines[n-1] == "" {
		return lines[:n-1]
	}
	return lines
}

func equal(a, b []string) bool {
	return strings.Join(a, "") == strings.Join(b, "")
}

func write(path string, lines []string) error {
	if err := os.WriteFile(path, []byte(strings.Join(lines, "")), 0o600); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	return nil
}

// Add добавляет или обновляет KEY=VALUE. Остальные строки сохраняются как есть.
func Add(path, pair string) (Result, error) {
	key, value, err := ParsePair(pair)
	if err != nil {
		return Result{}, err
	}
	newLine := key + "=" + value + "\n"

	res := Result{Key: key}
	lines, err := readLines(path)
	if errors.Is(err, os.ErrNotExist) {
		res.Created = true
	} else if err != nil {
		return Result{}, err
	}
	lines = trimEmptyTail(lines)

	updated := make([]string, 0, len(lines)+2)
	found := false
	for _, line := range lines {
		if k, ok := lineKey(line); ok && k == key {
			found = true
			updated = append(updated, newLine)
			continue
		}
		updated = append(updated, line)
	}

	if found {
		res.Action = ActionUpdated
	} else {
		res.Action = ActionAdded
		if n := len(updated); n > 0 && !strings.HasSuffix(updated[n-1], "\n") {
			updated[n-1] += "\n"
		}
		updated = append(updated, newLine)
	}

	if !found || !equal(lines, updated) {
		if err := write(path, updated); err != nil {
			return res, err
		}
		res.Written = true
	}
	return res, nil
}

// Remove удаляет ключ. Отсутствие ключа не ошибка: Action = ActionNotFound.
func Remove(path, key string) (Result, error) {
	key, err := ParseKey(key)
	if err != nil {
		return Result{}, err
	}
	lines, err := readLines(path)
	if errors.Is(err, os.ErrNotExist) {
		return Result{}, fmt.Errorf("%w: %s, нельзя удалить ключ '%s'", ErrNotFound, path, key)
	} else if err != nil {
		return Result{}, err
	}
	lines = trimEmptyTail(lines)

	res := Result{Key: key, Action: ActionNotFound}
	updated := make([]string, 0, len(lines))
	for _, line := range lines {
		if k, ok := lineKey(line); ok && k == key {
			res.Action = ActionRemoved
			continue
		}
		updated = append(updated, line)
	}

	if res.Action == ActionRemoved {
		if err := write(path, updated); err != nil {
			return res, err
		}
		res.Written = true
	}
	return res, nil
}

// Read возвращает строки файла без пробелов по краям.
func Read(path string) ([]string, error) {
	lines, err := readLines(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	} else if err != nil {
		return nil, err
	}
	lines = trimEmptyTail(lines)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out, nil
}

// Get читает значение ключа из файла.
func Get(path, key string) (string, bool, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Load загружает существующие файлы в окружение, не перезаписывая уже заданные переменные.
func Load(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

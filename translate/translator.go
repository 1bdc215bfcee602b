package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/logging"
)

// Engine движок перевода.
type Engine interface {
	Name() string
	Translate(ctx context.Context, text, src, dest string) (string, error)
}

// LocalStatus роль локального переводчика.
type LocalStatus string

const (
	// LocalActive переводить только локально.
	LocalActive LocalStatus = "active"
	// LocalInactive переводить только через Google.
	LocalInactive LocalStatus = "inactive"
	// LocalBackup Google, при ошибке локальная модель.
	LocalBackup LocalStatus = "backup"
)

// ParseLocalStatus проверяет значение.
func ParseLocalStatus(s string) (LocalStatus, error) {
	st := LocalStatus(s)
	if err := guard.OneOf("local_status", st, LocalActive, LocalInactive, LocalBackup); err != nil {
		return "", err
	}
	return st, nil
}

// Translator переводит через Google с локальной моделью как основным или запасным движком.
type Translator struct {
	remote Engine
	local  Engine
	status LocalStatus
	log    *slog.Logger
}

// NewTranslator собирает переводчик. local может быть nil только при LocalInactive.
func NewTranslator(remote, local Engine, status LocalStatus) (*Translator, error) {
	if _, err := ParseLocalStatus(string(status)); err != nil {
		return nil, err
	}
	if status != LocalInactive && local == nil {
		return nil, fmt.Errorf("%w: для режима %q нужен локальный переводчик", guard.ErrInvalidArgument, status)
	}
	if status == LocalInactive {
		local = nil
	}
	if status != LocalActive && remote == nil {
		return nil, fmt.Errorf("%w: для режима %q нужен удалённый переводчик", guard.ErrInvalidArgument, status)
	}
	return &Translator{remote: remote, local: local, status: status, log: logging.New("translator")}, nil
}

// Status режим работы.
func (t *Translator) Status() LocalStatus { return t.status }

// HasLocal подключён ли локальный переводчик.
func (t *Translator) HasLocal() bool { return t.local != nil }

// Translate переводит text на dest с автоопределением исходного языка.
func (t *Translator) Translate(ctx context.Context, text, dest string) (string, error) {
	if t.status == LocalActive {
		return t.local.Translate(ctx, text, Auto, dest)
	}

	out, err := t.remote.Translate(ctx, text, Auto, dest)
	if err == nil || t.local == nil || errors.Is(err, guard.ErrInvalidArgument) {
		return out, err
	}
	t.log.Warn("удалённый перевод не удался, используется локальная модель", "engine", t.remote.Name(), "error", err)
	return t.local.Translate(ctx, text, Auto, dest)
}

// DetectLanguage код языка и уверенность.
func (t *Translator) DetectLanguage(text string) (string, float64, error) {
	d, err := Detect(text)
	if err != nil {
		return "", 0, err
	}
	return d.Lang, d.Confidence, nil
}

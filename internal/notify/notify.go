// Package notify показывает системные уведомления.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/freeai-utils/freeai-utils/internal/i18n"
	"github.com/freeai-utils/freeai-utils/logging"
)

// maxMessage длина текста уведомления в символах.
const maxMessage = 100

// Notifier отправляет системные уведомления.
type Notifier struct {
	enabled bool
	send    func(title, message, icon string) error
	log     *slog.Logger
}

// New создаёт Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled, send: beeep.Notify, log: logging.New("notify")}
}

// Thinking вопрос отправлен модели.
func (n *Notifier) Thinking() {
	n.notify(i18n.T("notify_thinking"), "")
}

// Copied ответ скопирован в буфер обмена.
func (n *Notifier) Copied(answer string) {
	n.notify(i18n.T("notify_copied"), answer)
}

// Transcribed результат распознавания речи.
func (n *Notifier) Transcribed(text string) {
	n.notify(i18n.T("notify_transcript"), text)
}

// Empty пустой ответ.
func (n *Notifier) Empty() {
	n.notify(i18n.T("notify_empty"), "")
}

// Error показывает уведомление об ошибке.
func (n *Notifier) Error(msg string) {
	n.notify(i18n.T("notify_error"), msg)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessage {
		return s
	}
	return string(r[:maxMessage]) + "..."
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled {
		return
	}
	// Ошибки уведомлений не критичны
	if err := n.send(i18n.T("app_name")+": "+title, truncate(message), ""); err != nil {
		n.log.Debug("уведомление не показано", "error", err)
	}
}

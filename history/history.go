// Package history хранит ограниченную историю диалога (вопрос/ответ).
package history

import (
	"strings"
	"sync"

	"github.com/freeai-utils/freeai-utils/guard"
)

// Turn один обмен репликами.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// History кольцевой буфер последних Max обменов.
type History struct {
	mu    sync.RWMutex
	turns []Turn
	max   int
}

// New создаёт историю на max обменов.
func New(max int) (*History, error) {
	if err := guard.NonNegative("memories_length", max); err != nil {
		return nil, err
	}
	return &History{max: max}, nil
}

// Add добавляет обмен, вытесняя самые старые.
func (h *History) Add(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.max == 0 {
		return
	}
	for len(h.turns) >= h.max {
		h.turns = h.turns[1:]
	}
	h.turns = append(h.turns, Turn{Question: question, Answer: answer})
}

// Turns возвращает копию истории, от старых к новым.
func (h *History) Turns() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len количество сохранённых обменов.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Max максимальная длина истории.
func (h *History) Max() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.max
}

// SetMax меняет длину истории. Лишние старые обмены удаляются.
func (h *History) SetMax(n int) error {
	if err := guard.NonNegative("memories_length", n); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.max = n
	if len(h.turns) > n {
		h.turns = append([]Turn(nil), h.turns[len(h.turns)-n:]...)
	}
	return nil
}

// Clear очищает историю.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}

// Prompt собирает промпт с предыдущим диалогом и новым вопросом.
func (h *History) Prompt(prompt string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Here's our previous conversation:\n")
	for _, t := range h.turns {
		b.WriteString("User: ")
		b.WriteString(t.Question)
		b.WriteString("\nAI: ")
		b.WriteString(t.Answer)
		b.WriteString("\n")
	}
	b.WriteString("Now, continue the conversation:\n")
	b.WriteString(prompt)
	return b.String()
}

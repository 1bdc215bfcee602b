package speech

import (
	"fmt"
	"sync"

	"github.com/freeai-utils/freeai-utils/models"
)

// Factory создаёт распознаватели по ID модели и переключает текущий.
type Factory struct {
	manager *models.Manager
	device  string
	current Recognizer
	modelID string
	mu      sync.RWMutex
}

// NewFactory создаёт фабрику. preferred - желаемое устройство для Whisper.
func NewFactory(manager *models.Manager, preferred string) *Factory {
	return &Factory{
		manager: manager,
		device:  preferred,
	}
}

// Create создаёт распознаватель для указанной модели.
func (f *Factory) Create(modelID string) (Recognizer, error) {
	info, ok := models.GetModel(modelID)
	if !ok {
		return nil, fmt.Errorf("модель не найдена: %s", modelID)
	}
	if info.Engine != models.EngineWhisper && info.Engine != models.EngineVosk {
		return nil, fmt.Errorf("модель %s не предназначена для распознавания речи", modelID)
	}

	modelPath := f.manager.GetModelPath(info)

	if !f.manager.IsDownloaded(info) {
		return nil, fmt.Errorf("модель не скачана: %s", info.Name)
	}

	var rec Recognizer
	var err error

	switch info.Engine {
	case models.EngineWhisper:
		rec, err = NewWhisperFromFile(modelPath, f.device, Options{})
	case models.EngineVosk:
		rec, err = NewVosk(modelPath)
	default:
		return nil, fmt.Errorf("неизвестный движок: %s", info.Engine)
	}

	if err != nil {
		return nil, fmt.Errorf("ошибка создания распознавателя: %w", err)
	}

	return rec, nil
}

// Load загружает модель и устанавливает её как текущую.
func (f *Factory) Load(modelID string) error {
	rec, err := f.Create(modelID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	old := f.current
	f.current = rec
	f.modelID = modelID
	f.mu.Unlock()

	if old != nil {
		old.Close()
	}

	return nil
}

// Current возвращает текущий распознаватель (thread-safe).
func (f *Factory) Current() Recognizer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// CurrentModelID возвращает ID текущей модели.
func (f *Factory) CurrentModelID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.modelID
}

// Close закрывает текущий распознаватель.
func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		f.current.Close()
		f.current = nil
	}
}

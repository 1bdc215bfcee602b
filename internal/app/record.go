package app

import (
	"context"
	"sync"

	"github.com/freeai-utils/freeai-utils/audio"
	"github.com/freeai-utils/freeai-utils/internal/config"
	"github.com/freeai-utils/freeai-utils/internal/hotkey"
	"github.com/freeai-utils/freeai-utils/logging"
)

// RecordToggle записывает, пока не будет нажата горячая клавиша hk.
// Обработчик клавиши только закрывает канал остановки, цикл записи проверяет его между блоками.
func RecordToggle(ctx context.Context, rec *audio.Recorder, hk config.HotkeyConfig, out string) (string, error) {
	log := logging.New("record")
	stop := make(chan struct{})
	var once sync.Once
	handler := hotkey.New(func() {
		once.Do(func() { close(stop) })
	})
	if err := handler.Register(hk); err != nil {
		return "", err
	}
	defer func() {
		if err := handler.Unregister(); err != nil {
			log.Warn("ошибка снятия горячей клавиши", "error", err)
		}
	}()

	log.Info("нажмите клавишу для остановки записи", "hotkey", hk.String())
	return rec.RecordUntil(ctx, stop, out)
}

// Package device выбирает устройство для загрузки модели с откатом на CPU.
package device

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Device идентификатор устройства: "cuda", "cuda:1", "cpu".
type Device string

const (
	CUDA Device = "cuda"
	CPU  Device = "cpu"
)

// ErrNoDevice возвращается когда модель не удалось загрузить ни на одном устройстве.
var ErrNoDevice = errors.New("не удалось загрузить модель ни на одном устройстве")

// IsCUDA возвращает true для "cuda" и "cuda:N".
func (d Device) IsCUDA() bool {
	return strings.HasPrefix(string(d), string(CUDA))
}

// cudaProbe можно подменить в тестах.
var cudaProbe = func() bool {
	if strings.EqualFold(os.Getenv("FREEAI_DEVICE"), string(CPU)) {
		return false
	}
	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		return true
	}
	_, err := exec.LookPath("nvidia-smi")
	return err == nil
}

// CUDAAvailable проверяет наличие драйвера NVIDIA.
func CUDAAvailable() bool {
	return cudaProbe()
}

// Candidates строит упорядоченный список устройств: сначала предпочтительное,
// затем cuda, затем cpu. Повторы отбрасываются.
func Candidates(preferred string) []Device {
	var out []Device
	add := func(d Device) {
		for _, x := range out {
			if x == d {
				return
			}
		}
		out = append(out, d)
	}
	if p := strings.TrimSpace(strings.ToLower(preferred)); p != "" {
		add(Device(p))
	}
	add(CUDA)
	add(CPU)
	return out
}

// Load пробует загрузить модель на каждом устройстве по порядку.
// CUDA устройства пропускаются если драйвер недоступен.
func Load[T any](log *slog.Logger, candidates []Device, load func(Device) (T, error)) (T, Device, error) {
	var zero T
	var lastErr error
	cuda := CUDAAvailable()

	for _, d := range candidates {
		if d.IsCUDA() && !cuda {
			log.Info("пропускаем устройство: CUDA недоступна", "device", d)
			continue
		}
		log.Info("загрузка модели", "device", d)
		v, err := load(d)
		if err != nil {
			log.Error("не удалось загрузить модель", "device", d, "err", err)
			lastErr = err
			continue
		}
		log.Info("модель загружена", "device", d)
		return v, d, nil
	}

	if lastErr == nil {
		lastErr = errors.New("нет подходящих устройств")
	}
	return zero, "", fmt.Errorf("%w %v: %w", ErrNoDevice, candidates, lastErr)
}

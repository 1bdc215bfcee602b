// Package pcm содержит вычисления над PCM-сэмплами: громкость, конвертация,
// детектор тишины и WAV-формат.
package pcm

import (
	"encoding/binary"
	"math"
	"time"
)

// MaxAmplitude максимальная амплитуда 16-битного сэмпла.
const MaxAmplitude = 32767

// RMS среднеквадратичная амплитуда 16-битных сэмплов.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// RMSBytes считает RMS для little-endian 16-битных данных.
// Нечётный последний байт игнорируется.
func RMSBytes(data []byte) float64 {
	return RMS(BytesToInt16(data))
}

// NormalizedRMS RMS в диапазоне [0, 1].
func NormalizedRMS(samples []int16) float64 {
	return RMS(samples) / MaxAmplitude
}

// RMSFloat32 RMS для float32-сэмплов в диапазоне [-1, 1].
func RMSFloat32(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// BytesToInt16 разбирает little-endian 16-битные сэмплы.
func BytesToInt16(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

// Int16ToBytes кодирует сэмплы в little-endian.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Float32ToInt16 переводит float32 [-1, 1] в int16 с ограничением.
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * MaxAmplitude
		if v > MaxAmplitude {
			v = MaxAmplitude
		} else if v < -MaxAmplitude-1 {
			v = -MaxAmplitude - 1
		}
		out[i] = int16(v)
	}
	return out
}

// Float32ToPCM16 переводит float32 [-1, 1] в little-endian PCM16.
func Float32ToPCM16(samples []float32) []byte {
	return Int16ToBytes(Float32ToInt16(samples))
}

// PCM16ToFloat32 обратное преобразование.
func PCM16ToFloat32(data []byte) []float32 {
	ints := BytesToInt16(data)
	out := make([]float32, len(ints))
	for i, s := range ints {
		out[i] = float32(s) / (MaxAmplitude + 1)
	}
	return out
}

// SilenceDetector решает, когда остановить запись после паузы.
type SilenceDetector struct {
	// Threshold - порог громкости, ниже которого звук считается тишиной.
	Threshold float64
	// MaxSilence - сколько длится тишина до остановки.
	MaxSilence time.Duration

	silentSince time.Time
}

// Observe учитывает очередной фрагмент и возвращает true, если пора остановиться.
func (d *SilenceDetector) Observe(rms float64, now time.Time) bool {
	if rms >= d.Threshold {
		d.silentSince = time.Time{}
		return false
	}
	if d.silentSince.IsZero() {
		d.silentSince = now
		return false
	}
	return now.Sub(d.silentSince) > d.MaxSilence
}

// Reset сбрасывает состояние детектора.
func (d *SilenceDetector) Reset() {
	d.silentSince = time.Time{}
}

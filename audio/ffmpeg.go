package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/freeai-utils/freeai-utils/pcm"
)

// Пути к утилитам можно переопределить.
var (
	FFmpegBin  = "ffmpeg"
	FFprobeBin = "ffprobe"
)

// EncodeMP3 кодирует PCM16 в MP3 через ffmpeg (libmp3lame).
func EncodeMP3(ctx context.Context, samples []int16, cfg Config, path string) error {
	cmd := exec.CommandContext(ctx, FFmpegBin, mp3Args(cfg, path)...)
	cmd.Stdin = bytes.NewReader(pcm.Int16ToBytes(samples))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func mp3Args(cfg Config, path string) []string {
	return []string{
		"-y", "-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(cfg.Rate),
		"-ac", strconv.Itoa(cfg.Channels),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", strconv.Itoa(cfg.Bitrate) + "k",
		"-q:a", strconv.Itoa(cfg.Quality),
		path,
	}
}

// FileInfo длительность и размер аудиофайла.
type FileInfo struct {
	Duration time.Duration
	Size     int64
}

// CheckMP3 возвращает длительность (через ffprobe) и размер файла.
func CheckMP3(ctx context.Context, path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	out, err := exec.CommandContext(ctx, FFprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return FileInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	d, err := parseDuration(string(out))
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Duration: d, Size: st.Size()}, nil
}

func parseDuration(s string) (time.Duration, error) {
	sec, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("неверная длительность %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// LoadFile декодирует любой аудио- или видеофайл в mono float32 с частотой rate.
func LoadFile(ctx context.Context, path string, rate int) ([]float32, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("файл не найден: %w", err)
	}
	cmd := exec.CommandContext(ctx, FFmpegBin,
		"-nostdin", "-threads", "0",
		"-i", path,
		"-f", "f32le", "-ac", "1", "-acodec", "pcm_f32le",
		"-ar", strconv.Itoa(rate),
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования аудио: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return decodeF32LE(out), nil
}

func decodeF32LE(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

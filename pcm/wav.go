package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ErrNotWAV файл не является PCM WAV.
var ErrNotWAV = errors.New("файл не является WAV")

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// WriteWAV пишет 16-битный PCM WAV.
func WriteWAV(w io.Writer, samples []int16, rate, channels int) error {
	if rate <= 0 || channels <= 0 {
		return fmt.Errorf("некорректные параметры WAV: rate=%d channels=%d", rate, channels)
	}
	dataSize := uint32(len(samples) * 2)
	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(rate),
		ByteRate:      uint32(rate * channels * 2),
		BlockAlign:    uint16(channels * 2),
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("запись заголовка WAV: %w", err)
	}
	if _, err := w.Write(Int16ToBytes(samples)); err != nil {
		return fmt.Errorf("запись данных WAV: %w", err)
	}
	return nil
}

// SaveWAV пишет WAV в файл.
func SaveWAV(path string, samples []int16, rate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("создание %s: %w", path, err)
	}
	if err := WriteWAV(f, samples, rate, channels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WAVInfo сведения о WAV-файле.
type WAVInfo struct {
	Rate     int
	Channels int
	Frames   int
	Duration time.Duration
	Size     int64
}

// InspectWAV читает заголовок WAV и возвращает длительность и размер файла.
func InspectWAV(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return WAVInfo{}, err
	}

	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return WAVInfo{}, fmt.Errorf("%w: %v", ErrNotWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return WAVInfo{}, ErrNotWAV
	}

	info := WAVInfo{Size: st.Size()}
	var blockAlign int
	for {
		var id [4]byte
		var size uint32
		if _, err := io.ReadFull(f, id[:]); err != nil {
			return WAVInfo{}, fmt.Errorf("%w: нет блока data", ErrNotWAV)
		}
		if err := binary.Read(f, binary.LittleEndian, &size); err != nil {
			return WAVInfo{}, fmt.Errorf("%w: %v", ErrNotWAV, err)
		}
		switch string(id[:]) {
		case "fmt ":
			buf := make([]byte, size)
			if _, err := io.ReadFull(f, buf); err != nil || size < 16 {
				return WAVInfo{}, fmt.Errorf("%w: битый блок fmt", ErrNotWAV)
			}
			info.Channels = int(binary.LittleEndian.Uint16(buf[2:]))
			info.Rate = int(binary.LittleEndian.Uint32(buf[4:]))
			blockAlign = int(binary.LittleEndian.Uint16(buf[12:]))
		case "data":
			if blockAlign == 0 || info.Rate == 0 {
				return WAVInfo{}, fmt.Errorf("%w: data до fmt", ErrNotWAV)
			}
			info.Frames = int(size) / blockAlign
			info.Duration = time.Duration(float64(info.Frames) / float64(info.Rate) * float64(time.Second))
			return info, nil
		default:
			if _, err := f.Seek(int64(size+size%2), io.SeekCurrent); err != nil {
				return WAVInfo{}, err
			}
		}
	}
}

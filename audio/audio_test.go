package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/guard"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig(FormatWAV).Validate())
	require.NoError(t, DefaultConfig(FormatMP3).Validate())

	cfg := DefaultConfig(FormatMP3)
	cfg.Quality = 12
	require.ErrorIs(t, cfg.Validate(), guard.ErrInvalidArgument)

	cfg = DefaultConfig(FormatWAV)
	cfg.Rate = 0
	require.ErrorIs(t, cfg.Validate(), guard.ErrInvalidArgument)

	cfg = DefaultConfig("ogg")
	require.ErrorIs(t, cfg.Validate(), guard.ErrInvalidArgument)
}

func TestFixedChunks(t *testing.T) {
	require.Equal(t, 156, fixedChunks(16000, 1024, 10))
	require.Equal(t, 215, fixedChunks(44100, 1024, 5))
	require.Equal(t, 2, fixedChunks(8000, 16384, 5))
	require.Equal(t, 1, fixedChunks(8000, 16384, 1))
}

func TestOutputName(t *testing.T) {
	cfg := DefaultConfig(FormatMP3)
	require.Equal(t, "output.mp3", cfg.OutputName("output"))
	require.Equal(t, "a.MP3", cfg.OutputName("a.MP3"))
	require.Equal(t, "a.wav.mp3", cfg.OutputName("a.wav"))
}

func TestMP3Args(t *testing.T) {
	args := mp3Args(DefaultConfig(FormatMP3), "out.mp3")
	require.Contains(t, args, "libmp3lame")
	require.Contains(t, args, "192k")
	require.Contains(t, args, "44100")
	require.Equal(t, "out.mp3", args[len(args)-1])
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("12.500000\n")
	require.NoError(t, err)
	require.Equal(t, 12500*time.Millisecond, d)

	_, err = parseDuration("N/A")
	require.Error(t, err)
}

func TestDecodeF32LE(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(0.5))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(-1))
	require.Equal(t, []float32{0.5, -1}, decodeF32LE(buf))
}

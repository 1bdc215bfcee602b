package tts

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/freeai-utils/freeai-utils/guard"
)

// ErrNoEspeak espeak-ng и espeak не установлены.
var ErrNoEspeak = errors.New("espeak-ng не найден")

// Voice голос espeak.
type Voice struct {
	Language string
	Name     string
}

// Espeak офлайн-синтез через espeak-ng.
type Espeak struct {
	bin    string
	rate   int
	volume float64
	voice  Voice
	voices []Voice
}

// NewEspeak находит espeak и настраивает голос.
func NewEspeak(ctx context.Context, rate int, volume float64, voiceIndex int) (*Espeak, error) {
	bin, err := exec.LookPath("espeak-ng")
	if err != nil {
		if bin, err = exec.LookPath("espeak"); err != nil {
			return nil, ErrNoEspeak
		}
	}

	out, err := exec.CommandContext(ctx, bin, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("список голосов: %w", err)
	}

	e := &Espeak{bin: bin, voices: ParseVoices(string(out))}
	if err := e.ConfigVoice(rate, volume, voiceIndex); err != nil {
		return nil, err
	}
	return e, nil
}

// Voices доступные голоса.
func (e *Espeak) Voices() []Voice {
	return append([]Voice(nil), e.voices...)
}

// ConfigVoice задаёт скорость (слов в минуту), громкость 0..1 и номер голоса.
func (e *Espeak) ConfigVoice(rate int, volume float64, voiceIndex int) error {
	if err := guard.Positive("rate", rate); err != nil {
		return err
	}
	if err := guard.Range("volume", volume, 0, 1); err != nil {
		return err
	}
	if voiceIndex < 0 || voiceIndex >= len(e.voices) {
		return fmt.Errorf("%w: номер голоса должен быть от 0 до %d", guard.ErrInvalidArgument, len(e.voices)-1)
	}
	e.rate, e.volume, e.voice = rate, volume, e.voices[voiceIndex]
	return nil
}

func (e *Espeak) args(extra ...string) []string {
	args := []string{
		"-s", strconv.Itoa(e.rate),
		"-a", strconv.Itoa(int(e.volume * 200)),
		"-v", e.voice.Name,
	}
	return append(args, extra...)
}

// Speak проговаривает текст и ждёт окончания. Отмена ctx прерывает речь.
func (e *Espeak) Speak(ctx context.Context, text string) error {
	if err := guard.NotEmpty("text", text); err != nil {
		return err
	}
	return exec.CommandContext(ctx, e.bin, e.args("--", text)...).Run()
}

// SaveToFile пишет речь в wav.
func (e *Espeak) SaveToFile(ctx context.Context, text, path string) error {
	if err := guard.NotEmpty("text", text); err != nil {
		return err
	}
	return exec.CommandContext(ctx, e.bin, e.args("-w", path, "--", text)...).Run()
}

// ParseVoices разбирает вывод `espeak --voices`:
// Pty Language Age/Gender VoiceName File Other Languages
func ParseVoices(out string) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, Voice{Language: fields[1], Name: fields[3]})
	}
	return voices
}

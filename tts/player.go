package tts

import (
	"context"
	"errors"
	"os/exec"
)

// ErrNoPlayer нет ни одного консольного проигрывателя.
var ErrNoPlayer = errors.New("не найден проигрыватель (ffplay, mpg123, mpv, afplay)")

var players = [][]string{
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"mpg123", "-q"},
	{"mpv", "--no-video", "--really-quiet"},
	{"afplay"},
}

// PlayFile проигрывает аудиофайл первым найденным проигрывателем и ждёт окончания.
func PlayFile(ctx context.Context, path string) error {
	for _, p := range players {
		bin, err := exec.LookPath(p[0])
		if err != nil {
			continue
		}
		args := append(append([]string{}, p[1:]...), path)
		return exec.CommandContext(ctx, bin, args...).Run()
	}
	return ErrNoPlayer
}

package cli

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/freeai-utils/freeai-utils/internal/i18n"
)

// Группы install-deps.
const (
	depsAI  = "ai"
	depsAll = "all"
)

// dependency внешняя программа, которую используют обёртки.
type dependency struct {
	Name string
	// Binaries подходит любой из вариантов.
	Binaries []string
	Hint     string
	AI       bool
}

var dependencies = []dependency{
	{Name: "ffmpeg", Binaries: []string{"ffmpeg"}, Hint: "MP3 и декодирование аудио: https://ffmpeg.org/download.html"},
	{Name: "ffprobe", Binaries: []string{"ffprobe"}, Hint: "Длительность MP3, ставится вместе с ffmpeg"},
	{Name: "ollama", Binaries: []string{"ollama"}, Hint: "Локальные LLM, эмбеддинги, подписи: https://ollama.com/download", AI: true},
	{Name: "tesseract", Binaries: []string{"tesseract"}, Hint: "OCR: https://tesseract-ocr.github.io/tessdoc/Installation.html", AI: true},
	{Name: "espeak-ng", Binaries: []string{"espeak-ng", "espeak"}, Hint: "Офлайн синтез речи: apt install espeak-ng / brew install espeak-ng"},
	{Name: "player", Binaries: []string{"ffplay", "mpg123", "mpv", "afplay"}, Hint: "Воспроизведение MP3: ffplay, mpg123 или mpv"},
}

func newInstallDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install-deps [ai|all]",
		Short: "Проверить внешние программы, нужные обёрткам",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			group := depsAll
			if len(args) == 1 && args[0] != "" {
				group = strings.ToLower(args[0])
			}
			return checkDeps(cmd.OutOrStdout(), group, exec.LookPath)
		},
	}
}

func checkDeps(out io.Writer, group string, lookPath func(string) (string, error)) error {
	if group != depsAI && group != depsAll {
		warnColor.Fprintln(out, i18n.Tf("deps_invalid", group))
		fmt.Fprintln(out, i18n.Tf("deps_available", strings.Join([]string{depsAI, depsAll}, ", ")))
		return errors.Errorf("неизвестная группа %q", group)
	}

	missing := 0
	for _, dep := range dependencies {
		if group == depsAI && !dep.AI {
			continue
		}
		path, found := "", false
		for _, bin := range dep.Binaries {
			if p, err := lookPath(bin); err == nil {
				path, found = p, true
				break
			}
		}
		if found {
			infoColor.Fprintln(out, i18n.Tf("deps_ok", dep.Name, path))
			continue
		}
		missing++
		warnColor.Fprintln(out, i18n.Tf("deps_missing", dep.Name, dep.Hint))
	}

	if missing > 0 {
		return errors.New(i18n.Tf("deps_some_miss", missing))
	}
	titleColor.Fprintln(out, i18n.Tf("deps_all_ok", group))
	return nil
}

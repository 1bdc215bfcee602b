// Package cli реализует команды freeai-utils на cobra.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/freeai-utils/freeai-utils/envfile"
	"github.com/freeai-utils/freeai-utils/internal/config"
	"github.com/freeai-utils/freeai-utils/internal/i18n"
	"github.com/freeai-utils/freeai-utils/logging"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

var (
	// Цвета вывода.
	titleColor = color.New(color.FgGreen)
	infoColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
)

// errNoCommand корневая команда вызвана без подкоманды.
var errNoCommand = errors.New("не указана команда")

// confirm задаёт вопрос да/нет в терминале.
var confirm = func(message string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message}, &ok)
	return ok, err
}

// appDir каталог рядом с бинарником: там лежат .env, config.json и модели.
func appDir() string {
	if p := config.DefaultPath(); p != "" {
		return filepath.Dir(p)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func width() int {
	if w := goterm.Width(); w > 0 {
		return w
	}
	return 80
}

// separator печатает горизонтальную линию на всю ширину терминала.
func separator(w io.Writer) {
	titleColor.Fprintln(w, strings.Repeat("*", min(width(), 100)))
}

// env общее окружение команд.
type env struct {
	cfg *config.Config
	dir string
}

// NewRootCmd собирает дерево команд.
func NewRootCmd() *cobra.Command {
	e := &env{}

	cmd := &cobra.Command{
		Use:           "freeai-utils",
		Short:         "Обёртки над бесплатными AI-моделями и сервисами",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			e.dir = appDir()
			e.cfg = config.New()
			i18n.SetLanguage(i18n.Parse(e.cfg.UILanguage()))
			logging.SetLevel(logging.ParseLevel(e.cfg.LogLevel()))

			paths := []string{filepath.Join(e.dir, envfile.FileName)}
			if wd, err := os.Getwd(); err == nil {
				paths = append([]string{filepath.Join(wd, envfile.FileName)}, paths...)
			}
			if err := envfile.Load(paths...); err != nil {
				logging.New("cli").Warn("не удалось загрузить .env", "error", err)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errNoCommand
		},
	}

	cmd.AddCommand(
		newSetupCmd(e),
		newCleanCmd(e),
		newSecretKeyCmd(e),
		newInstallDepsCmd(),
		newGuideCmd(),
		newCodeHelperCmd(e),
		newDictateCmd(e),
		newRecordCmd(e),
		newTranscribeCmd(e),
		newModelsCmd(e),
		newConfigCmd(e),
	)
	return cmd
}

// Execute запускает CLI и возвращает код выхода.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errNoCommand) {
			errorColor.Fprintln(os.Stderr, i18n.Tf("app_error", err))
		}
		return 1
	}
	return 0
}

// ask подтверждение, если не передан -y.
func ask(yes bool, message string) (bool, error) {
	if yes {
		return true, nil
	}
	ok, err := confirm(message)
	if err != nil {
		return false, errors.Wrap(err, "подтверждение")
	}
	return ok, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/freeai-utils/freeai-utils/cleaner"
	"github.com/freeai-utils/freeai-utils/internal/i18n"
	"github.com/freeai-utils/freeai-utils/llm"
	"github.com/freeai-utils/freeai-utils/models"
)

// cleanExtensions файлы, которые оставляют обёртки: озвучка, снимки экрана, секреты.
var cleanExtensions = []string{".mp3", ".png", ".env"}

func newManager(e *env) (*models.Manager, error) {
	manager, err := models.NewManager(e.cfg.ModelsDir())
	if err != nil {
		return nil, errors.Wrap(err, "менеджер моделей")
	}
	manager.SetPuller(llm.New(llm.Config{URL: e.cfg.LLM().URL}))
	return manager, nil
}

func newSetupCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "setup [A|S|D|I|T|L|ICF|ICE|V]",
		Short: "Скачать модели по умолчанию для группы",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flag := models.GroupDefault
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				flag = strings.ToUpper(strings.TrimSpace(args[0]))
			}
			list, err := models.Group(flag)
			if err != nil {
				return err
			}

			var total int64
			for _, m := range list {
				total += m.Size
			}
			out := cmd.OutOrStdout()
			ok, err := ask(yes, i18n.Tf("setup_confirm", flag, models.GroupDescription(flag), humanize.IBytes(uint64(total))))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, i18n.T("setup_cancelled"))
				return nil
			}

			manager, err := newManager(e)
			if err != nil {
				return err
			}
			if err := download(cmd.Context(), out, manager, list); err != nil {
				return err
			}
			titleColor.Fprintln(out, i18n.Tf("setup_done", flag))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Скачать без подтверждения")
	return cmd
}

// download скачивает модели по очереди, рисуя полосу прогресса.
func download(ctx context.Context, out io.Writer, manager *models.Manager, list []models.ModelInfo) error {
	var failed []string
	for _, info := range list {
		if manager.IsDownloaded(info) {
			infoColor.Fprintln(out, i18n.Tf("setup_skip", info.Name))
			continue
		}

		fmt.Fprintln(out, i18n.Tf("setup_model", info.Name))
		progress := make(chan models.Progress, 16)
		result := make(chan error, 1)
		go func() {
			result <- manager.Download(ctx, info, progress)
		}()

		for p := range progress {
			fmt.Fprint(out, "\r"+progressLine(p.Downloaded, p.Total, width()))
			if p.Done {
				break
			}
		}
		fmt.Fprintln(out)

		if err := <-result; err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errorColor.Fprintln(out, i18n.Tf("setup_failed", info.Name, err))
			failed = append(failed, info.ID)
		}
	}
	if len(failed) > 0 {
		return errors.Errorf("не скачаны: %s", strings.Join(failed, ", "))
	}
	return nil
}

// progressLine строка вида "[#####-----]  50%  1.0 MiB / 2.0 MiB".
func progressLine(done, total int64, termWidth int) string {
	done = max(done, 0)
	if total <= 0 {
		return humanize.IBytes(uint64(done))
	}
	done = min(done, total)
	barWidth := min(max(termWidth-40, 10), 50)
	filled := int(float64(barWidth) * float64(done) / float64(total))
	return fmt.Sprintf("[%s%s] %3d%%  %s / %s",
		strings.Repeat("#", filled), strings.Repeat("-", barWidth-filled),
		done*100/total, humanize.IBytes(uint64(done)), humanize.IBytes(uint64(total)))
}

var cleanMessages = map[string]string{
	models.CleanVosk:  "clean_confirm_V",
	models.CleanImage: "clean_confirm_ICF",
	models.CleanAll:   "clean_confirm_A",
	"":                "clean_confirm_all",
}

var cleanProgress = map[string]string{
	models.CleanVosk:  "clean_progress_V",
	models.CleanImage: "clean_progress_ICF",
	models.CleanAll:   "clean_progress_all",
	"":                "clean_progress_all",
}

func newCleanCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean [A|V|ICF]",
		Short: "Удалить скачанные модели и временные файлы",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = strings.ToUpper(strings.TrimSpace(args[0]))
			}
			msg, known := cleanMessages[target]
			if !known {
				return errors.New(i18n.Tf("clean_unknown", target))
			}

			out := cmd.OutOrStdout()
			ok, err := ask(yes, i18n.T(msg))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, i18n.T("clean_cancelled"))
				return nil
			}
			fmt.Fprintln(out, i18n.T(cleanProgress[target]))

			c, err := cleaner.New(e.dir)
			if err != nil {
				return err
			}
			for _, ext := range cleanExtensions {
				_, n, err := c.RemoveAllWithExt(ext)
				if err != nil {
					return errors.Wrapf(err, "удаление %s", ext)
				}
				fmt.Fprintln(out, i18n.Tf("clean_removed_files", ext, n))
			}

			manager, err := newManager(e)
			if err != nil {
				return err
			}
			removed, err := manager.Clean(target)
			for _, dir := range removed {
				fmt.Fprintln(out, i18n.Tf("clean_removed_dir", dir))
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Удалить без подтверждения")
	return cmd
}

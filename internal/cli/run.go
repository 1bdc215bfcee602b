package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/freeai-utils/freeai-utils/audio"
	"github.com/freeai-utils/freeai-utils/envfile"
	"github.com/freeai-utils/freeai-utils/internal/app"
	"github.com/freeai-utils/freeai-utils/internal/config"
	"github.com/freeai-utils/freeai-utils/internal/i18n"
	"github.com/freeai-utils/freeai-utils/llm"
	"github.com/freeai-utils/freeai-utils/models"
	"github.com/freeai-utils/freeai-utils/speech"
)

func newCodeHelperCmd(e *env) *cobra.Command {
	var selectKey bool
	cmd := &cobra.Command{
		Use:   "code-helper [APIKEY] [HOTKEY]",
		Short: "По горячей клавише отправлять снимок экрана в Gemini и копировать ответ",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.CodeHelperOptions{
				Hotkey:       app.DefaultHelperHotkey,
				EnvPath:      filepath.Join(e.dir, envfile.FileName),
				SelectHotkey: selectKey,
			}
			if len(args) > 0 {
				opts.APIKey = args[0]
			}
			if len(args) > 1 {
				opts.Hotkey = args[1]
			}
			return app.RunCodeHelper(cmd.Context(), e.cfg, opts)
		},
	}
	cmd.Flags().BoolVar(&selectKey, "select-hotkey", false, "Выбрать горячую клавишу в диалоге")
	return cmd
}

func newDictateCmd(e *env) *cobra.Command {
	var opts app.DictationOptions
	cmd := &cobra.Command{
		Use:   "dictate",
		Short: "Голосовой ввод в активное поле по горячей клавише",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunDictation(cmd.Context(), e.cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.ModelID, "model", "", "ID модели распознавания (см. 'freeai-utils models')")
	cmd.Flags().StringVar(&opts.Hotkey, "hotkey", "", "Горячая клавиша, например ctrl+shift+space")
	cmd.Flags().BoolVar(&opts.Correct, "correct", false, "Исправлять текст локальной LLM через Ollama")
	cmd.Flags().BoolVar(&opts.Copy, "copy", false, "Копировать в буфер обмена вместо ввода")
	cmd.Flags().BoolVar(&opts.SelectHotkey, "select-hotkey", false, "Выбрать горячую клавишу в диалоге и сохранить её")
	return cmd
}

func newRecordCmd(e *env) *cobra.Command {
	var (
		seconds int
		toggle  bool
		silence bool
		format  string
		hk      string
	)
	cmd := &cobra.Command{
		Use:   "record [OUTPUT]",
		Short: "Записать звук с микрофона в WAV или MP3",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := fmt.Sprintf("recording_%d", time.Now().Unix())
			if len(args) == 1 {
				out = args[0]
			}

			rec, err := audio.New(audio.DefaultConfig(audio.Format(strings.ToLower(format))))
			if err != nil {
				return err
			}
			defer rec.Close()

			ctx := cmd.Context()
			var path string
			switch {
			case toggle:
				hotkey := e.cfg.Hotkey()
				if hk != "" {
					if hotkey, err = config.ParseHotkey(hk); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), i18n.Tf("record_toggle", hotkey.String()))
				path, err = app.RecordToggle(ctx, rec, hotkey, out)
			case silence:
				path, err = rec.RecordSilence(ctx, audio.DefaultSilenceThreshold, audio.DefaultMaxSilence, out)
			default:
				path, err = rec.RecordFixed(ctx, seconds, out)
			}
			if err != nil {
				return errors.Wrap(err, "запись")
			}

			size := "?"
			if st, err := os.Stat(path); err == nil {
				size = humanize.IBytes(uint64(st.Size()))
			}
			titleColor.Fprintln(cmd.OutOrStdout(), i18n.Tf("record_saved", path, size))
			return nil
		},
	}
	cmd.Flags().IntVarP(&seconds, "seconds", "s", 5, "Длительность записи")
	cmd.Flags().BoolVar(&toggle, "toggle", false, "Записывать до нажатия горячей клавиши")
	cmd.Flags().BoolVar(&silence, "silence", false, "Записывать до паузы в речи")
	cmd.Flags().StringVarP(&format, "format", "f", string(audio.FormatWAV), "Формат: wav или mp3")
	cmd.Flags().StringVar(&hk, "hotkey", "", "Горячая клавиша для --toggle")
	return cmd
}

func newTranscribeCmd(e *env) *cobra.Command {
	var (
		timed     bool
		live      bool
		correct   bool
		translate bool
		lang      string
		modelID   string
	)
	cmd := &cobra.Command{
		Use:   "transcribe [FILE]",
		Short: "Распознать речь из файла (Whisper) или с микрофона (Vosk, --live)",
		Args: func(cmd *cobra.Command, args []string) error {
			if live {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			manager, err := newManager(e)
			if err != nil {
				return err
			}

			var text string
			if live {
				id := modelID
				if id == "" {
					id = e.cfg.VoskModel()
				}
				vosk, err := speech.OpenVoskLive(manager, id)
				if err != nil {
					return err
				}
				defer vosk.Close()
				if text, err = vosk.TranscribeUntilSilence(ctx, speech.DefaultLiveThreshold, speech.DefaultLiveSilence); err != nil {
					return errors.Wrap(err, "распознавание")
				}
			} else {
				id := modelID
				if id == "" {
					id = e.cfg.WhisperModel()
				}
				opts := speech.Options{Language: lang, Translate: translate}
				whisper, err := speech.OpenWhisper(manager, id, e.cfg.Device(), opts)
				if err != nil {
					return err
				}
				defer whisper.Close()
				res, err := whisper.TranscribeFile(ctx, args[0], opts)
				if err != nil {
					return errors.Wrapf(err, "распознавание %s", args[0])
				}
				text = res.Text
				if timed {
					fmt.Fprint(cmd.OutOrStdout(), speech.FormatTimed(res.Segments))
					return nil
				}
			}

			if correct {
				llmCfg := e.cfg.LLM()
				client := llm.New(llm.Config{URL: llmCfg.URL, Model: llmCfg.Model})
				corrected, err := client.CorrectText(ctx, text)
				if err != nil {
					warnColor.Fprintln(cmd.ErrOrStderr(), err)
				} else if strings.TrimSpace(corrected) != "" {
					text = corrected
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&timed, "timed", false, "Вывести сегменты с таймкодами")
	cmd.Flags().BoolVar(&live, "live", false, "Распознавать микрофон через Vosk до паузы")
	cmd.Flags().BoolVar(&correct, "correct", false, "Исправить текст локальной LLM")
	cmd.Flags().BoolVar(&translate, "translate", false, "Переводить на английский (Whisper)")
	cmd.Flags().StringVar(&lang, "lang", "auto", "Язык речи или auto")
	cmd.Flags().StringVar(&modelID, "model", "", "ID модели (см. 'freeai-utils models')")
	return cmd
}

func newModelsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Список моделей и их состояние",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(e)
			if err != nil {
				return err
			}
			printModels(cmd.OutOrStdout(), manager.IsDownloaded)
			return nil
		},
	}
}

func printModels(out io.Writer, downloaded func(models.ModelInfo) bool) {
	for _, engine := range models.Engines() {
		titleColor.Fprintln(out, i18n.Tf("models_header", engine))
		for _, m := range models.GetModelsByEngine(engine) {
			status := i18n.T("models_missing")
			if downloaded(m) {
				status = i18n.T("models_downloaded")
			}
			fmt.Fprintf(out, "  %-28s %-36s %10s  [%s] %s\n",
				m.ID, m.Name, humanize.IBytes(uint64(m.Size)), strings.Join(m.Groups, ","), status)
		}
	}
}

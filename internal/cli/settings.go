package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/internal/config"
	"github.com/freeai-utils/freeai-utils/internal/dialog"
	"github.com/freeai-utils/freeai-utils/internal/i18n"
	"github.com/freeai-utils/freeai-utils/models"
)

// selectHotkey диалог выбора клавиши, подменяется в тестах.
var selectHotkey = dialog.SelectHotkey

// setters параметры, которые можно менять командой config set.
var setters = map[string]func(cfg *config.Config, value string) error{
	"language": func(cfg *config.Config, v string) error {
		cfg.SetLanguage(strings.ToLower(v))
		return nil
	},
	"ui-language": func(cfg *config.Config, v string) error {
		lang := i18n.Language(strings.ToLower(v))
		for _, l := range i18n.AvailableLanguages() {
			if l == lang {
				cfg.SetUILanguage(string(lang))
				i18n.SetLanguage(lang)
				return nil
			}
		}
		return errors.Errorf("неизвестный язык интерфейса %q", v)
	},
	"notifications": func(cfg *config.Config, v string) error {
		switch strings.ToLower(v) {
		case "on", "true", "1":
			cfg.SetNotifications(true)
		case "off", "false", "0":
			cfg.SetNotifications(false)
		case "toggle":
			cfg.ToggleNotifications()
		default:
			return errors.Errorf("ожидается on, off или toggle: %q", v)
		}
		return nil
	},
	"hotkey": func(cfg *config.Config, v string) error {
		hk, err := config.ParseHotkey(v)
		if err != nil {
			return err
		}
		cfg.SetHotkey(hk)
		return nil
	},
	"whisper-model": func(cfg *config.Config, v string) error {
		info, ok := models.GetModel(v)
		if !ok || info.Engine != models.EngineWhisper {
			return errors.Errorf("модель Whisper %q не найдена (см. 'freeai-utils models')", v)
		}
		cfg.SetWhisperModel(info.ID)
		return nil
	},
	"device": func(cfg *config.Config, v string) error {
		d := device.Device(strings.ToLower(v))
		if d == "auto" {
			d = ""
		}
		if d != "" && d != device.CPU && !d.IsCUDA() {
			return errors.Errorf("ожидается auto, cpu или cuda[:N]: %q", v)
		}
		cfg.SetDevice(string(d))
		return nil
	},
	"llm-url": func(cfg *config.Config, v string) error {
		llm := cfg.LLM()
		llm.URL = strings.TrimRight(v, "/")
		cfg.SetLLM(llm)
		return nil
	},
	"llm-model": func(cfg *config.Config, v string) error {
		llm := cfg.LLM()
		llm.Model = v
		cfg.SetLLM(llm)
		return nil
	},
	"gemini-model": func(cfg *config.Config, v string) error {
		g := cfg.Gemini()
		g.Model = v
		cfg.SetGemini(g)
		return nil
	},
}

func settingNames() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Показать или изменить настройки config.json",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printSettings(cmd.OutOrStdout(), e.cfg)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Изменить параметр: " + strings.Join(settingNames(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToLower(args[0])
			set, ok := setters[key]
			if !ok {
				return errors.New(i18n.Tf("config_unknown", args[0], strings.Join(settingNames(), ", ")))
			}
			if err := set(e.cfg, strings.TrimSpace(args[1])); err != nil {
				return err
			}
			titleColor.Fprintln(cmd.OutOrStdout(), i18n.Tf("config_saved", key))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "hotkey",
		Short: "Выбрать горячую клавишу голосового ввода в диалоге",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hk, err := selectHotkey(e.cfg.Hotkey())
			if err != nil {
				return errors.Wrap(err, "выбор горячей клавиши")
			}
			e.cfg.SetHotkey(hk)
			titleColor.Fprintln(cmd.OutOrStdout(), i18n.Tf("config_saved", "hotkey"))
			return nil
		},
	})
	return cmd
}

func printSettings(out io.Writer, cfg *config.Config) {
	ui := i18n.Parse(cfg.UILanguage())
	llm := cfg.LLM()
	rows := [][2]string{
		{"language", cfg.Language()},
		{"ui-language", fmt.Sprintf("%s (%s)", ui, i18n.LanguageName(ui))},
		{"notifications", fmt.Sprint(cfg.NotificationsEnabled())},
		{"hotkey", cfg.Hotkey().String()},
		{"whisper-model", cfg.WhisperModel()},
		{"device", cfg.Device()},
		{"llm-url", llm.URL},
		{"llm-model", llm.Model},
		{"gemini-model", cfg.Gemini().Model},
		{"models-dir", cfg.ModelsDir()},
	}
	for _, r := range rows {
		fmt.Fprintf(out, "%-14s %s\n", r[0], r[1])
	}
	if p := cfg.Path(); p != "" {
		infoColor.Fprintln(out, i18n.Tf("config_path", p))
	}
}

// Package app содержит сценарии, связывающие несколько обёрток: помощник
// "снимок экрана -> Gemini -> буфер обмена" и голосовой ввод по горячей клавише.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/freeai-utils/freeai-utils/envfile"
	"github.com/freeai-utils/freeai-utils/gemini"
	"github.com/freeai-utils/freeai-utils/internal/config"
	"github.com/freeai-utils/freeai-utils/internal/dialog"
	"github.com/freeai-utils/freeai-utils/internal/hotkey"
	"github.com/freeai-utils/freeai-utils/internal/i18n"
	"github.com/freeai-utils/freeai-utils/internal/notify"
	"github.com/freeai-utils/freeai-utils/logging"
	"github.com/freeai-utils/freeai-utils/screen"
)

// HelperPrompt вопрос, отправляемый вместе со снимком экрана.
const HelperPrompt = "Help me solve these questions please. Just tell me the answer, no need for explanation."

// DefaultHelperHotkey горячая клавиша помощника по умолчанию.
const DefaultHelperHotkey = "`"

// Asker отвечает на вопрос по файлу и кладёт ответ в буфер обмена.
type Asker interface {
	AskAndCopy(ctx context.Context, prompt, filePath string) (string, error)
}

// CodeHelper по каждому нажатию делает снимок экрана, спрашивает модель
// и копирует ответ. Нажатия обрабатываются строго по одному.
type CodeHelper struct {
	workDir string
	// ownDir каталог создан помощником и удаляется в Close.
	ownDir   bool
	asker    Asker
	notifier *notify.Notifier
	log      *slog.Logger

	// capture сохраняет снимок экрана в path.
	capture func(path string) error

	presses chan struct{}
}

// NewCodeHelper создаёт помощника. Снимки складываются в workDir, пустой workDir
// означает отдельный временный каталог. После ответа удаляется только сделанный снимок.
func NewCodeHelper(asker Asker, notifier *notify.Notifier, workDir string) (*CodeHelper, error) {
	if asker == nil {
		return nil, errors.New("не передан клиент модели")
	}
	ownDir := false
	if workDir == "" {
		dir, err := os.MkdirTemp("", "freeai-code-helper-")
		if err != nil {
			return nil, fmt.Errorf("каталог снимков: %w", err)
		}
		workDir, ownDir = dir, true
	}
	if notifier == nil {
		notifier = notify.New(false)
	}
	return &CodeHelper{
		workDir:  workDir,
		ownDir:   ownDir,
		asker:    asker,
		notifier: notifier,
		log:      logging.New("code-helper"),
		capture:  captureScreen,
		presses:  make(chan struct{}, 1),
	}, nil
}

// Close удаляет временный каталог снимков, если его создал помощник.
func (h *CodeHelper) Close() error {
	if !h.ownDir {
		return nil
	}
	return os.RemoveAll(h.workDir)
}

func captureScreen(path string) error {
	bounds, err := screen.PrimaryBounds()
	if err != nil {
		return err
	}
	return screen.CaptureToPNG(path, bounds)
}

// OnPress обработчик горячей клавиши. Пока предыдущий вопрос не обработан,
// новые нажатия отбрасываются.
func (h *CodeHelper) OnPress() {
	select {
	case h.presses <- struct{}{}:
	default:
		h.log.Info(i18n.T("helper_busy"))
	}
}

// Run обрабатывает нажатия до отмены ctx.
func (h *CodeHelper) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.presses:
			if _, err := h.Handle(ctx); err != nil && ctx.Err() == nil {
				h.log.Error("ошибка обработки снимка", "error", err)
			}
		}
	}
}

// Handle обрабатывает одно нажатие: снимок, вопрос, копирование, удаление снимка.
func (h *CodeHelper) Handle(ctx context.Context) (string, error) {
	path := filepath.Join(h.workDir, fmt.Sprintf("screenshot_%d.png", time.Now().UnixMilli()))
	defer h.remove(path)

	if err := h.capture(path); err != nil {
		h.notifier.Error(err.Error())
		return "", fmt.Errorf("снимок экрана: %w", err)
	}
	h.log.Info("снимок экрана сохранён", "path", path)
	h.notifier.Thinking()

	answer, err := h.asker.AskAndCopy(ctx, HelperPrompt, path)
	if err != nil {
		h.notifier.Error(err.Error())
		return "", err
	}
	if answer == "" {
		h.notifier.Empty()
		return "", nil
	}
	h.notifier.Copied(answer)
	return answer, nil
}

func (h *CodeHelper) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.log.Warn("не удалось удалить снимок", "path", path, "error", err)
	}
}

// CodeHelperOptions параметры запуска помощника.
type CodeHelperOptions struct {
	APIKey string
	Hotkey string
	// WorkDir каталог для снимков, по умолчанию временный.
	WorkDir string
	// EnvPath файл .env, куда можно сохранить введённый в диалоге ключ.
	EnvPath string
	// SelectHotkey выбрать клавишу в диалоге.
	SelectHotkey bool
}

// RunCodeHelper подключается к Gemini, регистрирует горячую клавишу и
// обрабатывает нажатия до отмены ctx.
func RunCodeHelper(ctx context.Context, cfg *config.Config, opts CodeHelperOptions) error {
	log := logging.New("code-helper")

	key, err := gemini.ResolveAPIKey(opts.APIKey)
	if err != nil {
		if key, err = askAPIKey(opts.EnvPath, log); err != nil {
			return err
		}
	}

	hkText := opts.Hotkey
	if hkText == "" {
		hkText = DefaultHelperHotkey
	}
	hk, err := config.ParseHotkey(hkText)
	if err != nil {
		return err
	}
	if opts.SelectHotkey {
		if hk, err = dialog.SelectHotkey(hk); err != nil {
			return fmt.Errorf("выбор горячей клавиши: %w", err)
		}
	}

	gcfg := cfg.Gemini()
	client, err := gemini.New(ctx, gemini.Config{
		Model:          gcfg.Model,
		APIKey:         key,
		MemoriesLength: gcfg.MemoriesLength,
		WordLimit:      gcfg.WordLimit,
		Search:         true,
	})
	if err != nil {
		return err
	}

	helper, err := NewCodeHelper(client, notify.New(cfg.NotificationsEnabled()), opts.WorkDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := helper.Close(); err != nil {
			log.Warn("не удалось удалить каталог снимков", "error", err)
		}
	}()

	handler := hotkey.New(helper.OnPress)
	if err := handler.Register(hk); err != nil {
		return err
	}
	defer func() {
		if err := handler.Unregister(); err != nil {
			log.Warn("ошибка снятия горячей клавиши", "error", err)
		}
	}()

	fmt.Println(i18n.Tf("helper_started", hk.String()))
	return helper.Run(ctx)
}

// askAPIKey спрашивает ключ в диалоге и предлагает сохранить его в envPath.
func askAPIKey(envPath string, log *slog.Logger) (string, error) {
	key, err := dialog.AskAPIKey()
	if err != nil {
		dialog.ShowError(i18n.T("app_name"), i18n.T("helper_need_key"))
		return "", fmt.Errorf("%s: %w", i18n.T("helper_need_key"), gemini.ErrNoAPIKey)
	}
	if envPath == "" {
		return key, nil
	}

	save, err := dialog.Confirm(i18n.T("app_name"), i18n.Tf("helper_save_key", envPath))
	if err != nil {
		log.Warn("диалог сохранения ключа", "error", err)
	}
	if save {
		if _, err := envfile.Add(envPath, gemini.EnvAPIKey+"="+key); err != nil {
			log.Warn("ключ не сохранён", "path", envPath, "error", err)
		}
	}
	return key, nil
}

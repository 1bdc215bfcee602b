// Package dialog показывает нативные диалоги для code-helper.
package dialog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ncruces/zenity"

	"github.com/freeai-utils/freeai-utils/internal/config"
	"github.com/freeai-utils/freeai-utils/internal/i18n"
)

// ErrCanceled пользователь закрыл диалог.
var ErrCanceled = zenity.ErrCanceled

var modNames = map[config.Modifier]string{
	config.ModCtrl:  "Ctrl",
	config.ModShift: "Shift",
	config.ModAlt:   "Alt",
	config.ModSuper: "Super (Win/Cmd)",
}

// KeyLabel подпись клавиши в списке.
func KeyLabel(k config.Key) string {
	switch k {
	case config.KeySpace:
		return "Space"
	case config.KeyReturn:
		return "Return"
	case config.KeyTab:
		return "Tab"
	case config.KeyGrave:
		return "` (Grave)"
	}
	return strings.ToUpper(string(k))
}

// SelectHotkey открывает диалог выбора горячей клавиши.
// Модификаторы необязательны: по умолчанию code-helper использует одиночный '`'.
func SelectHotkey(current config.HotkeyConfig) (config.HotkeyConfig, error) {
	mods := config.AvailableModifiers()
	modOptions := make([]string, len(mods))
	for i, m := range mods {
		modOptions[i] = modNames[m]
	}
	currentMods := make([]string, 0, len(current.Modifiers))
	for _, m := range current.Modifiers {
		currentMods = append(currentMods, modNames[m])
	}

	selectedMods, err := zenity.ListMultiple(
		"Выберите модификаторы:",
		modOptions,
		zenity.Title("Горячая клавиша - модификаторы"),
		zenity.DefaultItems(currentMods...),
	)
	if err != nil {
		return current, err
	}

	newMods := make([]config.Modifier, 0, len(selectedMods))
	for _, s := range selectedMods {
		for i, opt := range modOptions {
			if s == opt {
				newMods = append(newMods, mods[i])
				break
			}
		}
	}

	keys := config.AvailableKeys()
	keyOptions := make([]string, len(keys))
	for i, k := range keys {
		keyOptions[i] = KeyLabel(k)
	}

	selectedKey, err := zenity.List(
		"Выберите клавишу:",
		keyOptions,
		zenity.Title("Горячая клавиша - клавиша"),
		zenity.DefaultItems(KeyLabel(current.Key)),
	)
	if err != nil {
		return current, err
	}
	for i, opt := range keyOptions {
		if selectedKey == opt {
			return config.HotkeyConfig{Modifiers: newMods, Key: keys[i]}, nil
		}
	}
	return current, fmt.Errorf("клавиша не выбрана")
}

// AskAPIKey спрашивает ключ API скрытым полем ввода.
func AskAPIKey() (string, error) {
	key, err := zenity.Entry(
		i18n.T("helper_prompt"),
		zenity.Title(i18n.T("app_name")),
		zenity.HideText(),
	)
	if err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrCanceled
	}
	return key, nil
}

// Confirm задаёт вопрос да/нет. Отмена считается ответом "нет".
func Confirm(title, message string) (bool, error) {
	err := zenity.Question(message, zenity.Title(title))
	if errors.Is(err, zenity.ErrCanceled) {
		return false, nil
	}
	return err == nil, err
}

// ShowError показывает сообщение об ошибке.
func ShowError(title, message string) {
	zenity.Error(message, zenity.Title(title))
}

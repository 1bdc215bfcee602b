//go:build windows

package hotkey

import (
	"golang.design/x/hotkey"

	"github.com/freeai-utils/freeai-utils/internal/config"
)

// modifierMap маппинг config.Modifier -> hotkey.Modifier
var modifierMap = map[config.Modifier]hotkey.Modifier{
	config.ModCtrl:  hotkey.ModCtrl,
	config.ModShift: hotkey.ModShift,
	config.ModAlt:   hotkey.ModAlt,
	config.ModSuper: hotkey.ModWin,
}

// keyGrave VK_OEM_3.
const keyGrave = hotkey.Key(0xC0)

//go:build darwin

package hotkey

import (
	"golang.design/x/hotkey"

	"github.com/freeai-utils/freeai-utils/internal/config"
)

// modifierMap маппинг config.Modifier -> hotkey.Modifier
var modifierMap = map[config.Modifier]hotkey.Modifier{
	config.ModCtrl:  hotkey.ModCtrl,
	config.ModShift: hotkey.ModShift,
	config.ModAlt:   hotkey.ModOption,
	config.ModSuper: hotkey.ModCmd,
}

// keyGrave kVK_ANSI_Grave.
const keyGrave = hotkey.Key(0x32)

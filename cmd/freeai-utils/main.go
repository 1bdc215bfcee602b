// freeai-utils - набор обёрток над бесплатными AI-моделями и сервисами.
//
// Команды: setup, clean, secret-key, install-deps, guide, code-helper,
// dictate, record, transcribe, models, config.
package main

import (
	"os"

	"github.com/freeai-utils/freeai-utils/internal/cli"
	"github.com/freeai-utils/freeai-utils/internal/hotkey"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

func main() {
	cli.Version = Version

	code := 0
	// Горячие клавиши требуют главного потока (macOS)
	hotkey.RunOnMainThread(func() {
		code = cli.Execute()
	})
	os.Exit(code)
}

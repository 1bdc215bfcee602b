package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/freeai-utils/freeai-utils/models"
)

func newGuideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guide",
		Short: "Подробная справка по командам",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printGuide(cmd.OutOrStdout())
		},
	}
}

func printGuide(out io.Writer) {
	separator(out)
	fmt.Fprintln(out, "HELP")
	separator(out)

	fmt.Fprintln(out, "Usage: freeai-utils setup [FLAG] [-y]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, " Flags:")
	for _, flag := range models.Flags() {
		fmt.Fprintf(out, "   %-4s %-40s →  freeai-utils setup %s\n", flag, models.GroupDescription(flag), flag)
	}
	separator(out)

	fmt.Fprintln(out, "Usage: freeai-utils clean [FLAG] [-y]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Description: Clean up downloaded files and models from the setup command")
	fmt.Fprintln(out, " Flags:")
	fmt.Fprintln(out, "   A     Remove both downloaded safetensors and Vosk models  →  freeai-utils clean A")
	fmt.Fprintln(out, "   ICF   Remove safetensors files downloaded by setup ICF    →  freeai-utils clean ICF")
	fmt.Fprintln(out, "   V     Remove Vosk models                                  →  freeai-utils clean V")
	separator(out)

	fmt.Fprintln(out, "Usage: freeai-utils secret-key [ACTION] [KEY|KEY=VALUE]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Description: Manage environment variables in the local .env file.")
	fmt.Fprintln(out, " Actions:")
	fmt.Fprintln(out, "   add      Add or update a KEY=VALUE pair  →  freeai-utils secret-key add GEMINI_API_KEY=12345")
	fmt.Fprintln(out, "   remove   Remove a key                    →  freeai-utils secret-key remove GEMINI_API_KEY")
	fmt.Fprintln(out, "   read     Display all keys in .env        →  freeai-utils secret-key read")
	separator(out)

	fmt.Fprintln(out, "Usage: freeai-utils install-deps [FLAG]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Description: Check the external programs the wrappers rely on and print install hints.")
	fmt.Fprintln(out, " Flags:")
	fmt.Fprintln(out, "   ai     Programs for AI features         →  freeai-utils install-deps ai")
	fmt.Fprintln(out, "   all    All programs (default)           →  freeai-utils install-deps all")
	separator(out)

	fmt.Fprintln(out, "Usage: freeai-utils code-helper [APIKEY] [HOTKEY]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Description: Press the hotkey (default `) to send a screenshot to Gemini and copy the answer.")
	separator(out)

	fmt.Fprintln(out, "Usage: freeai-utils config [set KEY VALUE | hotkey]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Description: Show or change config.json: language, ui-language, notifications, hotkey,")
	fmt.Fprintln(out, "             whisper-model, device, llm-url, llm-model, gemini-model.")
	separator(out)

	fmt.Fprintln(out, "Usage: freeai-utils dictate | record | transcribe | models")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Description: Voice input, microphone recording, file transcription and the model list.")
	fmt.Fprintln(out, "             Run 'freeai-utils <command> --help' for flags.")
	separator(out)
}

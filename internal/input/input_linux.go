//go:build linux

package input

import (
	"fmt"
	"os"
	"os/exec"
)

type linuxTyper struct {
	tool string
	args func(text string) []string
}

// linuxTools утилиты в порядке предпочтения для сессии.
func linuxTools(wayland bool) []linuxTyper {
	wtype := linuxTyper{tool: "wtype", args: func(text string) []string { return []string{"--", text} }}
	ydotool := linuxTyper{tool: "ydotool", args: func(text string) []string { return []string{"type", "--", text} }}
	xdotool := linuxTyper{tool: "xdotool", args: func(text string) []string {
		return []string{"type", "--clearmodifiers", "--", text}
	}}
	if wayland {
		return []linuxTyper{wtype, ydotool, xdotool}
	}
	return []linuxTyper{xdotool, ydotool}
}

func pickTyper(wayland bool, lookPath func(string) (string, error)) (*linuxTyper, error) {
	for _, t := range linuxTools(wayland) {
		if _, err := lookPath(t.tool); err == nil {
			return &t, nil
		}
	}
	return nil, ErrNoTyper
}

func newTyper() (Typer, error) {
	return pickTyper(os.Getenv("WAYLAND_DISPLAY") != "", exec.LookPath)
}

func (t *linuxTyper) Name() string { return t.tool }

func (t *linuxTyper) Type(text string) error {
	if text == "" {
		return nil
	}
	if out, err := exec.Command(t.tool, t.args(text)...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", t.tool, err, out)
	}
	return nil
}

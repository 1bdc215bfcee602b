package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func lookPathOf(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestFallbackCommand(t *testing.T) {
	require.Equal(t, []string{"wl-copy"}, fallbackCommand(true, lookPathOf("wl-copy", "xclip")))
	require.Equal(t, []string{"xclip", "-selection", "clipboard"}, fallbackCommand(false, lookPathOf("wl-copy", "xclip")))
	require.Equal(t, []string{"xsel", "--clipboard", "--input"}, fallbackCommand(true, lookPathOf("xsel")))
	require.Nil(t, fallbackCommand(true, lookPathOf()))
}

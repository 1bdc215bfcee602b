package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/freeai-utils/freeai-utils/envfile"
	"github.com/freeai-utils/freeai-utils/internal/i18n"
)

func newSecretKeyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "secret-key add|remove|read [KEY|KEY=VALUE]",
		Short: "Управление ключами в файле .env",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := strings.ToLower(args[0])
			arg := ""
			if len(args) == 2 {
				arg = args[1]
			}
			return secretKey(cmd.OutOrStdout(), filepath.Join(e.dir, envfile.FileName), action, arg)
		},
	}
}

func secretKey(out io.Writer, path, action, arg string) error {
	switch action {
	case "add", "remove":
		if arg == "" {
			return errors.New(i18n.Tf("secret_requires_arg", action))
		}
	case "read":
	default:
		return errors.New(i18n.T("secret_invalid_action"))
	}

	_, statErr := os.Stat(path)
	exists := statErr == nil

	switch action {
	case "read":
		lines, err := envfile.Read(path)
		if err != nil && !errors.Is(err, envfile.ErrNotFound) {
			return err
		}
		fmt.Fprintln(out, i18n.Tf("secret_reading", path))
		fmt.Fprint(out, i18n.T("secret_content_header"))
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
		fmt.Fprintln(out, i18n.T("secret_content_footer"))
		return nil

	case "add":
		if exists {
			fmt.Fprintln(out, i18n.Tf("secret_reading", path))
		} else {
			fmt.Fprintln(out, i18n.Tf("secret_new_file", path))
		}
		res, err := envfile.Add(path, arg)
		if err != nil {
			return err
		}
		if res.Action == envfile.ActionUpdated {
			fmt.Fprintln(out, i18n.Tf("secret_updated", res.Key))
		} else {
			fmt.Fprintln(out, i18n.Tf("secret_added", res.Key))
		}
		reportWrite(out, res)
		return nil

	default:
		if _, err := envfile.ParseKey(arg); err != nil {
			return err
		}
		if !exists {
			return errors.New(i18n.Tf("secret_no_file", path, arg))
		}
		fmt.Fprintln(out, i18n.Tf("secret_reading", path))
		res, err := envfile.Remove(path, arg)
		if err != nil {
			return err
		}
		if res.Action == envfile.ActionRemoved {
			fmt.Fprintln(out, i18n.Tf("secret_removed", res.Key))
		} else {
			warnColor.Fprintln(out, i18n.Tf("secret_not_found", res.Key))
		}
		reportWrite(out, res)
		return nil
	}
}

func reportWrite(out io.Writer, res envfile.Result) {
	if res.Written {
		fmt.Fprintln(out, i18n.T("secret_written"))
	} else {
		fmt.Fprintln(out, i18n.T("secret_unchanged"))
	}
}

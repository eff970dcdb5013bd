package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2020-qqtcg/mindci/internal/command"
)

// NewParseCmd создаёт команду offline-проверки текста комментария.
//
// Позволяет проверить, распознается ли комментарий как команда /model,
// не поднимая сервер:
//
//	mindci parse "/model bert"       → model: bert
//	mindci parse "/model ../etc"     → exit 1, no valid model command
//	mindci parse "LGTM"              → exit 0, ignored
func NewParseCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "parse COMMENT",
		Short: "Check whether a comment is a valid /model command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			parsed, err := command.Parse(args[0])
			if err != nil {
				if errors.Is(err, command.ErrNotCommand) {
					// Не команда — штатное игнорирование, не ошибка
					out.Success("ignored: comment does not contain " + command.Prefix)
					return nil
				}
				return err
			}

			out.Print(
				[]string{"MODEL"},
				[][]string{{parsed.Model}},
				map[string]string{"model": parsed.Model},
			)
			out.Success(fmt.Sprintf("valid command, model: %s", parsed.Model))
			return nil
		},
	}
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-jarvis/pkg/home"
)

func newVoiceCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Show or change the voice",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "List voices and mark the selected one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				current, err := e.home.Voice(ctx)
				if err != nil {
					return err
				}
				for _, v := range home.Voices() {
					mark := " "
					if v.Name == current {
						mark = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %-8s %s\n", mark, v.Name, v.Label)
				}
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Select the voice for the next conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				if err := e.home.SetVoice(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Voice set to %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(getCmd, setCmd)
	return cmd
}

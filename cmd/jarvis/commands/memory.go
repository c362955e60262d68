package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newMemoryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Show or edit the conversation memory",
		Long: `The memory is a summary of past conversations. It is added to the
system prompt of every new conversation.`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				m, err := e.home.Memory(ctx)
				if err != nil {
					return err
				}
				if m == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No memory.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), m)
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <text>",
		Short: "Replace the memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				feedback, err := e.home.SaveMemory(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), feedback)
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				feedback, err := e.home.ClearMemory(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), feedback)
				return nil
			})
		},
	}

	cmd.AddCommand(showCmd, setCmd, clearCmd)
	return cmd
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newQuoteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Print a quote of the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				fmt.Fprintln(cmd.OutOrStdout(), e.home.Quote(ctx))
				return nil
			})
		},
	}
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-jarvis/pkg/home"
)

func newTasksCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage the task list",
		Long: `Manage the task list shown on the dashboard.

Examples:
  jarvis tasks list
  jarvis tasks add "Calibrate the repulsors"
  jarvis tasks toggle 3
  jarvis tasks rm 3
  jarvis tasks push`,
	}
	cmd.AddCommand(
		newTasksListCmd(opts),
		newTasksAddCmd(opts),
		newTasksToggleCmd(opts),
		newTasksRemoveCmd(opts),
		newTasksPushCmd(opts),
	)
	return cmd
}

func newTasksListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				tasks, err := e.home.Tasks(ctx)
				if err != nil {
					return err
				}
				printTasks(cmd, tasks)
				return nil
			})
		},
	}
}

func newTasksAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				t, err := e.home.AddTask(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s\n", t.ID, t.Text)
				return nil
			})
		},
	}
}

func newTasksToggleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done or not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				t, err := e.home.ToggleTask(ctx, id)
				if err != nil {
					return err
				}
				printTasks(cmd, []home.Task{t})
				return nil
			})
		},
	}
}

func newTasksRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				if err := e.home.DeleteTask(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
				return nil
			})
		},
	}
}

func newTasksPushCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Copy the task list to Google Tasks",
		Long: `Copy the task list to a Google task list.

Requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET, and a token obtained
by opening /api/tasksync/auth on a running "jarvis serve".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				syncer, err := e.syncer()
				if err != nil {
					return err
				}
				if syncer == nil {
					return errors.New("google tasks is not configured: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
				}
				res, err := syncer.Push(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Synced: %d new, %d updated, %d unchanged.\n", res.Created, res.Updated, res.Unchanged)
				return nil
			})
		},
	}
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func printTasks(cmd *cobra.Command, tasks []home.Task) {
	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return
	}
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s] %3d  %s\n", mark, t.ID, t.Text)
	}
}

package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-jarvis/pkg/conversation"
	"github.com/teslashibe/go-jarvis/pkg/transcript"
)

func newSummarizeCmd(opts *options) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Summarize a transcript file into memory",
		Long: `Summarize a saved transcript and store the result as memory.

The file holds one line per turn, prefixed with the speaker:

  USER: Remind me to call Pepper.
  JARVIS: Added to your tasks.

Lines without a prefix continue the previous turn. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readTranscriptFile(cmd, args[0])
			if err != nil {
				return err
			}
			return runWithEnv(cmd, opts, func(ctx context.Context, e *env) error {
				if e.text == nil {
					return errors.New("no text model: set GEMINI_API_KEY or OPENAI_API_KEY")
				}
				if len(entries) <= 1 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to summarize.")
					return nil
				}
				summary := conversation.NewSummarizer(e.text, e.logger).Summarize(ctx, entries)
				if summary == "" {
					return errors.New("summarization returned nothing")
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary)
				if dryRun {
					return nil
				}
				feedback, err := e.home.SaveMemory(ctx, summary)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), feedback)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the summary without saving it")
	return cmd
}

func readTranscriptFile(cmd *cobra.Command, path string) ([]transcript.Entry, error) {
	if path == "-" {
		return parseTranscript(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseTranscript(f)
}

// parseTranscript reads "USER:" and "JARVIS:" prefixed lines into final
// entries. Unprefixed lines are appended to the previous entry; blank
// lines are skipped.
func parseTranscript(r io.Reader) ([]transcript.Entry, error) {
	var entries []transcript.Entry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		speaker, text, ok := splitSpeaker(line)
		if !ok {
			if len(entries) == 0 {
				return nil, fmt.Errorf("transcript: line %q has no speaker", line)
			}
			last := &entries[len(entries)-1]
			last.Text += " " + line
			continue
		}
		entries = append(entries, transcript.Entry{
			ID:      len(entries),
			Speaker: speaker,
			Text:    text,
			Final:   true,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	return entries, nil
}

func splitSpeaker(line string) (transcript.Speaker, string, bool) {
	prefix, rest, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	switch sp := transcript.Speaker(strings.ToUpper(strings.TrimSpace(prefix))); sp {
	case transcript.User, transcript.Jarvis:
		return sp, strings.TrimSpace(rest), true
	default:
		return "", "", false
	}
}

// Package main provides the JARVIS voice assistant CLI.
//
// Usage:
//
//	jarvis [flags] <command> [args]
//
// Commands:
//
//	talk      - talk to JARVIS in the terminal
//	serve     - run the web dashboard
//	tasks     - manage the task list
//	memory    - show or edit the conversation memory
//	voice     - show or change the voice
//	quote     - print a quote of the day
//	summarize - summarize a transcript file into memory
//
// Configuration is read from ~/.jarvis/config.yaml, then the environment
// (GEMINI_API_KEY, OPENAI_API_KEY, JARVIS_*), then flags.
package main

import (
	"fmt"
	"os"

	"github.com/teslashibe/go-jarvis/cmd/jarvis/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package conversation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-jarvis/pkg/llm"
	"github.com/teslashibe/go-jarvis/pkg/transcript"
)

// SummaryModel is the model used to condense a finished conversation.
const SummaryModel = "gemini-2.5-flash"

const summaryPrompt = "You are a summarization model. Briefly summarize the key points of the following conversation between a USER and JARVIS. " +
	"Focus on facts, user requests, and JARVIS's commitments. Keep it concise, like a memory file for an AI. " +
	"The summary will be used to give JARVIS context for the next conversation.\n\n" +
	"CONVERSATION:\n%s\n\nSUMMARY:"

// SummaryPrompt returns the prompt sent to the summarizer for entries.
func SummaryPrompt(entries []transcript.Entry) string {
	return strings.Replace(summaryPrompt, "%s", transcript.Format(entries), 1)
}

// Summarizer turns a transcript into a short memory note.
type Summarizer struct {
	gen    llm.Generator
	logger *slog.Logger
}

// NewSummarizer creates a summarizer backed by gen.
func NewSummarizer(gen llm.Generator, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{gen: gen, logger: logger}
}

// Summarize returns the trimmed summary of entries. Any failure is logged
// and yields "".
func (s *Summarizer) Summarize(ctx context.Context, entries []transcript.Entry) string {
	if s == nil || s.gen == nil {
		return ""
	}
	out, err := s.gen.Generate(ctx, SummaryPrompt(entries))
	if err != nil {
		s.logger.Error("summarize conversation", "generator", s.gen.Name(), "error", err)
		return ""
	}
	return strings.TrimSpace(out)
}

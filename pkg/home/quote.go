package home

import (
	"context"
	"strings"
)

// QuotePrompt asks for the home screen quote.
const QuotePrompt = "Generate a short, futuristic, and inspirational quote suitable for an AI assistant like JARVIS to display on a home screen."

// FallbackQuote is shown when generation fails.
const FallbackQuote = "The future is what you make of it."

var quoteCleaner = strings.NewReplacer(`"`, "", "*", "")

// CleanQuote trims the text and strips double quotes and asterisks.
func CleanQuote(s string) string {
	return quoteCleaner.Replace(strings.TrimSpace(s))
}

// Quote generates the daily quote, or returns FallbackQuote.
func (h *Home) Quote(ctx context.Context) string {
	if h.gen == nil {
		return FallbackQuote
	}
	text, err := h.gen.Generate(ctx, QuotePrompt)
	if err != nil {
		h.logger.Error("failed to fetch quote", "error", err)
		return FallbackQuote
	}
	q := strings.TrimSpace(CleanQuote(text))
	if q == "" {
		return FallbackQuote
	}
	return q
}

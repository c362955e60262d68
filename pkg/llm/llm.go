// Package llm generates single-shot text: the daily quote and the
// end-of-conversation memory summary.
//
// Generators are tried through a Chain so a Gemini outage can fall back to
// OpenAI when a key for it is configured.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNoAPIKey            = errors.New("llm: API key required")
	ErrNoModel             = errors.New("llm: model required")
	ErrEmptyResponse       = errors.New("llm: empty response")
	ErrProviderUnavailable = errors.New("llm: provider unavailable")
)

// Generator turns a prompt into text.
type Generator interface {
	// Name identifies the backend in logs, e.g. "gemini".
	Name() string

	// Generate returns the model's text for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderError wraps an error with the generator that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm [%s]: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// WrapError wraps err with provider context. It returns nil for nil.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// ChainError aggregates the failures of every generator in a Chain.
type ChainError struct {
	Errors []error
}

func (e *ChainError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "llm chain: no errors recorded"
	case 1:
		return fmt.Sprintf("llm chain: %v", e.Errors[0])
	default:
		return fmt.Sprintf("llm chain: all %d generators failed, last error: %v",
			len(e.Errors), e.Errors[len(e.Errors)-1])
	}
}

// Unwrap returns the last error in the chain.
func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

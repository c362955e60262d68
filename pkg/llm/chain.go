package llm

import (
	"context"
	"log/slog"
)

// Chain tries generators in order until one succeeds.
type Chain struct {
	generators []Generator
	logger     *slog.Logger
}

// NewChain creates a chain. At least one generator is required.
func NewChain(logger *slog.Logger, generators ...Generator) (*Chain, error) {
	if len(generators) == 0 {
		return nil, ErrProviderUnavailable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		generators: generators,
		logger:     logger.With("component", "llm.chain"),
	}, nil
}

// Name returns "chain".
func (c *Chain) Name() string { return "chain" }

// Generate returns the first successful generation.
func (c *Chain) Generate(ctx context.Context, prompt string) (string, error) {
	var errs []error
	for i, g := range c.generators {
		text, err := g.Generate(ctx, prompt)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback generator succeeded", "generator", g.Name())
			}
			return text, nil
		}

		errs = append(errs, WrapError(g.Name(), err))
		c.logger.Warn("generator failed, trying next", "generator", g.Name(), "error", err)

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", &ChainError{Errors: errs}
}

// Generators returns the chain members in order.
func (c *Chain) Generators() []Generator {
	return c.generators
}

var _ Generator = (*Chain)(nil)

package home

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-jarvis/pkg/store"
)

// Memory editor feedback.
const (
	MemoryUpdated = "Memory Matrix Updated."
	MemoryCleared = "Memory Matrix Cleared."

	// FeedbackTTL is how long UIs show a feedback message.
	FeedbackTTL = 2 * time.Second
)

// Memory returns the stored conversation memory, or "" if none.
func (h *Home) Memory(ctx context.Context) (string, error) {
	mem, err := h.store.Get(ctx, store.KeyMemory)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("home: load memory: %w", err)
	}
	return mem, nil
}

// SaveMemory stores text verbatim, replacing any prior memory.
func (h *Home) SaveMemory(ctx context.Context, text string) (string, error) {
	if err := h.store.Set(ctx, store.KeyMemory, text); err != nil {
		return "", fmt.Errorf("home: save memory: %w", err)
	}
	return MemoryUpdated, nil
}

// ClearMemory removes the memory key.
func (h *Home) ClearMemory(ctx context.Context) (string, error) {
	if err := h.store.Delete(ctx, store.KeyMemory); err != nil {
		return "", fmt.Errorf("home: clear memory: %w", err)
	}
	return MemoryCleared, nil
}

package home

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-jarvis/pkg/store"
)

// DefaultVoice is used when no preference is stored.
const DefaultVoice = "Charon"

// Voice is a selectable prebuilt voice.
type Voice struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Voices lists the selectable voices.
func Voices() []Voice {
	return []Voice{
		{Name: "Charon", Label: "Standard Male"},
		{Name: "Kore", Label: "Female"},
	}
}

// ValidVoice reports whether name is selectable.
func ValidVoice(name string) bool {
	for _, v := range Voices() {
		if v.Name == name {
			return true
		}
	}
	return false
}

// Voice returns the stored voice preference or DefaultVoice.
func (h *Home) Voice(ctx context.Context) (string, error) {
	v, err := store.GetOr(ctx, h.store, store.KeyVoice, DefaultVoice)
	if err != nil {
		return "", fmt.Errorf("home: load voice: %w", err)
	}
	if v == "" {
		return DefaultVoice, nil
	}
	return v, nil
}

// SetVoice persists the voice preference.
func (h *Home) SetVoice(ctx context.Context, name string) error {
	if !ValidVoice(name) {
		return fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}
	if err := h.store.Set(ctx, store.KeyVoice, name); err != nil {
		return fmt.Errorf("home: save voice: %w", err)
	}
	return nil
}

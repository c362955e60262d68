package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "JARVIS_LOG_LEVEL",
		"JARVIS_DATA_DIR", "JARVIS_LIVE_PROVIDER", "JARVIS_LIVE_MODEL", "JARVIS_TEXT_MODEL",
		"JARVIS_AUDIO_BACKEND", "JARVIS_STORE", "JARVIS_STORE_PATH", "JARVIS_PORT",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "JARVIS_FRAME_SAMPLES",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Live.Model != DefaultLiveModel {
		t.Errorf("Live.Model = %q, want %q", cfg.Live.Model, DefaultLiveModel)
	}
	if cfg.Text.Model != DefaultTextModel {
		t.Errorf("Text.Model = %q, want %q", cfg.Text.Model, DefaultTextModel)
	}
	if cfg.Audio.InputRate != 16000 || cfg.Audio.OutputRate != 24000 {
		t.Errorf("rates = %d/%d, want 16000/24000", cfg.Audio.InputRate, cfg.Audio.OutputRate)
	}
	if cfg.Audio.FrameSamples != 4096 {
		t.Errorf("FrameSamples = %d, want 4096", cfg.Audio.FrameSamples)
	}
	if cfg.Live.Voice != "Charon" {
		t.Errorf("Voice = %q, want Charon", cfg.Live.Voice)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad store", func(c *Config) { c.Store.Backend = "redis" }, "store.backend"},
		{"bad provider", func(c *Config) { c.Live.Provider = "grpc" }, "live.provider"},
		{"zero rate", func(c *Config) { c.Audio.InputRate = 0 }, "audio"},
		{"zero frame", func(c *Config) { c.Audio.FrameSamples = 0 }, "audio.frame_samples"},
		{"zero buffer", func(c *Config) { c.Live.SendBuffer = 0 }, "live.send_buffer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestRequireLive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GoogleAPIKey = ""
	if err := cfg.RequireLive(); err == nil {
		t.Error("expected error without API key")
	}
	cfg.GoogleAPIKey = "key"
	if err := cfg.RequireLive(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", cfg.Server.Port, DefaultPort)
	}
}

func TestLoadYAMLAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
log_level: debug
live:
  provider: socket
  voice: Kore
store:
  backend: sqlite
server:
  port: "9000"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("JARVIS_PORT", "9100")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Live.Provider != LiveSocket {
		t.Errorf("Provider = %q, want socket", cfg.Live.Provider)
	}
	if cfg.Live.Voice != "Kore" {
		t.Errorf("Voice = %q, want Kore", cfg.Live.Voice)
	}
	// Unset fields keep their defaults.
	if cfg.Live.Model != DefaultLiveModel {
		t.Errorf("Model = %q, want default", cfg.Live.Model)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("Port = %q, want env override 9100", cfg.Server.Port)
	}
	if cfg.GoogleAPIKey != "google-key" {
		t.Errorf("GoogleAPIKey = %q", cfg.GoogleAPIKey)
	}
}

func TestGeminiKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini")
	t.Setenv("GOOGLE_API_KEY", "google")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	if cfg.GoogleAPIKey != "gemini" {
		t.Errorf("GoogleAPIKey = %q, want gemini", cfg.GoogleAPIKey)
	}
}

func TestStorePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"

	tests := []struct {
		backend string
		want    string
	}{
		{StoreJSON, "/data/store.json"},
		{StoreSQLite, "/data/store.db"},
		{StoreBadger, "/data/badger"},
	}
	for _, tt := range tests {
		cfg.Store.Backend = tt.backend
		if got := cfg.StorePath(); got != tt.want {
			t.Errorf("StorePath(%s) = %q, want %q", tt.backend, got, tt.want)
		}
	}

	cfg.Store.Path = "/elsewhere.db"
	if got := cfg.StorePath(); got != "/elsewhere.db" {
		t.Errorf("explicit path ignored: %q", got)
	}
}

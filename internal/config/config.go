// Package config loads go-jarvis configuration.
//
// Priority (highest to lowest): CLI flags > environment variables > YAML file > defaults.
// Flag parsing lives in cmd/jarvis; this package is data only.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultLiveModel    = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultTextModel    = "gemini-2.5-flash"
	DefaultOpenAIModel  = "gpt-4o-mini"
	DefaultInputRate    = 16000
	DefaultOutputRate   = 24000
	DefaultFrameSamples = 4096
	DefaultPort         = "8080"
	DefaultVoice        = "Charon"
	DefaultDirName      = ".jarvis"
	DefaultFileName     = "config.yaml"
)

// Store backends.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

// Live providers.
const (
	LiveGenAI  = "genai"
	LiveSocket = "socket"
)

// LiveConfig configures the realtime voice session.
type LiveConfig struct {
	// Provider selects the live transport: "genai" (SDK) or "socket" (raw WebSocket).
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// Voice is the voice used when no preference is stored.
	Voice string `yaml:"voice"`
	// SendBuffer is the number of outbound frames queued before dropping.
	SendBuffer int `yaml:"send_buffer"`
}

// TextConfig configures single-shot generation (quotes, summaries).
type TextConfig struct {
	Model       string `yaml:"model"`
	OpenAIModel string `yaml:"openai_model"`
}

// AudioConfig configures local capture and playback.
type AudioConfig struct {
	Backend      string `yaml:"backend"`
	InputRate    int    `yaml:"input_rate"`
	OutputRate   int    `yaml:"output_rate"`
	FrameSamples int    `yaml:"frame_samples"`
	InputDevice  string `yaml:"input_device"`
	OutputDevice string `yaml:"output_device"`
}

// StoreConfig configures the local key-value store.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Path is the file (json, sqlite) or directory (badger). Empty uses DataDir.
	Path string `yaml:"path"`
}

// ServerConfig configures the web dashboard.
type ServerConfig struct {
	Port      string `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// GoogleConfig configures the optional Google Tasks sync.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	TokenPath    string `yaml:"token_path"`
	// TaskList is the title of the Google task list pushed to.
	TaskList     string `yaml:"task_list"`
}

// Config holds all configuration for go-jarvis.
type Config struct {
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`

	// API keys (typically from environment variables).
	GoogleAPIKey string `yaml:"google_api_key"`
	OpenAIKey    string `yaml:"openai_api_key"`

	Live   LiveConfig   `yaml:"live"`
	Text   TextConfig   `yaml:"text"`
	Audio  AudioConfig  `yaml:"audio"`
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Google GoogleConfig `yaml:"google"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		DataDir:  defaultDataDir(),
		Live: LiveConfig{
			Provider:   LiveGenAI,
			Model:      DefaultLiveModel,
			Voice:      DefaultVoice,
			SendBuffer: 64,
		},
		Text: TextConfig{
			Model:       DefaultTextModel,
			OpenAIModel: DefaultOpenAIModel,
		},
		Audio: AudioConfig{
			Backend:      "auto",
			InputRate:    DefaultInputRate,
			OutputRate:   DefaultOutputRate,
			FrameSamples: DefaultFrameSamples,
		},
		Store: StoreConfig{
			Backend: StoreJSON,
		},
		Server: ServerConfig{
			Port: DefaultPort,
		},
		Google: GoogleConfig{
			RedirectURL: "http://localhost:" + DefaultPort + "/api/tasksync/callback",
			TaskList:    "JARVIS",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), DefaultFileName)
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv applies environment variable overrides.
func (c *Config) ApplyEnv() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.GoogleAPIKey = key
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.GoogleAPIKey = key
	}
	setString(&c.OpenAIKey, "OPENAI_API_KEY")
	setString(&c.LogLevel, "JARVIS_LOG_LEVEL")
	setString(&c.DataDir, "JARVIS_DATA_DIR")
	setString(&c.Live.Provider, "JARVIS_LIVE_PROVIDER")
	setString(&c.Live.Model, "JARVIS_LIVE_MODEL")
	setString(&c.Text.Model, "JARVIS_TEXT_MODEL")
	setString(&c.Audio.Backend, "JARVIS_AUDIO_BACKEND")
	setString(&c.Store.Backend, "JARVIS_STORE")
	setString(&c.Store.Path, "JARVIS_STORE_PATH")
	setString(&c.Server.Port, "JARVIS_PORT")
	setString(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	if v := os.Getenv("JARVIS_FRAME_SAMPLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Audio.FrameSamples = n
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Validate checks that the configuration is usable.
// API keys are not required here; see RequireLive.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreJSON, StoreSQLite, StoreBadger, StoreMemory:
	default:
		return &ConfigError{Field: "store.backend", Message: fmt.Sprintf("unknown store backend %q", c.Store.Backend)}
	}
	switch c.Live.Provider {
	case LiveGenAI, LiveSocket:
	default:
		return &ConfigError{Field: "live.provider", Message: fmt.Sprintf("unknown live provider %q", c.Live.Provider)}
	}
	if c.Audio.InputRate <= 0 || c.Audio.OutputRate <= 0 {
		return &ConfigError{Field: "audio", Message: "sample rates must be positive"}
	}
	if c.Audio.FrameSamples <= 0 {
		return &ConfigError{Field: "audio.frame_samples", Message: "frame size must be positive"}
	}
	if c.Live.SendBuffer <= 0 {
		return &ConfigError{Field: "live.send_buffer", Message: "send buffer must be positive"}
	}
	return nil
}

// RequireLive checks the settings needed to talk to the remote service.
func (c *Config) RequireLive() error {
	if c.GoogleAPIKey == "" {
		return &ConfigError{Field: "google_api_key", Message: "GEMINI_API_KEY or GOOGLE_API_KEY environment variable is required"}
	}
	return nil
}

// StorePath returns the store location, derived from DataDir when unset.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	switch c.Store.Backend {
	case StoreSQLite:
		return filepath.Join(c.DataDir, "store.db")
	case StoreBadger:
		return filepath.Join(c.DataDir, "badger")
	default:
		return filepath.Join(c.DataDir, "store.json")
	}
}

// TokenPath returns the Google OAuth token location.
func (c *Config) TokenPath() string {
	if c.Google.TokenPath != "" {
		return c.Google.TokenPath
	}
	return filepath.Join(c.DataDir, "google_token.json")
}

// LogPath returns the log file used by the terminal UI.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "jarvis.log")
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Message
}

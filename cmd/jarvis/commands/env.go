package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-jarvis/internal/config"
	"github.com/teslashibe/go-jarvis/internal/httpc"
	"github.com/teslashibe/go-jarvis/internal/log"
	"github.com/teslashibe/go-jarvis/pkg/audioio"
	"github.com/teslashibe/go-jarvis/pkg/conversation"
	"github.com/teslashibe/go-jarvis/pkg/home"
	"github.com/teslashibe/go-jarvis/pkg/live"
	_ "github.com/teslashibe/go-jarvis/pkg/live/bundled"
	"github.com/teslashibe/go-jarvis/pkg/llm"
	"github.com/teslashibe/go-jarvis/pkg/store"
	"github.com/teslashibe/go-jarvis/pkg/tasksync"
	"github.com/teslashibe/go-jarvis/pkg/tools"
)

const httpTimeout = 60 * time.Second

// env is the set of shared dependencies a command runs against.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	client *http.Client
	store  store.Store
	text   llm.Generator
	home   *home.Home
}

// newEnv opens the store and builds the text generator and home widgets.
// Logging must already be initialised.
func newEnv(ctx context.Context, cfg config.Config) (*env, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.Open(cfg.Store.Backend, cfg.StorePath())
	if err != nil {
		return nil, err
	}

	logger := log.L()
	client := httpc.NewClient(httpTimeout)
	text, err := textGenerator(ctx, cfg, client, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		client: client,
		store:  st,
		text:   text,
		home:   home.New(st, text, home.WithLogger(logger)),
	}, nil
}

// Close releases the store.
func (e *env) Close() error {
	return e.store.Close()
}

// textGenerator returns Gemini, OpenAI or a chain of both, depending on
// which API keys are set. It returns nil when neither is.
func textGenerator(ctx context.Context, cfg config.Config, client *http.Client, logger *slog.Logger) (llm.Generator, error) {
	var gens []llm.Generator
	if cfg.GoogleAPIKey != "" {
		g, err := llm.NewGemini(ctx, cfg.GoogleAPIKey, cfg.Text.Model, client)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	if cfg.OpenAIKey != "" {
		o, err := llm.NewOpenAI(cfg.OpenAIKey, cfg.Text.OpenAIModel, client)
		if err != nil {
			return nil, err
		}
		gens = append(gens, o)
	}
	switch len(gens) {
	case 0:
		return nil, nil
	case 1:
		return gens[0], nil
	default:
		chain, err := llm.NewChain(logger, gens...)
		if err != nil {
			return nil, err
		}
		return chain, nil
	}
}

// session returns the controller configuration without audio devices.
func (e *env) session() (conversation.Config, error) {
	if err := e.cfg.RequireLive(); err != nil {
		return conversation.Config{}, err
	}
	provider, err := live.New(e.cfg.Live.Provider, live.Options{
		APIKey:     e.cfg.GoogleAPIKey,
		HTTPClient: e.client,
		Logger:     e.logger,
	})
	if err != nil {
		return conversation.Config{}, err
	}

	var summarizer *conversation.Summarizer
	if e.text != nil {
		summarizer = conversation.NewSummarizer(e.text, e.logger)
	}
	return conversation.Config{
		Provider:   provider,
		Store:      e.store,
		Summarizer: summarizer,
		Tools:      tools.Home(e.home, time.Now, e.logger),
		Model:      e.cfg.Live.Model,
		Voice:      e.cfg.Live.Voice,
		InputRate:  e.cfg.Audio.InputRate,
		OutputRate: e.cfg.Audio.OutputRate,
		SendBuffer: e.cfg.Live.SendBuffer,
		Logger:     e.logger,
	}, nil
}

// sourceConfig and sinkConfig describe the local audio devices.
func (e *env) sourceConfig() audioio.Config {
	c := audioio.DefaultConfig()
	c.Backend = audioio.Backend(e.cfg.Audio.Backend)
	c.SampleRate = e.cfg.Audio.InputRate
	c.FrameSize = e.cfg.Audio.FrameSamples
	c.Device = e.cfg.Audio.InputDevice
	return c
}

func (e *env) sinkConfig() audioio.Config {
	c := audioio.DefaultOutputConfig()
	c.Backend = audioio.Backend(e.cfg.Audio.Backend)
	c.SampleRate = e.cfg.Audio.OutputRate
	c.Device = e.cfg.Audio.OutputDevice
	return c
}

// syncer returns the Google Tasks syncer, or nil when no OAuth client is
// configured.
func (e *env) syncer() (*tasksync.Syncer, error) {
	s, err := tasksync.New(tasksync.Config{
		ClientID:     e.cfg.Google.ClientID,
		ClientSecret: e.cfg.Google.ClientSecret,
		RedirectURL:  e.cfg.Google.RedirectURL,
		TokenPath:    e.cfg.TokenPath(),
		ListTitle:    e.cfg.Google.TaskList,
		Logger:       e.logger,
	}, e.home)
	if errors.Is(err, tasksync.ErrMissingCredentials) {
		return nil, nil
	}
	return s, err
}

// runWithEnv loads the configuration, logs to stderr and runs fn against a
// fresh env.
func runWithEnv(cmd *cobra.Command, opts *options, fn func(ctx context.Context, e *env) error) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	log.InitWriter(cfg.LogLevel, cmd.ErrOrStderr())

	e, err := newEnv(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(cmd.Context(), e)
}

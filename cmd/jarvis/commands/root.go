package commands

import (
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-jarvis/internal/config"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath   string
	logLevel     string
	dataDir      string
	storeBackend string
	liveProvider string
	audioBackend string
	frameSamples int
	inputDevice  string
	outputDevice string
	liveModel    string
	textModel    string
}

// NewRootCommand builds the jarvis command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "jarvis",
		Short: "JARVIS voice assistant",
		Long: `jarvis is a personal voice assistant.

It holds a realtime voice conversation with a remote model, shows a live
transcript and a status aura, and keeps a small home dashboard: tasks,
memory of past conversations, smart-home toggles and a voice selector.

Configuration is read from ~/.jarvis/config.yaml, then the environment,
then flags. GEMINI_API_KEY (or GOOGLE_API_KEY) is required to talk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default is ~/.jarvis/config.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&opts.dataDir, "data-dir", "", "directory for the store, token and log (default is ~/.jarvis)")
	pf.StringVar(&opts.storeBackend, "store", "", "store backend: json, sqlite, badger, memory")
	pf.StringVar(&opts.liveProvider, "live", "", "live provider: genai, socket")
	pf.StringVar(&opts.liveModel, "live-model", "", "model for voice sessions")
	pf.StringVar(&opts.textModel, "text-model", "", "model for quotes and summaries")
	pf.StringVar(&opts.audioBackend, "audio", "", "audio backend: auto, exec, mock")
	pf.IntVar(&opts.frameSamples, "frame-samples", 0, "microphone samples per frame")
	pf.StringVar(&opts.inputDevice, "input-device", "", "capture device, e.g. plughw:1,0")
	pf.StringVar(&opts.outputDevice, "output-device", "", "playback device")

	root.AddCommand(
		newTalkCmd(opts),
		newServeCmd(opts),
		newTasksCmd(opts),
		newMemoryCmd(opts),
		newVoiceCmd(opts),
		newQuoteCmd(opts),
		newSummarizeCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig reads the config file and environment, then applies the flags
// that were set on cmd.
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("log-level", &cfg.LogLevel, opts.logLevel)
	set("data-dir", &cfg.DataDir, opts.dataDir)
	set("store", &cfg.Store.Backend, opts.storeBackend)
	set("live", &cfg.Live.Provider, opts.liveProvider)
	set("live-model", &cfg.Live.Model, opts.liveModel)
	set("text-model", &cfg.Text.Model, opts.textModel)
	set("audio", &cfg.Audio.Backend, opts.audioBackend)
	set("input-device", &cfg.Audio.InputDevice, opts.inputDevice)
	set("output-device", &cfg.Audio.OutputDevice, opts.outputDevice)
	if flags.Changed("frame-samples") {
		cfg.Audio.FrameSamples = opts.frameSamples
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

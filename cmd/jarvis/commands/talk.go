package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-jarvis/internal/log"
	"github.com/teslashibe/go-jarvis/pkg/audioio"
	"github.com/teslashibe/go-jarvis/pkg/conversation"
	"github.com/teslashibe/go-jarvis/pkg/tui"
)

func newTalkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "talk",
		Short: "Talk to JARVIS in the terminal",
		Long: `Open the terminal dashboard and talk to JARVIS.

The microphone and speaker are driven by the platform tools (arecord/aplay
on Linux, SoX rec/play on macOS). Logs go to ~/.jarvis/jarvis.log so they
do not corrupt the screen.

Keys:
  tab       switch panel
  c         start a conversation
  m         mute or unmute
  e, esc    end the conversation
  q         quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logFile, err := log.InitFile(cfg.LogLevel, cfg.LogPath())
			if err != nil {
				return err
			}
			defer logFile.Close()

			e, err := newEnv(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			session, err := e.session()
			if err != nil {
				return err
			}
			session.OpenSource = func() (audioio.Source, error) {
				return audioio.NewSource(e.sourceConfig(), e.logger)
			}
			session.OpenSink = func() (audioio.Sink, error) {
				return audioio.NewSink(e.sinkConfig(), e.logger)
			}
			conv, err := conversation.New(session)
			if err != nil {
				return err
			}
			defer conv.Close()

			snapshots, unsubscribe := conv.Subscribe()
			defer unsubscribe()

			uiOpts := tui.Options{
				Home:      e.home,
				Session:   conv,
				Snapshots: snapshots,
			}
			syncer, err := e.syncer()
			if err != nil {
				e.logger.Warn("google tasks unavailable", "error", err)
			} else if syncer != nil && syncer.IsAuthenticated() {
				uiOpts.Tasks = syncer
			}

			e.logger.Info("starting terminal ui",
				"store", cfg.Store.Backend,
				"live", cfg.Live.Provider,
				"audio", cfg.Audio.Backend,
				"available", audioio.AvailableBackends())
			if _, err := tea.NewProgram(tui.New(uiOpts), tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("terminal ui: %w", err)
			}
			return nil
		},
	}
}

package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-jarvis/internal/log"
	"github.com/teslashibe/go-jarvis/pkg/rtc"
	"github.com/teslashibe/go-jarvis/pkg/rtc/opus"
	"github.com/teslashibe/go-jarvis/pkg/web"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		port      string
		staticDir string
		stun      []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		Long: `Serve the dashboard API and the conversation endpoints.

The browser sends microphone audio over /ws/conversation (PCM16) or
WebRTC (/api/rtc/offer, Opus). One conversation runs at a time.

Google Tasks sync is enabled when GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET
are set; open /api/tasksync/auth to connect.

Examples:
  jarvis serve
  jarvis serve --port 9000 --static ./web/dist`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("static") {
				cfg.Server.StaticDir = staticDir
			}
			log.Init(cfg.LogLevel)

			e, err := newEnv(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			session, err := e.session()
			if err != nil {
				return err
			}
			syncer, err := e.syncer()
			if err != nil {
				return err
			}
			if syncer == nil {
				e.logger.Info("google tasks sync disabled")
			}

			srv, err := web.New(web.Config{
				Port:      cfg.Server.Port,
				StaticDir: cfg.Server.StaticDir,
				Home:      e.home,
				Session:   session,
				Tasks:     syncer,
				RTC: rtc.Config{
					Codec:      opus.Codec{},
					InputRate:  cfg.Audio.InputRate,
					FrameSize:  cfg.Audio.FrameSamples,
					OutputRate: cfg.Audio.OutputRate,
					ICEServers: stun,
					Logger:     e.logger,
				},
				Logger: e.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (default 8080)")
	cmd.Flags().StringVar(&staticDir, "static", "", "directory of static files to serve at /")
	cmd.Flags().StringSliceVar(&stun, "ice", nil, "ICE server URLs for WebRTC")
	return cmd
}

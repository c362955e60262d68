// Package web serves the JARVIS dashboard: a JSON API over the home
// widgets, a status broadcast hub, and browser audio for the live
// conversation over a websocket or WebRTC.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-jarvis/pkg/audioio"
	"github.com/teslashibe/go-jarvis/pkg/conversation"
	"github.com/teslashibe/go-jarvis/pkg/home"
	"github.com/teslashibe/go-jarvis/pkg/hub"
	"github.com/teslashibe/go-jarvis/pkg/rtc"
	"github.com/teslashibe/go-jarvis/pkg/tasksync"
)

// ErrBusy is returned when a second browser tries to start a conversation.
var ErrBusy = errors.New("web: a conversation is already in progress")

// Views selected by the router.
const (
	ViewHome         = "home"
	ViewConversation = "conversation"
)

// Config configures the dashboard server.
type Config struct {
	Port      string
	StaticDir string

	Home *home.Home

	// Session is the controller template. OpenSource, OpenSink and
	// OnEnded are replaced by the server.
	Session conversation.Config

	// Tasks enables the Google Tasks routes when non-nil.
	Tasks *tasksync.Syncer

	RTC rtc.Config

	Logger *slog.Logger
}

// Devices are the audio endpoints of the attached browser.
type Devices struct {
	Owner  string
	Source audioio.Source
	Sink   audioio.Sink
}

// Server is the web dashboard server.
type Server struct {
	app    *fiber.App
	cfg    Config
	home   *home.Home
	conv   *conversation.Controller
	tasks  *tasksync.Syncer
	logger *slog.Logger

	statusHub *hub.Hub

	mu      sync.Mutex
	devices *Devices
	peers   map[string]*rtc.Peer
}

// New creates the server and its conversation controller.
func New(cfg Config) (*Server, error) {
	if cfg.Home == nil {
		return nil, errors.New("web: home is required")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "web")

	s := &Server{
		cfg:       cfg,
		home:      cfg.Home,
		tasks:     cfg.Tasks,
		logger:    logger,
		statusHub: hub.New("status", cfg.Logger, hub.WithRetainLast()),
		peers:     make(map[string]*rtc.Peer),
	}

	session := cfg.Session
	session.OpenSource = s.openSource
	session.OpenSink = s.openSink
	session.OnEnded = func(err error) {
		if err != nil {
			logger.Warn("conversation ended with error", "error", err)
			return
		}
		logger.Info("conversation ended")
	}
	if session.Logger == nil {
		session.Logger = cfg.Logger
	}
	conv, err := conversation.New(session)
	if err != nil {
		return nil, fmt.Errorf("web: create controller: %w", err)
	}
	s.conv = conv

	app := fiber.New(fiber.Config{
		AppName:               "JARVIS Dashboard",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/home", s.handleHome)
	api.Get("/quote", s.handleQuote)
	api.Get("/view", s.handleView)

	api.Get("/tasks", s.handleListTasks)
	api.Post("/tasks", s.handleAddTask)
	api.Post("/tasks/:id/toggle", s.handleToggleTask)
	api.Delete("/tasks/:id", s.handleDeleteTask)

	api.Get("/memory", s.handleGetMemory)
	api.Put("/memory", s.handleSaveMemory)
	api.Delete("/memory", s.handleClearMemory)

	api.Get("/voice", s.handleGetVoice)
	api.Put("/voice", s.handleSetVoice)

	api.Get("/smarthome", s.handleSmartHome)
	api.Post("/smarthome/:device", s.handleToggleDevice)

	api.Get("/status", s.handleStatus)
	api.Post("/conversation/mute", s.handleMute)
	api.Post("/conversation/end", s.handleEnd)

	api.Post("/rtc/offer", s.handleRTCOffer)

	api.Get("/tasksync/auth", s.handleTaskSyncAuth)
	api.Get("/tasksync/callback", s.handleTaskSyncCallback)
	api.Post("/tasksync/push", s.handleTaskSyncPush)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/conversation", websocket.New(s.handleConversationWS))

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	s.app = app
	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Controller returns the conversation controller.
func (s *Server) Controller() *conversation.Controller { return s.conv }

// StatusHub returns the snapshot broadcast hub.
func (s *Server) StatusHub() *hub.Hub { return s.statusHub }

// Run starts the status hub and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.statusHub.Run(ctx)
	go s.pumpStatus(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "url", "http://localhost:"+s.cfg.Port)
		errCh <- s.app.Listen(":" + s.cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown ends any conversation and stops the HTTP server.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	peers := make([]*rtc.Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()
	for _, p := range peers {
		_ = p.Close()
	}
	err := s.conv.Close()
	if shutdownErr := s.app.Shutdown(); shutdownErr != nil {
		return shutdownErr
	}
	return err
}

// pumpStatus forwards every controller snapshot to the status hub.
func (s *Server) pumpStatus(ctx context.Context) {
	snaps, cancel := s.conv.Subscribe()
	defer cancel()
	if err := s.statusHub.BroadcastJSON(s.conv.Snapshot()); err != nil {
		s.logger.Warn("broadcast status", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if err := s.statusHub.BroadcastJSON(snap); err != nil {
				s.logger.Warn("broadcast status", "error", err)
			}
		}
	}
}

func (s *Server) attach(d Devices) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.devices != nil {
		return ErrBusy
	}
	s.devices = &d
	return nil
}

func (s *Server) detach(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.devices != nil && s.devices.Owner == owner {
		s.devices = nil
	}
}

func (s *Server) attached() (Devices, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.devices == nil {
		return Devices{}, false
	}
	return *s.devices, true
}

func (s *Server) openSource() (audioio.Source, error) {
	d, ok := s.attached()
	if !ok {
		return nil, conversation.ErrNoDevices
	}
	return d.Source, nil
}

func (s *Server) openSink() (audioio.Sink, error) {
	d, ok := s.attached()
	if !ok {
		return nil, conversation.ErrNoDevices
	}
	return d.Sink, nil
}

// converse attaches d, connects, and blocks until the session ends or ctx
// is cancelled. onSnapshot sees every snapshot while the session is open.
func (s *Server) converse(ctx context.Context, d Devices, onSnapshot func(conversation.Snapshot)) error {
	if err := s.attach(d); err != nil {
		return err
	}
	defer s.detach(d.Owner)

	if err := s.conv.Connect(ctx); err != nil {
		return err
	}

	snaps, cancel := s.conv.Subscribe()
	defer cancel()

	snap := s.conv.Snapshot()
	if onSnapshot != nil {
		onSnapshot(snap)
	}
	if !snap.Connected {
		return sessionErr(snap)
	}
	for {
		select {
		case <-ctx.Done():
			_ = s.conv.Disconnect(context.Background())
			return ctx.Err()
		case snap, ok := <-snaps:
			if !ok {
				return conversation.ErrClosed
			}
			if onSnapshot != nil {
				onSnapshot(snap)
			}
			if !snap.Connected {
				return sessionErr(snap)
			}
		}
	}
}

func sessionErr(snap conversation.Snapshot) error {
	if snap.Banner == "" {
		return nil
	}
	return errors.New(snap.Banner)
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// Package home implements the home dashboard widgets: greeting, daily
// quote, tasks, the memory editor, smart-home toggles and the voice
// selector.
//
// Every persisted widget reads and writes exactly one store key. The
// smart-home state lives in memory only.
package home

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-jarvis/pkg/llm"
	"github.com/teslashibe/go-jarvis/pkg/store"
)

// Errors returned by widget operations.
var (
	ErrTaskNotFound = errors.New("home: task not found")
	ErrEmptyTask    = errors.New("home: task text is empty")
	ErrUnknownVoice = errors.New("home: unknown voice")
	ErrUnknownRoom  = errors.New("home: unknown room")
)

// Home owns the widgets.
type Home struct {
	store  store.Store
	gen    llm.Generator
	now    func() time.Time
	logger *slog.Logger

	// tasksMu serializes read-modify-write cycles on the task list.
	tasksMu sync.Mutex

	mu    sync.Mutex
	smart SmartHome
}

// Option configures a Home.
type Option func(*Home)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Home) { h.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Home) { h.logger = logger }
}

// New creates the widgets over s. gen produces the daily quote; it may be
// nil, in which case the fallback quote is always shown.
func New(s store.Store, gen llm.Generator, opts ...Option) *Home {
	h := &Home{
		store:  s,
		gen:    gen,
		now:    time.Now,
		logger: slog.Default(),
		smart:  DefaultSmartHome(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "home")
	return h
}

// Store returns the backing store.
func (h *Home) Store() store.Store { return h.store }

// Dashboard is everything the home screen shows at once.
type Dashboard struct {
	Greeting  string    `json:"greeting"`
	Header    Header    `json:"header"`
	Tasks     []Task    `json:"tasks"`
	Memory    string    `json:"memory"`
	SmartHome SmartHome `json:"smartHome"`
	Voice     string    `json:"voice"`
	Voices    []Voice   `json:"voices"`
}

// Dashboard collects the widget state. The quote is fetched separately
// because it calls the network.
func (h *Home) Dashboard(ctx context.Context) (Dashboard, error) {
	now := h.now()
	tasks, err := h.Tasks(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	mem, err := h.Memory(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	voice, err := h.Voice(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Greeting:  Greeting(now),
		Header:    HeaderAt(now),
		Tasks:     tasks,
		Memory:    mem,
		SmartHome: h.SmartHome(),
		Voice:     voice,
		Voices:    Voices(),
	}, nil
}

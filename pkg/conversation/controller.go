// Package conversation runs a live voice session with the assistant.
//
// A Controller owns one session at a time. A single goroutine holds all
// session state (the remote session, the playback scheduler, the
// transcript and the status); provider callbacks, playback notifications
// and user commands reach it as events. Captured microphone frames bypass
// the loop and go straight to a sender goroutine, so audio upload never
// waits on event handling.
//
// Basic usage:
//
//	c, err := conversation.New(conversation.Config{
//		Provider:   provider,
//		OpenSource: func() (audioio.Source, error) { return audioio.NewSource(audioio.DefaultConfig(), nil) },
//		OpenSink:   func() (audioio.Sink, error) { return audioio.NewSink(audioio.DefaultOutputConfig(), nil) },
//		Store:      st,
//		Summarizer: conversation.NewSummarizer(gen, nil),
//	})
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	if err := c.Connect(ctx); err != nil {
//		return err
//	}
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-jarvis/pkg/audio"
	"github.com/teslashibe/go-jarvis/pkg/audioio"
	"github.com/teslashibe/go-jarvis/pkg/aura"
	"github.com/teslashibe/go-jarvis/pkg/home"
	"github.com/teslashibe/go-jarvis/pkg/live"
	"github.com/teslashibe/go-jarvis/pkg/playback"
	"github.com/teslashibe/go-jarvis/pkg/store"
	"github.com/teslashibe/go-jarvis/pkg/tools"
	"github.com/teslashibe/go-jarvis/pkg/transcript"
)

// DefaultModel is the native-audio model used for live sessions.
const DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"

const eventBuffer = 256

// Config configures a Controller.
type Config struct {
	// Provider opens live sessions.
	Provider live.Provider

	// OpenSource and OpenSink create the capture and playback devices.
	// They are called once per Connect; the controller closes what they
	// return on Disconnect.
	OpenSource func() (audioio.Source, error)
	OpenSink   func() (audioio.Sink, error)

	// Store holds memory and the voice preference. Nil disables both.
	Store store.Store

	// Summarizer condenses the transcript into memory on Disconnect.
	Summarizer *Summarizer

	// Tools are declared to the model and answer its tool calls.
	Tools *tools.Registry

	Model   string
	Persona string

	// Voice is used when no valid preference is stored.
	Voice string

	// InputRate and OutputRate default to 16 kHz and 24 kHz.
	InputRate  int
	OutputRate int

	// SendBuffer bounds the outbound frame queue.
	SendBuffer int

	// Now is the wall clock used for the prompt and the aura.
	Now func() time.Time

	// PlaybackClock overrides the playback context clock.
	PlaybackClock func() time.Duration

	// OnEnded is called after a session ends, with nil for a normal
	// disconnect or the failure that ended it. It runs on its own goroutine.
	OnEnded func(err error)

	Logger *slog.Logger
}

// Controller manages the lifecycle of live voice sessions.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	cmds   chan command
	events chan event
	idle   chan struct{}
	quit   chan struct{}
	done   chan struct{}

	closeOnce sync.Once

	// Owned by the loop goroutine.
	gen        int
	sess       live.Session
	cancel     context.CancelFunc
	source     audioio.Source
	sched      *playback.Scheduler
	transcript *transcript.Log
	status     Status
	banner     string
	muted      bool
	metrics    *live.MetricsCollector

	// Published state, readable from any goroutine.
	mu       sync.RWMutex
	snap     Snapshot
	schedRef *playback.Scheduler
	aura     *aura.Tracker
	subs     subscribers
}

type command struct {
	fn   func() error
	done chan error
}

type event struct {
	gen    int
	msg    *live.Message
	err    error
	closed bool
}

// New creates a controller and starts its event loop. Call Close to stop it.
func New(cfg Config) (*Controller, error) {
	if cfg.Provider == nil {
		return nil, ErrNoProvider
	}
	if cfg.OpenSource == nil || cfg.OpenSink == nil {
		return nil, ErrNoDevices
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Persona == "" {
		cfg.Persona = Persona
	}
	if cfg.InputRate <= 0 {
		cfg.InputRate = audio.InputSampleRate
	}
	if cfg.OutputRate <= 0 {
		cfg.OutputRate = audio.OutputSampleRate
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Controller{
		cfg:        cfg,
		logger:     cfg.Logger.With("component", "conversation"),
		cmds:       make(chan command),
		events:     make(chan event, eventBuffer),
		idle:       make(chan struct{}, 1),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		transcript: transcript.New(),
		status:     Idle,
		metrics:    live.NewMetricsCollector(),
		aura:       aura.NewTracker(cfg.Now),
	}
	c.publish()
	go c.loop()
	return c, nil
}

func (c *Controller) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case cmd := <-c.cmds:
			cmd.done <- cmd.fn()
		case ev := <-c.events:
			c.handleEvent(ev)
		case <-c.idle:
			c.handleIdle()
		}
	}
}

// do runs fn on the loop goroutine and waits for its result.
func (c *Controller) do(ctx context.Context, fn func() error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case c.cmds <- cmd:
	case <-c.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.quit:
	}
}

// Connect opens the microphone, the speaker and a live session. It does
// nothing if a session is already open.
func (c *Controller) Connect(ctx context.Context) error {
	return c.do(ctx, func() error { return c.connect(ctx) })
}

// Disconnect ends the session, summarizing the conversation into memory
// when there is more than one transcript entry. It is idempotent.
func (c *Controller) Disconnect(ctx context.Context) error {
	return c.do(ctx, func() error {
		c.disconnect(ctx, Idle, nil)
		return nil
	})
}

// SetMuted sets the playback gain to exactly 0 or 1. The setting carries
// over to later sessions.
func (c *Controller) SetMuted(muted bool) error {
	return c.do(context.Background(), func() error {
		c.muted = muted
		if c.sched != nil {
			c.sched.SetMuted(muted)
		}
		c.publish()
		return nil
	})
}

// Close disconnects any open session and stops the event loop.
func (c *Controller) Close() error {
	err := c.Disconnect(context.Background())
	c.closeOnce.Do(func() {
		close(c.quit)
		<-c.done
		c.subs.close()
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

func (c *Controller) connect(ctx context.Context) error {
	if c.sess != nil {
		return nil
	}
	c.banner = ""
	c.setStatus(Processing)
	c.publish()

	// Devices live as long as the session, not the caller's context.
	sessCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	source, err := c.cfg.OpenSource()
	if err == nil {
		err = source.Start(sessCtx)
		if err != nil {
			_ = source.Close()
		}
	}
	if err != nil {
		return c.abort(NewConnectionError(StageMicrophone, err))
	}
	c.source = source

	sink, err := c.cfg.OpenSink()
	if err != nil {
		return c.abort(NewConnectionError(StageSpeaker, err))
	}
	c.sched = playback.New(sink, playback.Config{
		SampleRate: c.cfg.OutputRate,
		Now:        c.cfg.PlaybackClock,
		OnIdle:     c.notifyIdle,
		Logger:     c.logger,
	})
	if err := c.sched.Open(sessCtx); err != nil {
		_ = sink.Close()
		c.sched = nil
		return c.abort(NewConnectionError(StageSpeaker, err))
	}
	c.sched.SetMuted(c.muted)

	memory, voice := c.loadPreferences(ctx)

	liveCfg := live.Config{
		Model:               c.cfg.Model,
		Voice:               voice,
		SystemInstruction:   BuildSystemPrompt(c.cfg.Persona, c.cfg.Now(), memory),
		InputTranscription:  true,
		OutputTranscription: true,
	}
	if c.cfg.Tools != nil {
		liveCfg.Tools = c.cfg.Tools.Declarations()
	}

	c.gen++
	c.transcript.Reset()
	c.metrics = live.NewMetricsCollector()
	sess, err := c.cfg.Provider.Connect(ctx, liveCfg, c.callbacks(c.gen))
	if err != nil {
		return c.abort(NewConnectionError(StageConnect, err))
	}
	c.sess = sess

	c.logger.Info("session open",
		"session", sess.ID(),
		"provider", c.cfg.Provider.Name(),
		"model", liveCfg.Model,
		"voice", voice,
		"memory", memory != "",
	)

	snd := newSender(sess, c.cfg.SendBuffer, c.metrics, c.logger)
	go snd.run(sessCtx)
	go c.capture(sessCtx, source, snd)

	c.setStatus(Listening)
	c.publish()
	return nil
}

func (c *Controller) loadPreferences(ctx context.Context) (memory, voice string) {
	voice = home.DefaultVoice
	if home.ValidVoice(c.cfg.Voice) {
		voice = c.cfg.Voice
	}
	if c.cfg.Store == nil {
		return "", voice
	}
	var err error
	if memory, err = store.GetOr(ctx, c.cfg.Store, store.KeyMemory, ""); err != nil {
		c.logger.Warn("load memory", "error", err)
	}
	v, err := store.GetOr(ctx, c.cfg.Store, store.KeyVoice, voice)
	if err != nil {
		c.logger.Warn("load voice preference", "error", err)
	}
	if home.ValidVoice(v) {
		voice = v
	}
	return memory, voice
}

func (c *Controller) callbacks(gen int) live.Callbacks {
	return live.Callbacks{
		OnOpen: func() {
			c.logger.Debug("session callback open", "gen", gen)
		},
		OnMessage: func(m live.Message) {
			c.post(event{gen: gen, msg: &m})
		},
		OnError: func(err error) {
			c.post(event{gen: gen, err: err})
		},
		OnClose: func() {
			c.post(event{gen: gen, closed: true})
		},
	}
}

// capture forwards every captured frame to the sender until the source
// stops or the session ends.
func (c *Controller) capture(ctx context.Context, source audioio.Source, snd *sender) {
	stream := source.Stream()
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-stream:
			if !ok {
				return
			}
			rate := chunk.SampleRate
			if rate <= 0 {
				rate = c.cfg.InputRate
			}
			snd.offer(ctx, audio.CreateBlob(chunk.Float32(), rate))
		}
	}
}

// notifyIdle is the playback OnIdle hook. It may run on the loop goroutine
// (Interrupt) or the pump goroutine, so it never blocks.
func (c *Controller) notifyIdle() {
	select {
	case c.idle <- struct{}{}:
	default:
	}
}

func (c *Controller) handleIdle() {
	if c.sess == nil || c.sched == nil || c.sched.Active() > 0 {
		return
	}
	c.setStatus(Listening)
	c.publish()
}

func (c *Controller) handleEvent(ev event) {
	if ev.gen != c.gen || c.sess == nil {
		return
	}
	switch {
	case ev.err != nil:
		c.fail(NewConnectionError(StageTransport, ev.err))
	case ev.closed:
		c.logger.Info("session closed by remote", "session", c.sess.ID())
		c.disconnect(context.Background(), Idle, nil)
	case ev.msg != nil:
		c.handleMessage(*ev.msg)
		c.publish()
	}
}

func (c *Controller) handleMessage(m live.Message) {
	c.metrics.Observe(m)

	if m.InputTranscription != "" {
		c.setStatus(Listening)
		c.transcript.AddInput(m.InputTranscription)
	}
	if m.OutputTranscription != "" {
		c.setStatus(Speaking)
		c.transcript.AddOutput(m.OutputTranscription)
	}
	if m.TurnComplete {
		c.setStatus(Listening)
		c.transcript.CompleteTurn()
	}
	if m.HasAudio() {
		c.play(m)
	}
	if m.Interrupted {
		n := c.sched.Interrupt()
		c.logger.Debug("playback interrupted", "stopped", n)
	}
	if len(m.ToolCalls) > 0 {
		c.runTools(m.ToolCalls)
	}
}

func (c *Controller) play(m live.Message) {
	rate, err := audio.ParseRate(m.MIMEType, c.cfg.OutputRate)
	if err != nil {
		c.logger.Warn("response audio mime type", "mime", m.MIMEType, "error", err)
		rate = c.cfg.OutputRate
	}
	data := m.Audio
	if rate != c.cfg.OutputRate {
		data = audio.SamplesToBytes(audio.Resample(audio.BytesToSamples(data), rate, c.cfg.OutputRate))
	}
	buf, err := audio.DecodeBuffer(data, c.cfg.OutputRate, 1)
	if err != nil {
		c.logger.Warn("decode response audio", "error", err)
		return
	}
	c.sched.Schedule(buf)
}

// runTools answers tool calls off the loop; tool work never delays audio.
func (c *Controller) runTools(calls []live.ToolCall) {
	sess := c.sess
	if c.cfg.Tools == nil {
		c.logger.Warn("tool call without registry", "calls", len(calls))
		return
	}
	go func() {
		ctx := context.Background()
		responses := c.cfg.Tools.CallAll(ctx, calls)
		if err := sess.SendToolResponse(ctx, responses); err != nil {
			c.logger.Warn("send tool response", "error", err)
		}
	}()
}

// abort handles a failure before the session is open. The error is
// returned to the caller of Connect; OnEnded is not called.
func (c *Controller) abort(err error) error {
	c.logger.Error("connect failed", "error", err)
	c.banner = ErrorBanner
	c.teardown()
	c.setStatus(Error)
	c.publish()
	return err
}

// fail handles a transport failure on an open session. Status passes
// through ERROR and settles on IDLE; the banner stays until the next Connect.
func (c *Controller) fail(err error) {
	c.logger.Error("session failed", "error", err)
	c.banner = ErrorBanner
	c.setStatus(Error)
	c.publish()
	c.disconnect(context.Background(), Idle, err)
}

// disconnect ends the open session. final is the status left behind.
func (c *Controller) disconnect(ctx context.Context, final Status, cause error) {
	if c.sess == nil && c.source == nil && c.sched == nil {
		return
	}
	c.setStatus(final)
	c.publish()

	id := ""
	if c.sess != nil {
		id = c.sess.ID()
	}
	c.teardown()

	entries := c.transcript.Entries()
	if len(entries) > 1 {
		summary := c.cfg.Summarizer.Summarize(ctx, entries)
		if summary != "" && c.cfg.Store != nil {
			if err := c.cfg.Store.Set(ctx, store.KeyMemory, summary); err != nil {
				c.logger.Error("persist memory", "error", err)
			}
		}
	}
	c.transcript.Reset()
	c.publish()

	c.logger.Info("session ended", "session", id, "entries", len(entries), "metrics", c.metrics.Snapshot().String())
	if c.cfg.OnEnded != nil {
		go c.cfg.OnEnded(cause)
	}
}

// teardown releases the session, the capture device and playback in that
// order. In-flight sends are abandoned.
func (c *Controller) teardown() {
	if c.sess != nil {
		if err := c.sess.Close(); err != nil {
			c.logger.Debug("close session", "error", err)
		}
		c.sess = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.source != nil {
		_ = c.source.Stop()
		if err := c.source.Close(); err != nil {
			c.logger.Debug("close microphone", "error", err)
		}
		c.source = nil
	}
	if c.sched != nil {
		c.sched.Interrupt()
		if err := c.sched.Close(); err != nil {
			c.logger.Debug("close speaker", "error", err)
		}
		c.sched = nil
	}
}

func (c *Controller) setStatus(s Status) {
	if c.status == s {
		return
	}
	c.logger.Debug("status", "from", c.status, "to", s)
	c.status = s
	c.aura.Observe(s)
}

// publish copies loop state into the shared snapshot and notifies subscribers.
func (c *Controller) publish() {
	snap := Snapshot{
		Status:     c.status,
		Connected:  c.sess != nil,
		Muted:      c.muted,
		Banner:     c.banner,
		Transcript: c.transcript.Entries(),
		Metrics:    c.metrics.Snapshot(),
	}
	if c.sess != nil {
		snap.SessionID = c.sess.ID()
	}

	c.mu.Lock()
	c.snap = snap
	c.schedRef = c.sched
	c.mu.Unlock()

	c.subs.publish(c.Snapshot())
}

// Snapshot returns the current visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	snap := c.snap
	sched := c.schedRef
	c.mu.RUnlock()

	snap.Aura = c.aura.Visual()
	snap.Playback.Gain = 1
	if snap.Muted {
		snap.Playback.Gain = 0
	}
	if sched != nil {
		snap.Playback = PlaybackState{
			Active:    sched.Active(),
			Watermark: sched.Watermark(),
			Gain:      sched.Gain(),
		}
	}
	return snap
}

// Status returns the current session status.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Status
}

// Transcript returns a copy of the current transcript.
func (c *Controller) Transcript() []transcript.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]transcript.Entry(nil), c.snap.Transcript...)
}

// Subscribe returns a channel of snapshots published after every state
// change and a function that cancels the subscription. A slow reader only
// ever misses intermediate snapshots.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch, cancel := c.subs.add(8)
	return ch, cancel
}

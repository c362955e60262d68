// Package tools exposes the home widgets to the voice model as callable
// functions.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/teslashibe/go-jarvis/pkg/home"
	"github.com/teslashibe/go-jarvis/pkg/live"
)

// ErrUnknownTool is returned for calls to undeclared functions.
var ErrUnknownTool = errors.New("tools: unknown tool")

// Handler executes one tool call.
type Handler func(ctx context.Context, args map[string]any) (map[string]any, error)

// Registry holds declarations and their handlers.
type Registry struct {
	decls    []live.Tool
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger.With("component", "tools"),
	}
}

// Register adds a tool. A later registration with the same name replaces
// the earlier handler and declaration.
func (r *Registry) Register(decl live.Tool, h Handler) {
	if _, ok := r.handlers[decl.Name]; ok {
		for i := range r.decls {
			if r.decls[i].Name == decl.Name {
				r.decls[i] = decl
			}
		}
	} else {
		r.decls = append(r.decls, decl)
	}
	r.handlers[decl.Name] = h
}

// Declarations returns the tools to declare at session setup.
func (r *Registry) Declarations() []live.Tool {
	return append([]live.Tool(nil), r.decls...)
}

// Call runs the handler for call. Failures are reported to the model in
// the response's "error" field rather than returned.
func (r *Registry) Call(ctx context.Context, call live.ToolCall) live.ToolResponse {
	resp := live.ToolResponse{ID: call.ID, Name: call.Name}
	h, ok := r.handlers[call.Name]
	if !ok {
		r.logger.Warn("unknown tool", "tool", call.Name)
		resp.Result = map[string]any{"error": fmt.Sprintf("%v: %s", ErrUnknownTool, call.Name)}
		return resp
	}

	start := time.Now()
	result, err := h(ctx, call.Args)
	if err != nil {
		r.logger.Warn("tool failed", "tool", call.Name, "error", err)
		resp.Result = map[string]any{"error": err.Error()}
		return resp
	}
	r.logger.Debug("tool executed", "tool", call.Name, "duration", time.Since(start))
	resp.Result = result
	return resp
}

// CallAll runs every call in order.
func (r *Registry) CallAll(ctx context.Context, calls []live.ToolCall) []live.ToolResponse {
	out := make([]live.ToolResponse, 0, len(calls))
	for _, c := range calls {
		out = append(out, r.Call(ctx, c))
	}
	return out
}

// Home builds the registry of home widget tools.
func Home(h *home.Home, now func() time.Time, logger *slog.Logger) *Registry {
	if now == nil {
		now = time.Now
	}
	r := NewRegistry(logger)

	r.Register(live.Tool{
		Name:        "get_current_time",
		Description: "Returns the user's current local date, time and timezone.",
	}, func(ctx context.Context, _ map[string]any) (map[string]any, error) {
		t := now()
		zone, _ := t.Zone()
		return map[string]any{
			"datetime": t.Format("Monday, January 2, 2006 at 3:04:05 PM"),
			"timezone": t.Location().String(),
			"zone":     zone,
		}, nil
	})

	r.Register(live.Tool{
		Name:        "list_tasks",
		Description: "Lists the user's tasks and reminders with their ids and completion state.",
	}, func(ctx context.Context, _ map[string]any) (map[string]any, error) {
		tasks, err := h.Tasks(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]map[string]any, 0, len(tasks))
		for _, t := range tasks {
			items = append(items, map[string]any{"id": t.ID, "text": t.Text, "completed": t.Completed})
		}
		return map[string]any{"tasks": items}, nil
	})

	r.Register(live.Tool{
		Name:        "add_task",
		Description: "Adds a new task to the user's task list.",
		Params: []live.Param{
			{Name: "text", Type: "string", Description: "The task description.", Required: true},
		},
	}, func(ctx context.Context, args map[string]any) (map[string]any, error) {
		text, _ := args["text"].(string)
		t, err := h.AddTask(ctx, text)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": t.ID, "text": t.Text}, nil
	})

	r.Register(live.Tool{
		Name:        "complete_task",
		Description: "Marks a task as done, by id or by part of its text.",
		Params: []live.Param{
			{Name: "id", Type: "integer", Description: "The task id from list_tasks."},
			{Name: "text", Type: "string", Description: "Part of the task text, used when the id is unknown."},
		},
	}, func(ctx context.Context, args map[string]any) (map[string]any, error) {
		id, ok := intArg(args, "id")
		if !ok {
			text, _ := args["text"].(string)
			t, err := h.FindTask(ctx, text)
			if err != nil {
				return nil, err
			}
			id = t.ID
		}
		t, err := h.CompleteTask(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": t.ID, "text": t.Text, "completed": t.Completed}, nil
	})

	r.Register(live.Tool{
		Name:        "toggle_lights",
		Description: "Switches the lights in a room. Omit 'on' to toggle.",
		Params: []live.Param{
			{Name: "room", Type: "string", Enum: []string{home.RoomLivingRoom, home.RoomWorkshop}, Required: true},
			{Name: "on", Type: "boolean", Description: "Desired state."},
		},
	}, func(ctx context.Context, args map[string]any) (map[string]any, error) {
		room, _ := args["room"].(string)
		room = normalizeRoom(room)
		if on, ok := args["on"].(bool); ok {
			if err := h.SetLights(room, on); err != nil {
				return nil, err
			}
			return map[string]any{"room": room, "on": on}, nil
		}
		on, err := h.ToggleLights(room)
		if err != nil {
			return nil, err
		}
		return map[string]any{"room": room, "on": on}, nil
	})

	r.Register(live.Tool{
		Name:        "toggle_music",
		Description: "Plays or pauses the music.",
	}, func(ctx context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"music": h.ToggleMusic()}, nil
	})

	return r
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]any, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

func normalizeRoom(room string) string {
	r := strings.ToLower(strings.TrimSpace(room))
	r = strings.ReplaceAll(r, " ", "_")
	if r == "living" || r == "livingroom" {
		return home.RoomLivingRoom
	}
	return r
}

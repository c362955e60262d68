package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-jarvis/internal/log"
	"github.com/teslashibe/go-jarvis/pkg/home"
	"github.com/teslashibe/go-jarvis/pkg/live"
	"github.com/teslashibe/go-jarvis/pkg/store"
)

func newTestRegistry(t *testing.T) (*Registry, *home.Home) {
	t.Helper()
	now := func() time.Time { return time.Date(2026, 7, 4, 20, 15, 0, 0, time.UTC) }
	h := home.New(store.NewMemory(), nil, home.WithClock(now), home.WithLogger(log.Discard()))
	return Home(h, now, log.Discard()), h
}

func TestDeclarations(t *testing.T) {
	r, _ := newTestRegistry(t)
	want := []string{"get_current_time", "list_tasks", "add_task", "complete_task", "toggle_lights", "toggle_music"}
	decls := r.Declarations()
	if len(decls) != len(want) {
		t.Fatalf("len(Declarations) = %d, want %d", len(decls), len(want))
	}
	for i, name := range want {
		if decls[i].Name != name {
			t.Errorf("decl[%d] = %q, want %q", i, decls[i].Name, name)
		}
		if decls[i].Description == "" {
			t.Errorf("%s has no description", name)
		}
	}
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		call  live.ToolCall
		check func(t *testing.T, res map[string]any, h *home.Home)
	}{
		{
			name: "current time",
			call: live.ToolCall{ID: "1", Name: "get_current_time"},
			check: func(t *testing.T, res map[string]any, _ *home.Home) {
				if res["datetime"] != "Saturday, July 4, 2026 at 8:15:00 PM" {
					t.Errorf("datetime = %v", res["datetime"])
				}
				if res["timezone"] != "UTC" {
					t.Errorf("timezone = %v", res["timezone"])
				}
			},
		},
		{
			name: "list tasks",
			call: live.ToolCall{ID: "2", Name: "list_tasks"},
			check: func(t *testing.T, res map[string]any, _ *home.Home) {
				items := res["tasks"].([]map[string]any)
				if len(items) != 2 {
					t.Errorf("tasks = %v", items)
				}
			},
		},
		{
			name: "add task",
			call: live.ToolCall{ID: "3", Name: "add_task", Args: map[string]any{"text": " Order more palladium "}},
			check: func(t *testing.T, res map[string]any, h *home.Home) {
				if res["text"] != "Order more palladium" {
					t.Errorf("text = %v", res["text"])
				}
				tasks, _ := h.Tasks(context.Background())
				if len(tasks) != 3 {
					t.Errorf("task not persisted: %v", tasks)
				}
			},
		},
		{
			name: "complete by id",
			call: live.ToolCall{ID: "4", Name: "complete_task", Args: map[string]any{"id": float64(2)}},
			check: func(t *testing.T, res map[string]any, _ *home.Home) {
				if res["completed"] != true {
					t.Errorf("result = %v", res)
				}
			},
		},
		{
			name: "complete by text",
			call: live.ToolCall{ID: "5", Name: "complete_task", Args: map[string]any{"text": "mark iii"}},
			check: func(t *testing.T, res map[string]any, _ *home.Home) {
				if res["id"] != int64(2) {
					t.Errorf("id = %v", res["id"])
				}
			},
		},
		{
			name: "toggle workshop lights",
			call: live.ToolCall{ID: "6", Name: "toggle_lights", Args: map[string]any{"room": "Workshop"}},
			check: func(t *testing.T, res map[string]any, h *home.Home) {
				if res["on"] != true || !h.SmartHome().WorkshopLights {
					t.Errorf("result = %v", res)
				}
			},
		},
		{
			name: "set living room off",
			call: live.ToolCall{ID: "7", Name: "toggle_lights", Args: map[string]any{"room": "living room", "on": false}},
			check: func(t *testing.T, res map[string]any, h *home.Home) {
				if h.SmartHome().LivingRoomLights {
					t.Errorf("living room still on: %v", res)
				}
			},
		},
		{
			name: "toggle music",
			call: live.ToolCall{ID: "8", Name: "toggle_music"},
			check: func(t *testing.T, res map[string]any, _ *home.Home) {
				if res["music"] != "PAUSED" {
					t.Errorf("music = %v", res["music"])
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, h := newTestRegistry(t)
			resp := r.Call(ctx, tt.call)
			if resp.ID != tt.call.ID || resp.Name != tt.call.Name {
				t.Errorf("response id/name = %q/%q", resp.ID, resp.Name)
			}
			if e, ok := resp.Result["error"]; ok {
				t.Fatalf("unexpected error: %v", e)
			}
			tt.check(t, resp.Result, h)
		})
	}
}

func TestDispatchErrors(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call live.ToolCall
		want string
	}{
		{"unknown tool", live.ToolCall{Name: "launch_missiles"}, "unknown tool"},
		{"empty task", live.ToolCall{Name: "add_task", Args: map[string]any{"text": "  "}}, "empty"},
		{"missing task", live.ToolCall{Name: "complete_task", Args: map[string]any{"id": float64(42)}}, "not found"},
		{"bad room", live.ToolCall{Name: "toggle_lights", Args: map[string]any{"room": "garage"}}, "unknown room"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := r.Call(ctx, tt.call)
			msg, _ := resp.Result["error"].(string)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error = %q, want it to contain %q", msg, tt.want)
			}
		})
	}
}

func TestCallAllKeepsOrder(t *testing.T) {
	r, _ := newTestRegistry(t)
	resps := r.CallAll(context.Background(), []live.ToolCall{
		{ID: "a", Name: "toggle_music"},
		{ID: "b", Name: "toggle_music"},
	})
	if len(resps) != 2 || resps[0].ID != "a" || resps[1].Result["music"] != "PLAYING" {
		t.Errorf("responses = %+v", resps)
	}
}

func TestRegisterReplaces(t *testing.T) {
	r := NewRegistry(log.Discard())
	r.Register(live.Tool{Name: "x", Description: "first"}, func(context.Context, map[string]any) (map[string]any, error) {
		return map[string]any{"v": 1}, nil
	})
	r.Register(live.Tool{Name: "x", Description: "second"}, func(context.Context, map[string]any) (map[string]any, error) {
		return map[string]any{"v": 2}, nil
	})
	if d := r.Declarations(); len(d) != 1 || d[0].Description != "second" {
		t.Errorf("Declarations = %+v", d)
	}
	if got := r.Call(context.Background(), live.ToolCall{Name: "x"}).Result["v"]; got != 2 {
		t.Errorf("v = %v, want 2", got)
	}
}

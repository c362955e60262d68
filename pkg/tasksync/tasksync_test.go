package tasksync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/tasks/v1"

	"github.com/teslashibe/go-jarvis/internal/log"
	"github.com/teslashibe/go-jarvis/pkg/home"
	"github.com/teslashibe/go-jarvis/pkg/llm"
	"github.com/teslashibe/go-jarvis/pkg/store"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost:8080/api/tasksync/callback",
		TokenPath:    filepath.Join(t.TempDir(), "token.json"),
		Logger:       log.Discard(),
	}
}

func testHome() *home.Home {
	return home.New(store.NewMemory(), llm.NewMock(""), home.WithLogger(log.Discard()))
}

func TestNewMissingCredentials(t *testing.T) {
	_, err := New(Config{}, testHome())
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("New() error = %v, want ErrMissingCredentials", err)
	}
}

func TestNewDefaults(t *testing.T) {
	s, err := New(Config{ClientID: "id", ClientSecret: "secret", TokenPath: filepath.Join(t.TempDir(), "t.json")}, testHome())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.listTitle != DefaultListTitle {
		t.Errorf("listTitle = %q", s.listTitle)
	}
	if s.config.RedirectURL != "http://localhost:8080/api/tasksync/callback" {
		t.Errorf("RedirectURL = %q", s.config.RedirectURL)
	}
	if s.IsAuthenticated() {
		t.Error("expected not authenticated without token")
	}
}

func TestAuthURL(t *testing.T) {
	s, err := New(testConfig(t), testHome())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	raw := s.AuthURL()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse auth URL: %v", err)
	}
	if !strings.HasPrefix(raw, "https://accounts.google.com/") {
		t.Errorf("auth URL = %s", raw)
	}
	q := u.Query()
	if q.Get("access_type") != "offline" || q.Get("prompt") != "consent" {
		t.Errorf("query = %v", q)
	}
	if q.Get("scope") != tasks.TasksScope {
		t.Errorf("scope = %q", q.Get("scope"))
	}
	if q.Get("state") == "" {
		t.Error("missing state")
	}

	st := s.Status()
	if st.Connected || st.AuthURL == "" || st.ListTitle != DefaultListTitle {
		t.Errorf("Status() = %+v", st)
	}
}

func TestHandleCallbackStateMismatch(t *testing.T) {
	s, err := New(testConfig(t), testHome())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.HandleCallback(context.Background(), "anything", "code"); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("HandleCallback() before AuthURL error = %v", err)
	}
	s.AuthURL()
	if err := s.HandleCallback(context.Background(), "wrong", "code"); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("HandleCallback() wrong state error = %v", err)
	}
}

func TestPushWithoutAuth(t *testing.T) {
	s, err := New(testConfig(t), testHome())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Push(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Push() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestTokenSaveLoad(t *testing.T) {
	cfg := testConfig(t)
	s, err := New(cfg, testHome())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.token = &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
	if err := s.saveToken(); err != nil {
		t.Fatalf("saveToken() error = %v", err)
	}
	info, err := os.Stat(cfg.TokenPath)
	if err != nil {
		t.Fatalf("token file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("token mode = %v", info.Mode().Perm())
	}

	reloaded, err := New(cfg, testHome())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !reloaded.IsAuthenticated() {
		t.Error("expected authenticated after reload")
	}

	if err := reloaded.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if reloaded.IsAuthenticated() {
		t.Error("still authenticated after Disconnect")
	}
	if _, err := os.Stat(cfg.TokenPath); !os.IsNotExist(err) {
		t.Errorf("token file still present: %v", err)
	}
}

func TestPlan(t *testing.T) {
	local := []home.Task{
		{ID: 1, Text: "Finalize Arc Reactor schematics", Completed: true},
		{ID: 2, Text: "Deploy Mark III upgrades"},
		{ID: 3, Text: "Call Pepper"},
		{ID: 4, Text: "Order coffee"},
	}
	remote := []*tasks.Task{
		{Id: "r1", Title: "Finalize Arc Reactor schematics", Notes: "jarvis:1", Status: "completed"},
		{Id: "r2", Title: "Old title", Notes: "jarvis:2", Status: "needsAction"},
		{Id: "r3", Title: "Call Pepper", Status: "needsAction"},
		{Id: "r9", Title: "Remote only", Status: "needsAction"},
	}

	ops := plan(local, remote)
	if len(ops) != len(local) {
		t.Fatalf("ops = %d, want %d", len(ops), len(local))
	}

	tests := []struct {
		remoteID string
		update   bool
		status   string
	}{
		{remoteID: "r1", update: false, status: "completed"},
		{remoteID: "r2", update: true, status: "needsAction"},
		{remoteID: "r3", update: true, status: "needsAction"},
		{remoteID: "", update: false, status: "needsAction"},
	}
	for i, tt := range tests {
		got := ops[i]
		if got.remoteID != tt.remoteID || got.update != tt.update || got.task.Status != tt.status {
			t.Errorf("op %d = {%q %v %q}, want {%q %v %q}", i, got.remoteID, got.update, got.task.Status, tt.remoteID, tt.update, tt.status)
		}
		if got.task.Notes != "jarvis:"+strconv.FormatInt(local[i].ID, 10) {
			t.Errorf("op %d notes = %q", i, got.task.Notes)
		}
	}
}

// fakeTasksAPI serves the subset of the Tasks REST API used by Push.
type fakeTasksAPI struct {
	mu      sync.Mutex
	lists   []*tasks.TaskList
	tasks   map[string][]*tasks.Task
	inserts int
	patches int
}

func (f *fakeTasksAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/tasks/v1/")
	parts := strings.Split(path, "/")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case path == "users/@me/lists" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(&tasks.TaskLists{Items: f.lists})
	case path == "users/@me/lists" && r.Method == http.MethodPost:
		var l tasks.TaskList
		_ = json.NewDecoder(r.Body).Decode(&l)
		l.Id = "list-" + l.Title
		f.lists = append(f.lists, &l)
		_ = json.NewEncoder(w).Encode(&l)
	case len(parts) == 3 && parts[0] == "lists" && parts[2] == "tasks" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(&tasks.Tasks{Items: f.tasks[parts[1]]})
	case len(parts) == 3 && parts[0] == "lists" && parts[2] == "tasks" && r.Method == http.MethodPost:
		var task tasks.Task
		_ = json.NewDecoder(r.Body).Decode(&task)
		task.Id = "t" + strconv.Itoa(f.inserts)
		f.inserts++
		f.tasks[parts[1]] = append(f.tasks[parts[1]], &task)
		_ = json.NewEncoder(w).Encode(&task)
	case len(parts) == 4 && parts[0] == "lists" && parts[2] == "tasks" && r.Method == http.MethodPatch:
		var patch tasks.Task
		_ = json.NewDecoder(r.Body).Decode(&patch)
		for _, task := range f.tasks[parts[1]] {
			if task.Id == parts[3] {
				task.Title = patch.Title
				task.Notes = patch.Notes
				task.Status = patch.Status
				f.patches++
				_ = json.NewEncoder(w).Encode(task)
				return
			}
		}
		http.NotFound(w, r)
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
	}
}

func TestPush(t *testing.T) {
	api := &fakeTasksAPI{tasks: make(map[string][]*tasks.Task)}
	srv := httptest.NewServer(api)
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Endpoint = srv.URL + "/"
	token, _ := json.Marshal(&oauth2.Token{AccessToken: "access", Expiry: time.Now().Add(time.Hour)})
	if err := os.WriteFile(cfg.TokenPath, token, 0o600); err != nil {
		t.Fatal(err)
	}

	h := testHome()
	s, err := New(cfg, h)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	res, err := s.Push(ctx)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if res.ListID != "list-JARVIS" || res.Created != 2 || res.Updated != 0 {
		t.Errorf("first push = %+v", res)
	}

	if _, err := h.ToggleTask(ctx, 2); err != nil {
		t.Fatalf("ToggleTask() error = %v", err)
	}
	res, err = s.Push(ctx)
	if err != nil {
		t.Fatalf("second Push() error = %v", err)
	}
	if res.Created != 0 || res.Updated != 1 || res.Unchanged != 1 {
		t.Errorf("second push = %+v", res)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.lists) != 1 {
		t.Errorf("lists created = %d, want 1", len(api.lists))
	}
	for _, task := range api.tasks["list-JARVIS"] {
		if task.Status != "completed" {
			t.Errorf("remote task %q status = %q", task.Title, task.Status)
		}
	}
}

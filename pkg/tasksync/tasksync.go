// Package tasksync pushes the local task list to Google Tasks.
//
// Authorization is a standard OAuth2 web flow: AuthURL sends the user to
// Google, the redirect lands on HandleCallback, and the token is kept on
// disk so later runs start authenticated. Push is one-way: local tasks are
// created or updated remotely, remote-only tasks are left alone.
package tasksync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"

	"github.com/teslashibe/go-jarvis/internal/httpc"
	"github.com/teslashibe/go-jarvis/pkg/home"
)

// DefaultListTitle names the remote list the assistant writes to.
const DefaultListTitle = "JARVIS"

// notePrefix tags remote tasks with the local id they mirror.
const notePrefix = "jarvis:"

// Remote task states.
const (
	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"
)

// Errors returned by the syncer.
var (
	ErrMissingCredentials = errors.New("tasksync: GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	ErrNotAuthenticated   = errors.New("tasksync: not authenticated, connect to Google first")
	ErrStateMismatch      = errors.New("tasksync: oauth state mismatch")
)

// Config configures a Syncer.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "http://localhost:8080/api/tasksync/callback"
	TokenPath    string // default ~/.jarvis/google_token.json
	ListTitle    string

	// Endpoint overrides the Tasks API base URL.
	Endpoint string

	Logger *slog.Logger
}

// Syncer owns the OAuth token and the Tasks service.
type Syncer struct {
	config    *oauth2.Config
	tokenPath string
	listTitle string
	endpoint  string
	home      *home.Home
	logger    *slog.Logger

	mu      sync.RWMutex
	token   *oauth2.Token
	service *tasks.Service
	state   string
	listID  string
}

// Result counts what a push changed.
type Result struct {
	ListID    string `json:"listId"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
}

// New creates a syncer for h's task list. A saved token is loaded if present.
func New(cfg Config, h *home.Home) (*Syncer, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = "http://localhost:8080/api/tasksync/callback"
	}
	if cfg.TokenPath == "" {
		homeDir, _ := os.UserHomeDir()
		cfg.TokenPath = filepath.Join(homeDir, ".jarvis", "google_token.json")
	}
	if cfg.ListTitle == "" {
		cfg.ListTitle = DefaultListTitle
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Syncer{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{tasks.TasksScope},
			Endpoint:     google.Endpoint,
		},
		tokenPath: cfg.TokenPath,
		listTitle: cfg.ListTitle,
		endpoint:  cfg.Endpoint,
		home:      h,
		logger:    cfg.Logger.With("component", "tasksync"),
	}

	if err := s.loadToken(); err == nil {
		if err := s.initService(context.Background()); err != nil {
			s.logger.Warn("saved token unusable", "error", err)
			s.token = nil
		}
	}
	return s, nil
}

// IsAuthenticated reports whether a usable token is present. An expired
// access token still counts when it can be refreshed.
func (s *Syncer) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != nil && (s.token.Valid() || s.token.RefreshToken != "")
}

// AuthURL returns the consent URL. Each call starts a new flow.
func (s *Syncer) AuthURL() string {
	state := uuid.NewString()
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback exchanges the authorization code and stores the token.
func (s *Syncer) HandleCallback(ctx context.Context, state, code string) error {
	s.mu.RLock()
	want := s.state
	s.mu.RUnlock()
	if want == "" || state != want {
		return ErrStateMismatch
	}

	token, err := s.config.Exchange(httpc.OAuthContext(ctx), code)
	if err != nil {
		return fmt.Errorf("tasksync: exchange code: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.state = ""
	s.mu.Unlock()

	if err := s.saveToken(); err != nil {
		s.logger.Warn("save token", "error", err)
	}
	return s.initService(ctx)
}

// Status is the connection state shown by the web UI.
type Status struct {
	Connected bool   `json:"connected"`
	AuthURL   string `json:"authUrl,omitempty"`
	ListTitle string `json:"listTitle"`
}

// Status reports whether Google is connected, with a consent URL when not.
func (s *Syncer) Status() Status {
	st := Status{Connected: s.IsAuthenticated(), ListTitle: s.listTitle}
	if !st.Connected {
		st.AuthURL = s.AuthURL()
	}
	return st
}

// Disconnect forgets the token and removes it from disk.
func (s *Syncer) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.service = nil
	s.listID = ""
	if err := os.Remove(s.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("tasksync: remove token: %w", err)
	}
	return nil
}

// Push mirrors the local task list into the remote list.
func (s *Syncer) Push(ctx context.Context) (Result, error) {
	s.mu.RLock()
	svc := s.service
	s.mu.RUnlock()
	if svc == nil {
		return Result{}, ErrNotAuthenticated
	}

	local, err := s.home.Tasks(ctx)
	if err != nil {
		return Result{}, err
	}
	listID, err := s.ensureList(ctx, svc)
	if err != nil {
		return Result{}, err
	}
	remote, err := listTasks(ctx, svc, listID)
	if err != nil {
		return Result{}, err
	}

	res := Result{ListID: listID}
	for _, op := range plan(local, remote) {
		switch {
		case op.remoteID == "":
			_, err = svc.Tasks.Insert(listID, op.task).Context(ctx).Do()
			res.Created++
		case op.update:
			_, err = svc.Tasks.Patch(listID, op.remoteID, op.task).Context(ctx).Do()
			res.Updated++
		default:
			res.Unchanged++
		}
		if err != nil {
			return res, fmt.Errorf("tasksync: write task %q: %w", op.task.Title, err)
		}
	}
	s.logger.Info("pushed tasks", "list", listID, "created", res.Created, "updated", res.Updated)
	return res, nil
}

func (s *Syncer) ensureList(ctx context.Context, svc *tasks.Service) (string, error) {
	s.mu.RLock()
	id := s.listID
	s.mu.RUnlock()
	if id != "" {
		return id, nil
	}

	lists, err := svc.Tasklists.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("tasksync: list task lists: %w", err)
	}
	for _, l := range lists.Items {
		if l.Title == s.listTitle {
			id = l.Id
			break
		}
	}
	if id == "" {
		created, err := svc.Tasklists.Insert(&tasks.TaskList{Title: s.listTitle}).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("tasksync: create task list: %w", err)
		}
		id = created.Id
	}

	s.mu.Lock()
	s.listID = id
	s.mu.Unlock()
	return id, nil
}

func listTasks(ctx context.Context, svc *tasks.Service, listID string) ([]*tasks.Task, error) {
	var out []*tasks.Task
	call := svc.Tasks.List(listID).ShowCompleted(true).ShowHidden(true).MaxResults(100)
	err := call.Pages(ctx, func(page *tasks.Tasks) error {
		out = append(out, page.Items...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tasksync: list tasks: %w", err)
	}
	return out, nil
}

// op is one planned remote write.
type op struct {
	remoteID string
	update   bool
	task     *tasks.Task
}

// plan matches local tasks to remote ones by the id stored in the notes,
// falling back to an exact title match.
func plan(local []home.Task, remote []*tasks.Task) []op {
	byID := make(map[int64]*tasks.Task)
	byTitle := make(map[string]*tasks.Task)
	for _, r := range remote {
		if id, ok := localID(r.Notes); ok {
			byID[id] = r
		} else if _, seen := byTitle[r.Title]; !seen {
			byTitle[r.Title] = r
		}
	}

	ops := make([]op, 0, len(local))
	for _, t := range local {
		want := &tasks.Task{
			Title:  t.Text,
			Notes:  notePrefix + strconv.FormatInt(t.ID, 10),
			Status: statusNeedsAction,
		}
		if t.Completed {
			want.Status = statusCompleted
		}

		r, ok := byID[t.ID]
		if !ok {
			r, ok = byTitle[t.Text]
			if ok {
				delete(byTitle, t.Text)
			}
		}
		if !ok {
			ops = append(ops, op{task: want})
			continue
		}
		changed := r.Title != want.Title || r.Status != want.Status || r.Notes != want.Notes
		ops = append(ops, op{remoteID: r.Id, update: changed, task: want})
	}
	return ops
}

func localID(notes string) (int64, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(notes), notePrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	return id, err == nil
}

func (s *Syncer) initService(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return ErrNotAuthenticated
	}
	client := s.config.Client(httpc.OAuthContext(ctx), s.token)
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	service, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("tasksync: create tasks service: %w", err)
	}
	s.service = service
	return nil
}

func (s *Syncer) loadToken() error {
	data, err := os.ReadFile(s.tokenPath)
	if err != nil {
		return err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = &token
	s.mu.Unlock()
	return nil
}

func (s *Syncer) saveToken() error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == nil {
		return ErrNotAuthenticated
	}
	if err := os.MkdirAll(filepath.Dir(s.tokenPath), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.tokenPath, data, 0o600)
}

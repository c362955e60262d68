package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/teslashibe/go-jarvis/internal/config"
	"github.com/teslashibe/go-jarvis/pkg/home"
	"github.com/teslashibe/go-jarvis/pkg/transcript"
)

// isolate points the CLI at a temporary data dir and clears the keys that
// would reach the network.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET",
		"JARVIS_STORE", "JARVIS_STORE_PATH", "JARVIS_DATA_DIR", "JARVIS_LIVE_PROVIDER",
	} {
		t.Setenv(key, "")
	}
	return t.TempDir()
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--data-dir", dir,
		"--log-level", "error",
	}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestTasksCommands(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, dir, "tasks", "list")
	if err != nil {
		t.Fatalf("tasks list error = %v", err)
	}
	want := "[x]   1  Finalize Arc Reactor schematics\n[ ]   2  Deploy Mark III upgrades\n"
	if out != want {
		t.Errorf("tasks list =\n%s\nwant\n%s", out, want)
	}

	out, err = run(t, dir, "tasks", "add", "Calibrate", "the", "repulsors")
	if err != nil {
		t.Fatalf("tasks add error = %v", err)
	}
	if !strings.HasSuffix(out, ": Calibrate the repulsors\n") {
		t.Errorf("tasks add = %q", out)
	}

	out, err = run(t, dir, "tasks", "toggle", "2")
	if err != nil {
		t.Fatalf("tasks toggle error = %v", err)
	}
	if out != "[x]   2  Deploy Mark III upgrades\n" {
		t.Errorf("tasks toggle = %q", out)
	}

	if _, err := run(t, dir, "tasks", "rm", "1"); err != nil {
		t.Fatalf("tasks rm error = %v", err)
	}
	out, _ = run(t, dir, "tasks", "ls")
	if strings.Contains(out, "Arc Reactor") || !strings.Contains(out, "Calibrate the repulsors") {
		t.Errorf("tasks after rm =\n%s", out)
	}

	if _, err := run(t, dir, "tasks", "toggle", "abc"); err == nil {
		t.Error("toggle with a bad id should fail")
	}
	if _, err := run(t, dir, "tasks", "rm", "999"); !errors.Is(err, home.ErrTaskNotFound) {
		t.Errorf("rm missing error = %v, want ErrTaskNotFound", err)
	}
	if _, err := run(t, dir, "tasks", "push"); err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Errorf("push without credentials error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "store.json")); err != nil {
		t.Errorf("store file not created: %v", err)
	}
}

func TestMemoryCommands(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"memory", "show"}, want: "No memory.\n"},
		{args: []string{"memory", "set", "User", "is", "called", "Tony."}, want: home.MemoryUpdated + "\n"},
		{args: []string{"memory", "show"}, want: "User is called Tony.\n"},
		{args: []string{"memory", "clear"}, want: home.MemoryCleared + "\n"},
		{args: []string{"memory", "show"}, want: "No memory.\n"},
	}
	for _, tt := range tests {
		out, err := run(t, dir, tt.args...)
		if err != nil {
			t.Fatalf("%v error = %v", tt.args, err)
		}
		if out != tt.want {
			t.Errorf("%v = %q, want %q", tt.args, out, tt.want)
		}
	}
}

func TestVoiceCommands(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, dir, "voice", "get")
	if err != nil {
		t.Fatalf("voice get error = %v", err)
	}
	if !strings.Contains(out, "* Charon   Standard Male") {
		t.Errorf("voice get =\n%s", out)
	}

	if _, err := run(t, dir, "voice", "set", "Kore"); err != nil {
		t.Fatalf("voice set error = %v", err)
	}
	out, _ = run(t, dir, "voice", "get")
	if !strings.Contains(out, "* Kore") || strings.Contains(out, "* Charon") {
		t.Errorf("voice get after set =\n%s", out)
	}

	if _, err := run(t, dir, "voice", "set", "Ultron"); !errors.Is(err, home.ErrUnknownVoice) {
		t.Errorf("voice set unknown error = %v", err)
	}
}

func TestQuoteWithoutModel(t *testing.T) {
	dir := isolate(t)
	out, err := run(t, dir, "quote")
	if err != nil {
		t.Fatalf("quote error = %v", err)
	}
	if out != home.FallbackQuote+"\n" {
		t.Errorf("quote = %q", out)
	}
}

func TestRequiresAPIKey(t *testing.T) {
	dir := isolate(t)

	_, err := run(t, dir, "talk")
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "google_api_key" {
		t.Errorf("talk error = %v, want missing key", err)
	}

	file := filepath.Join(dir, "chat.txt")
	if err := os.WriteFile(file, []byte("USER: hi\nJARVIS: hello\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, dir, "summarize", file); err == nil || !strings.Contains(err.Error(), "no text model") {
		t.Errorf("summarize error = %v", err)
	}
}

func TestInvalidFlags(t *testing.T) {
	dir := isolate(t)

	_, err := run(t, dir, "--store", "floppy", "tasks", "list")
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "store.backend" {
		t.Errorf("error = %v, want store.backend ConfigError", err)
	}

	// The memory backend leaves nothing on disk.
	if _, err := run(t, dir, "--store", "memory", "tasks", "add", "x"); err != nil {
		t.Fatalf("memory store error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "store.json")); !os.IsNotExist(err) {
		t.Errorf("store.json exists with the memory backend: %v", err)
	}
}

func TestParseTranscript(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []transcript.Entry
		wantErr bool
	}{
		{
			name: "two turns",
			in:   "USER: Remind me to call Pepper.\nJARVIS: Added to your tasks.\n",
			want: []transcript.Entry{
				{ID: 0, Speaker: transcript.User, Text: "Remind me to call Pepper.", Final: true},
				{ID: 1, Speaker: transcript.Jarvis, Text: "Added to your tasks.", Final: true},
			},
		},
		{
			name: "continuation and blanks",
			in:   "user: First line\nsecond line\n\n  Jarvis :Noted: both.\n",
			want: []transcript.Entry{
				{ID: 0, Speaker: transcript.User, Text: "First line second line", Final: true},
				{ID: 1, Speaker: transcript.Jarvis, Text: "Noted: both.", Final: true},
			},
		},
		{
			name:    "no speaker first",
			in:      "hello\nUSER: hi\n",
			wantErr: true,
		},
		{
			name: "empty",
			in:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTranscript(strings.NewReader(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTranscript() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseTranscript() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-jarvis/internal/log"
	"github.com/teslashibe/go-jarvis/pkg/llm"
	"github.com/teslashibe/go-jarvis/pkg/transcript"
)

func TestBuildSystemPrompt(t *testing.T) {
	ny := time.FixedZone("America/New_York", -4*60*60)
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, ny)

	userContext := "\n\n--- USER CONTEXT ---\n" +
		"The user's current timezone is America/New_York. " +
		"The current date and time is Saturday, March 14, 2026 at 09:26 AM. " +
		"You must use this information to accurately answer any questions related to time and date."

	tests := []struct {
		name   string
		memory string
		want   string
	}{
		{
			name: "without memory",
			want: "Persona." + userContext,
		},
		{
			name:   "with memory",
			memory: "User is called Tony.",
			want: "Persona." + userContext +
				"\n\n--- PREVIOUS CONVERSATION SUMMARY ---\n" +
				"You should use this summary to inform your responses and maintain context. The user is continuing the conversation.\n" +
				"User is called Tony.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSystemPrompt("Persona.", now, tt.memory)
			if got != tt.want {
				t.Errorf("BuildSystemPrompt() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestPromptAfternoonFormat(t *testing.T) {
	now := time.Date(2026, 12, 1, 21, 5, 0, 0, time.UTC)
	got := BuildSystemPrompt(Persona, now, "")
	if !strings.Contains(got, "Tuesday, December 1, 2026 at 09:05 PM") {
		t.Errorf("prompt missing long date: %q", got)
	}
	if !strings.Contains(got, "timezone is UTC.") {
		t.Errorf("prompt missing timezone: %q", got)
	}
}

func TestTimezone(t *testing.T) {
	if got := Timezone(nil); got != "UTC" {
		t.Errorf("Timezone(nil) = %q", got)
	}
	if got := Timezone(time.FixedZone("Europe/Paris", 3600)); got != "Europe/Paris" {
		t.Errorf("Timezone(fixed) = %q", got)
	}

	t.Setenv("TZ", "Asia/Tokyo")
	if got := Timezone(time.Local); got != "Asia/Tokyo" {
		t.Errorf("Timezone(Local) with TZ = %q", got)
	}
}

func TestSummarize(t *testing.T) {
	entries := []transcript.Entry{
		{ID: 0, Speaker: transcript.User, Text: "Remind me to call Pepper.", Final: true},
		{ID: 1, Speaker: transcript.Jarvis, Text: "Added to your tasks.", Final: true},
	}

	t.Run("prompt", func(t *testing.T) {
		prompt := SummaryPrompt(entries)
		if !strings.HasPrefix(prompt, "You are a summarization model.") {
			t.Errorf("prompt start = %q", prompt[:40])
		}
		want := "CONVERSATION:\nUSER: Remind me to call Pepper.\nJARVIS: Added to your tasks.\n\nSUMMARY:"
		if !strings.HasSuffix(prompt, want) {
			t.Errorf("prompt = %q, want suffix %q", prompt, want)
		}
	})

	t.Run("trimmed", func(t *testing.T) {
		s := NewSummarizer(llm.NewMock("\n  User wants to call Pepper.  \n"), log.Discard())
		if got := s.Summarize(context.Background(), entries); got != "User wants to call Pepper." {
			t.Errorf("Summarize() = %q", got)
		}
	})

	t.Run("error yields empty", func(t *testing.T) {
		s := NewSummarizer(llm.WithError(errors.New("boom")), log.Discard())
		if got := s.Summarize(context.Background(), entries); got != "" {
			t.Errorf("Summarize() = %q, want empty", got)
		}
	})

	t.Run("nil summarizer", func(t *testing.T) {
		var s *Summarizer
		if got := s.Summarize(context.Background(), entries); got != "" {
			t.Errorf("Summarize() = %q, want empty", got)
		}
	})
}

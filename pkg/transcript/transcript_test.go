package transcript

import "testing"

func TestSameSpeakerReplacesOpenEntry(t *testing.T) {
	l := New()

	l.AddInput("Hello")
	e := l.AddInput(" there")

	if l.Len() != 1 {
		t.Fatalf("Len = %d, want 1", l.Len())
	}
	if e.Text != "Hello there" {
		t.Errorf("Text = %q, want accumulated %q", e.Text, "Hello there")
	}
	if e.Final {
		t.Error("entry should still be open")
	}
}

func TestDifferentSpeakerStartsNewEntry(t *testing.T) {
	l := New()

	l.AddInput("What time is it")
	l.AddOutput("It is")
	l.AddOutput(" noon")

	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("Len = %d, want 2", len(entries))
	}
	if entries[0].Speaker != User || entries[1].Speaker != Jarvis {
		t.Errorf("speakers = %s, %s", entries[0].Speaker, entries[1].Speaker)
	}
	if entries[1].Text != "It is noon" {
		t.Errorf("assistant text = %q", entries[1].Text)
	}
	if entries[0].ID == entries[1].ID {
		t.Error("entries should have distinct ids")
	}
}

func TestFinalEntryStartsNewEntry(t *testing.T) {
	l := New()

	l.AddInput("One")
	l.CompleteTurn()
	e := l.AddInput("Two")

	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	if e.Text != "Two" {
		t.Errorf("new entry should start from a fresh accumulator, got %q", e.Text)
	}
	if e.ID != 1 {
		t.Errorf("ID = %d, want 1", e.ID)
	}
}

func TestCompleteTurn(t *testing.T) {
	l := New()
	l.AddInput("hi")
	l.AddOutput("hello")
	l.AddOutput(", sir")

	l.CompleteTurn()

	for _, e := range l.Entries() {
		if !e.Final {
			t.Errorf("entry %d not final", e.ID)
		}
	}
	in, out := l.Accumulated()
	if in != "" || out != "" {
		t.Errorf("accumulators = %q, %q; want empty", in, out)
	}
}

func TestInterleavedInputReopensUser(t *testing.T) {
	l := New()
	l.AddInput("Turn on")
	l.AddOutput("Certainly")
	e := l.AddInput(" the lights")

	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}
	if e.Text != "Turn on the lights" {
		t.Errorf("Text = %q", e.Text)
	}
}

func TestResetRestartsIDs(t *testing.T) {
	l := New()
	l.AddInput("a")
	l.CompleteTurn()
	l.AddOutput("b")
	l.Reset()

	if l.Len() != 0 {
		t.Fatalf("Len = %d after Reset", l.Len())
	}
	if e := l.AddInput("c"); e.ID != 0 {
		t.Errorf("ID = %d, want 0", e.ID)
	}
	if e := l.AddInput("d"); e.ID != 0 || e.Text != "cd" {
		t.Errorf("entry = %+v, want ID 0 text cd", e)
	}
}

func TestEntriesIsACopy(t *testing.T) {
	l := New()
	l.AddInput("a")
	entries := l.Entries()
	entries[0].Text = "mutated"

	if l.Entries()[0].Text != "a" {
		t.Error("Entries should not alias internal state")
	}
}

func TestFormat(t *testing.T) {
	got := Format([]Entry{
		{Speaker: User, Text: "Hi"},
		{Speaker: Jarvis, Text: "Hello, sir."},
	})
	want := "USER: Hi\nJARVIS: Hello, sir."
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
	if Format(nil) != "" {
		t.Error("empty transcript should format as empty string")
	}
}

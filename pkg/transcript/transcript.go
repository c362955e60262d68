// Package transcript keeps the running conversation transcript.
//
// Transcription arrives as small text deltas. Each side (user and
// assistant) accumulates its deltas for the current turn; the accumulated
// text replaces the text of the last entry while that entry is still open
// for the same speaker, otherwise it starts a new entry. A completed turn
// closes every entry and clears both accumulators.
package transcript

import (
	"strings"
)

// Speaker identifies who said an entry.
type Speaker string

const (
	User   Speaker = "USER"
	Jarvis Speaker = "JARVIS"
)

// Entry is one utterance in the transcript.
type Entry struct {
	ID      int     `json:"id"`
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
	Final   bool    `json:"isFinal"`
}

// Log is the ordered transcript plus the per-side accumulators.
// It is not safe for concurrent use; the conversation loop owns it.
type Log struct {
	entries []Entry
	nextID  int
	input   strings.Builder
	output  strings.Builder
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// AddInput appends a user transcription delta and returns the affected entry.
func (l *Log) AddInput(delta string) Entry {
	l.input.WriteString(delta)
	return l.upsert(User, l.input.String())
}

// AddOutput appends an assistant transcription delta and returns the affected entry.
func (l *Log) AddOutput(delta string) Entry {
	l.output.WriteString(delta)
	return l.upsert(Jarvis, l.output.String())
}

func (l *Log) upsert(speaker Speaker, text string) Entry {
	if n := len(l.entries); n > 0 {
		last := &l.entries[n-1]
		if last.Speaker == speaker && !last.Final {
			last.Text = text
			return *last
		}
	}
	e := Entry{ID: l.nextID, Speaker: speaker, Text: text}
	l.nextID++
	l.entries = append(l.entries, e)
	return e
}

// CompleteTurn marks every entry final and clears both accumulators.
func (l *Log) CompleteTurn() {
	for i := range l.entries {
		l.entries[i].Final = true
	}
	l.input.Reset()
	l.output.Reset()
}

// Accumulated returns the current input and output accumulator text.
func (l *Log) Accumulated() (input, output string) {
	return l.input.String(), l.output.String()
}

// Entries returns a copy of the transcript.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Reset clears the transcript and accumulators. IDs restart at zero.
func (l *Log) Reset() {
	l.entries = nil
	l.nextID = 0
	l.input.Reset()
	l.output.Reset()
}

// Format renders entries as "SPEAKER: text" lines.
func Format(entries []Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = string(e.Speaker) + ": " + e.Text
	}
	return strings.Join(lines, "\n")
}

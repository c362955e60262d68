// Package status defines the conversation session status.
package status

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the state of the voice session. It drives visuals only.
type Status int

const (
	Idle Status = iota
	Listening
	Processing
	Speaking
	Error
)

var names = [...]string{"IDLE", "LISTENING", "PROCESSING", "SPEAKING", "ERROR"}

// String returns the upper-case status name.
func (s Status) String() string {
	if s < 0 || int(s) >= len(names) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return names[s]
}

// Parse returns the status for a name, ignoring case.
func Parse(name string) (Status, error) {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return Status(i), nil
		}
	}
	return Idle, fmt.Errorf("status: unknown status %q", name)
}

// Active reports whether a session is live in this status.
func (s Status) Active() bool {
	return s == Listening || s == Processing || s == Speaking
}

// MarshalJSON encodes the status as its name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, err := Parse(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

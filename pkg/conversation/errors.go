package conversation

import (
	"errors"
	"fmt"
)

// ErrorBanner is the text shown to the user after any session failure.
const ErrorBanner = "Connection Error. Please try again."

// Sentinel errors for the conversation package.
var (
	// ErrNoProvider indicates the controller was built without a live provider.
	ErrNoProvider = errors.New("conversation: live provider is required")

	// ErrNoDevices indicates the controller has no way to open audio devices.
	ErrNoDevices = errors.New("conversation: audio devices are required")

	// ErrClosed indicates the controller has been closed.
	ErrClosed = errors.New("conversation: controller closed")
)

// Stages at which a session can fail.
const (
	StageMicrophone = "microphone"
	StageSpeaker    = "speaker"
	StageConnect    = "connect"
	StageTransport  = "transport"
)

// ConnectionError records where a session failed.
type ConnectionError struct {
	// Stage is one of the Stage constants.
	Stage string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("conversation: %s error: %v", e.Stage, e.Cause)
	}
	return fmt.Sprintf("conversation: %s error", e.Stage)
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(stage string, cause error) *ConnectionError {
	return &ConnectionError{Stage: stage, Cause: cause}
}

// IsDeviceError returns true if the session failed acquiring an audio device.
func IsDeviceError(err error) bool {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.Stage == StageMicrophone || connErr.Stage == StageSpeaker
	}
	return false
}

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/skncr-ai/scanner/internal/analysis"
	"github.com/skncr-ai/scanner/internal/capture"
)

var (
	// ErrClosed is returned by every command once the pipeline is closed
	ErrClosed = errors.New("pipeline closed")
	// ErrInvalidState is returned when a command does not apply to the current state
	ErrInvalidState = errors.New("command not valid in current state")
)

// State is the position of the pipeline in the capture flow
type State int

const (
	Idle State = iota
	Streaming
	Captured
	Analyzing
	Succeeded
	Failed
)

var stateNames = map[State]string{
	Idle:      "Idle",
	Streaming: "Streaming",
	Captured:  "Captured",
	Analyzing: "Analyzing",
	Succeeded: "Succeeded",
	Failed:    "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// FailureKind tags why a session failed
type FailureKind string

const (
	CameraUnavailable  FailureKind = "CameraUnavailable"
	ServiceUnavailable FailureKind = "ServiceUnavailable"
	MalformedResponse  FailureKind = "MalformedResponse"
)

// Failure is carried by every Failed session
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func cameraFailure(err error) *Failure {
	return &Failure{Kind: CameraUnavailable, Message: err.Error(), Err: err}
}

func analysisFailure(err error) *Failure {
	kind := ServiceUnavailable
	if analysis.KindOf(err) == analysis.KindMalformedResponse {
		kind = MalformedResponse
	}
	return &Failure{Kind: kind, Message: err.Error(), Err: err}
}

// CaptureSession is one scan attempt
type CaptureSession[T any] struct {
	ID        string
	Image     *capture.Image
	State     State
	Result    *T
	Failure   *Failure
	StartedAt time.Time
}

// Snapshot is the observable view of a pipeline
type Snapshot[T any] struct {
	Pipeline   string    `json:"pipeline"`
	SessionID  string    `json:"sessionId,omitempty"`
	State      State     `json:"state"`
	Result     *T        `json:"result,omitempty"`
	Failure    *Failure  `json:"failure,omitempty"`
	ImageBytes int       `json:"imageBytes,omitempty"`
	StartedAt  time.Time `json:"startedAt,omitzero"`
	Closed     bool      `json:"closed"`
	Seq        uint64    `json:"seq"`
}

package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies why an analysis failed
type Kind int

const (
	// KindServiceUnavailable means the call failed, timed out or returned nothing
	KindServiceUnavailable Kind = iota + 1
	// KindMalformedResponse means the reply was not a JSON object honouring the contract
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindServiceUnavailable:
		return "ServiceUnavailable"
	case KindMalformedResponse:
		return "MalformedResponse"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is returned by Client.Analyze for every failure
type Error struct {
	Kind Kind
	Op   string // pipeline name, e.g. "face"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s analysis: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an analysis error, or 0 if err is not one
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

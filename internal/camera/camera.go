package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

// FacingMode is the preferred camera direction
type FacingMode string

const (
	// FacingUser is the front camera, used for selfies
	FacingUser FacingMode = "user"
	// FacingEnvironment is the rear camera, used for product labels
	FacingEnvironment FacingMode = "environment"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrDeviceNotFound   = errors.New("camera device not found")
	ErrDeviceBusy       = errors.New("camera device busy")
	ErrStreamReleased   = errors.New("camera stream released")
	ErrNoFrame          = errors.New("no decoded frame available")
)

// Stream is a live video feed
type Stream interface {
	Facing() FacingMode
	// Ready reports whether warm-up is over: a decoded frame is available, or the
	// stream failed and Frame returns the error
	Ready() bool
	// Frame returns the most recent frame
	Frame() (image.Image, error)
}

// Device supplies live streams. Acquire fails with ErrPermissionDenied or
// ErrDeviceNotFound (possibly wrapped) when no stream can be opened.
type Device interface {
	Acquire(ctx context.Context, facing FacingMode) (Stream, error)
	Release(s Stream)
}

// IsUnavailable reports whether err means the camera cannot be used at all
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrDeviceNotFound) ||
		errors.Is(err, ErrDeviceBusy)
}

// Parse builds a device from a source string: "file:<path>", an http(s) snapshot
// URL, or a bare filesystem path.
func Parse(source string) (Device, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return nil, fmt.Errorf("camera source is empty")
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return NewSnapshotDevice(source), nil
	case strings.HasPrefix(source, "file:"):
		return NewFileDevice(strings.TrimPrefix(source, "file:")), nil
	default:
		return NewFileDevice(source), nil
	}
}

package camera

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// maxSnapshotBytes caps a single snapshot download
const maxSnapshotBytes = 20 * 1024 * 1024

// SnapshotDevice is an IP camera exposing a still-image URL. Every Frame call
// fetches a fresh snapshot.
type SnapshotDevice struct {
	URL        string
	HTTPClient *http.Client
}

// NewSnapshotDevice returns a device polling url
func NewSnapshotDevice(url string) *SnapshotDevice {
	return &SnapshotDevice{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Acquire probes the camera once; the probe's image becomes the first frame
func (d *SnapshotDevice) Acquire(ctx context.Context, facing FacingMode) (Stream, error) {
	img, err := d.fetch(ctx)
	if err != nil {
		return nil, err
	}

	slog.Debug("Snapshot camera acquired", "url", d.URL, "facing", facing)
	return &snapshotStream{device: d, facing: facing, latest: img}, nil
}

// Release marks the stream as released
func (d *SnapshotDevice) Release(s Stream) {
	if ss, ok := s.(*snapshotStream); ok && ss != nil {
		ss.mu.Lock()
		ss.released = true
		ss.latest = nil
		ss.mu.Unlock()
	}
}

func (d *SnapshotDevice) fetch(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot request: %w", err)
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceNotFound, d.URL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s returned %d", ErrPermissionDenied, d.URL, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s returned %d", ErrDeviceNotFound, d.URL, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("snapshot request to %s failed: HTTP %d", d.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decodeImage(data)
}

type snapshotStream struct {
	device *SnapshotDevice
	facing FacingMode

	mu       sync.Mutex
	latest   image.Image
	released bool
}

func (s *snapshotStream) Facing() FacingMode { return s.facing }

func (s *snapshotStream) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.released && s.latest != nil
}

// Frame refreshes the snapshot, falling back to the last good frame when the refresh fails
func (s *snapshotStream) Frame() (image.Image, error) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil, ErrStreamReleased
	}
	s.mu.Unlock()

	img, err := s.device.fetch(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, ErrStreamReleased
	}
	if err != nil {
		slog.Warn("Failed to refresh snapshot, using previous frame", "url", s.device.URL, "error", err)
		if s.latest == nil {
			return nil, err
		}
		return s.latest, nil
	}
	s.latest = img
	return img, nil
}

package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/webp"
)

var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// FileDevice treats an image file, or a directory of images, as a camera.
// A directory is played back in name order, one image per Frame call, looping.
type FileDevice struct {
	Path string

	mu     sync.Mutex
	active *fileStream
}

// NewFileDevice returns a device backed by path
func NewFileDevice(path string) *FileDevice {
	return &FileDevice{Path: path}
}

// Acquire opens a stream over the device's images. Decoding of the first frame happens
// in the background; the stream reports Ready once it is done.
func (d *FileDevice) Acquire(ctx context.Context, facing FacingMode) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := d.listFrames()
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceBusy, d.Path)
	}

	s := &fileStream{
		facing: facing,
		files:  files,
		done:   make(chan struct{}),
	}
	d.active = s
	go s.warmUp()

	slog.Debug("File camera acquired", "path", d.Path, "frames", len(files), "facing", facing)
	return s, nil
}

// Release stops the stream. Releasing a stream twice, or a foreign stream, is a no-op.
func (d *FileDevice) Release(s Stream) {
	st, ok := s.(*fileStream)
	if !ok || st == nil {
		return
	}

	st.stop()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == st {
		d.active = nil
		slog.Debug("File camera released", "path", d.Path)
	}
}

func (d *FileDevice) listFrames() ([]string, error) {
	info, err := os.Stat(d.Path)
	if err != nil {
		return nil, classifyFSError(d.Path, err)
	}

	if !info.IsDir() {
		return []string{d.Path}, nil
	}

	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, classifyFSError(d.Path, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(d.Path, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrDeviceNotFound, d.Path)
	}
	sort.Strings(files)
	return files, nil
}

func classifyFSError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	default:
		return fmt.Errorf("failed to open camera %s: %w", path, err)
	}
}

type fileStream struct {
	facing FacingMode
	files  []string

	mu       sync.Mutex
	cursor   int
	latest   image.Image
	warmErr  error
	released bool
	done     chan struct{}
}

func (s *fileStream) Facing() FacingMode { return s.facing }

func (s *fileStream) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.released && (s.latest != nil || s.warmErr != nil)
}

func (s *fileStream) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, ErrStreamReleased
	}
	if s.latest == nil {
		if s.warmErr != nil {
			return nil, s.warmErr
		}
		return nil, ErrNoFrame
	}

	frame := s.latest
	if len(s.files) > 1 {
		s.cursor = (s.cursor + 1) % len(s.files)
		next, err := DecodeFile(s.files[s.cursor])
		if err != nil {
			slog.Warn("Failed to decode next frame", "path", s.files[s.cursor], "error", err)
		} else {
			s.latest = next
		}
	}
	return frame, nil
}

func (s *fileStream) warmUp() {
	defer close(s.done)

	img, err := DecodeFile(s.files[0])

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	if err != nil {
		s.warmErr = err
		slog.Warn("Failed to decode first frame", "path", s.files[0], "error", err)
		return
	}
	s.latest = img
}

func (s *fileStream) stop() {
	s.mu.Lock()
	s.released = true
	s.latest = nil
	s.mu.Unlock()
}

// DecodeFile reads and decodes one still, applying its EXIF orientation
func DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	return decodeImage(data)
}

func decodeImage(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	if format == "jpeg" {
		if o := Orientation(data); o != 1 {
			img = Orient(img, o)
		}
	}
	return img, nil
}

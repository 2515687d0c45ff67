package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 0, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write png: %v", err)
	}
}

func waitReady(t *testing.T, s Stream) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !s.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("Stream never became ready")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantFile string
		wantURL  string
		wantErr  bool
	}{
		{name: "file scheme", source: "file:./frames", wantFile: "./frames"},
		{name: "bare path", source: "selfie.jpg", wantFile: "selfie.jpg"},
		{name: "http url", source: "http://192.168.1.20/snapshot.jpg", wantURL: "http://192.168.1.20/snapshot.jpg"},
		{name: "https url", source: " https://cam.local/still ", wantURL: "https://cam.local/still"},
		{name: "empty", source: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := Parse(tt.source)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			switch d := dev.(type) {
			case *FileDevice:
				if d.Path != tt.wantFile {
					t.Errorf("Expected path %s, got %s", tt.wantFile, d.Path)
				}
			case *SnapshotDevice:
				if d.URL != tt.wantURL {
					t.Errorf("Expected url %s, got %s", tt.wantURL, d.URL)
				}
			default:
				t.Fatalf("Unexpected device type %T", dev)
			}
		})
	}
}

func TestFileDeviceNotFound(t *testing.T) {
	dev := NewFileDevice(filepath.Join(t.TempDir(), "missing"))
	_, err := dev.Acquire(context.Background(), FacingUser)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
	if !IsUnavailable(err) {
		t.Error("Expected IsUnavailable to be true")
	}
}

func TestFileDeviceEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileDevice(dir).Acquire(context.Background(), FacingEnvironment)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestFileDeviceLifecycle(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), createTestImage(4, 3))
	writePNG(t, filepath.Join(dir, "b.png"), createTestImage(6, 5))

	dev := NewFileDevice(dir)
	s, err := dev.Acquire(context.Background(), FacingEnvironment)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if s.Facing() != FacingEnvironment {
		t.Errorf("Expected facing environment, got %s", s.Facing())
	}

	if _, err := dev.Acquire(context.Background(), FacingEnvironment); !errors.Is(err, ErrDeviceBusy) {
		t.Errorf("Expected ErrDeviceBusy on second acquire, got %v", err)
	}

	waitReady(t, s)

	first, err := s.Frame()
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if first.Bounds().Dx() != 4 {
		t.Errorf("Expected first frame width 4, got %d", first.Bounds().Dx())
	}
	second, err := s.Frame()
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if second.Bounds().Dx() != 6 {
		t.Errorf("Expected second frame width 6, got %d", second.Bounds().Dx())
	}

	dev.Release(s)
	if s.Ready() {
		t.Error("Released stream should not be ready")
	}
	if _, err := s.Frame(); !errors.Is(err, ErrStreamReleased) {
		t.Errorf("Expected ErrStreamReleased, got %v", err)
	}

	s2, err := dev.Acquire(context.Background(), FacingEnvironment)
	if err != nil {
		t.Fatalf("Re-acquire after release failed: %v", err)
	}
	dev.Release(s2)
	dev.Release(s2)
}

func TestFileDeviceCorruptFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	dev := NewFileDevice(path)
	s, err := dev.Acquire(context.Background(), FacingUser)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer dev.Release(s)

	<-s.(*fileStream).done
	if !s.Ready() {
		t.Fatal("Stream should report ready once warm-up has failed")
	}
	if _, err := s.Frame(); err == nil || errors.Is(err, ErrNoFrame) {
		t.Errorf("Expected decode error, got %v", err)
	}
}

func TestOrient(t *testing.T) {
	src := createTestImage(3, 2)
	marker := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	src.Set(0, 0, marker)

	tests := []struct {
		orientation int
		w, h        int
		x, y        int
	}{
		{1, 3, 2, 0, 0},
		{2, 3, 2, 2, 0},
		{3, 3, 2, 2, 1},
		{4, 3, 2, 0, 1},
		{5, 2, 3, 0, 0},
		{6, 2, 3, 1, 0},
		{7, 2, 3, 1, 2},
		{8, 2, 3, 0, 2},
	}

	for _, tt := range tests {
		out := Orient(src, tt.orientation)
		b := out.Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("orientation %d: expected %dx%d, got %dx%d", tt.orientation, tt.w, tt.h, b.Dx(), b.Dy())
			continue
		}
		r, g, bl, _ := out.At(tt.x, tt.y).RGBA()
		if r>>8 != 1 || g>>8 != 2 || bl>>8 != 3 {
			t.Errorf("orientation %d: expected marker at (%d,%d)", tt.orientation, tt.x, tt.y)
		}
	}
}

func TestOrientationWithoutExif(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createTestImage(2, 2), nil); err != nil {
		t.Fatal(err)
	}
	if o := Orientation(buf.Bytes()); o != 1 {
		t.Errorf("Expected default orientation 1, got %d", o)
	}
}

func TestSnapshotDevice(t *testing.T) {
	var frame bytes.Buffer
	if err := png.Encode(&frame, createTestImage(5, 4)); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(frame.Bytes())
	})
	mux.HandleFunc("/locked", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "snapshot available", path: "/ok"},
		{name: "forbidden", path: "/locked", wantErr: ErrPermissionDenied},
		{name: "missing", path: "/missing", wantErr: ErrDeviceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := NewSnapshotDevice(server.URL + tt.path)
			s, err := dev.Acquire(context.Background(), FacingEnvironment)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Acquire failed: %v", err)
			}
			if !s.Ready() {
				t.Fatal("Snapshot stream should be ready after acquire")
			}
			img, err := s.Frame()
			if err != nil {
				t.Fatalf("Frame failed: %v", err)
			}
			if img.Bounds().Dx() != 5 {
				t.Errorf("Expected width 5, got %d", img.Bounds().Dx())
			}
			dev.Release(s)
			if _, err := s.Frame(); !errors.Is(err, ErrStreamReleased) {
				t.Errorf("Expected ErrStreamReleased, got %v", err)
			}
		})
	}
}

func TestSnapshotDeviceUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewSnapshotDevice(url).Acquire(context.Background(), FacingUser)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

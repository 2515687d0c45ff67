package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skncr-ai/scanner/internal/analysis"
	"github.com/skncr-ai/scanner/internal/profile"
	"github.com/skncr-ai/scanner/internal/schema"
	"github.com/skncr-ai/scanner/internal/session"
)

func writeFrame(t *testing.T, dir string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: 90, B: 60, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "frame.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir)
	opts := Options{
		Settings: analysis.Settings{Provider: "stub", Timeout: time.Second},
		Profile:  profile.Guest(),
		Camera:   dir,
	}

	tests := []struct {
		name    string
		kind    string
		wantErr bool
	}{
		{name: "face", kind: KindFace},
		{name: "product", kind: KindProduct},
		{name: "unknown kind", kind: "hair", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.kind, opts)
			if tt.wantErr {
				if err == nil || c != nil {
					t.Errorf("Expected error and no controller, got %v, %v", c, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer c.Close()
			if c.Kind() != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, c.Kind())
			}
		})
	}
}

func TestNewRejectsBadSettings(t *testing.T) {
	if _, err := New(KindFace, Options{Settings: analysis.Settings{Provider: "stub"}}); err == nil {
		t.Error("Expected error for empty camera source")
	}
	if _, err := New(KindFace, Options{Settings: analysis.Settings{Provider: "nope"}, Camera: "x"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestProductPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir)

	done := make(chan *schema.ProductAnalysis, 1)
	mia, err := profile.Load("mia")
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewProduct(Options{
		Settings: analysis.Settings{Provider: "stub", Timeout: time.Second},
		Profile:  mia,
		Camera:   "file:" + dir,
	}, func(r *schema.ProductAnalysis) { done <- r })
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	// the file camera decodes its first frame in the background
	deadline := time.Now().Add(2 * time.Second)
	for m.Snapshot().State == session.Streaming && time.Now().Before(deadline) {
		if err := m.Capture(context.Background()); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case r := <-done:
		if r.ProductName == "" {
			t.Error("Expected a product name")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("No result, state %s", m.Snapshot().State)
	}
	if got := m.Snapshot().State; got != session.Succeeded {
		t.Errorf("Expected Succeeded, got %s", got)
	}
}

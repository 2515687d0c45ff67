package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeCameraDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: 210, G: uint8(150 + x), B: uint8(120 + y), A: 255})
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
	return dir
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScanJSON(t *testing.T) {
	dir := writeCameraDir(t)

	tests := []struct {
		name   string
		args   []string
		result string
	}{
		{name: "face", args: []string{"scan", "face"}, result: "metrics"},
		{name: "product", args: []string{"scan", "product", "--profile", "mia"}, result: "productName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--camera", dir, "--provider", "stub", "--timeout", "5s", "--json")
			out, err := runRoot(t, args...)
			if err != nil {
				t.Fatalf("scan failed: %v", err)
			}

			var snapshot struct {
				State  string                     `json:"state"`
				Result map[string]json.RawMessage `json:"result"`
			}
			if err := json.Unmarshal([]byte(out), &snapshot); err != nil {
				t.Fatalf("Output is not JSON: %v\n%s", err, out)
			}
			if snapshot.State != "Succeeded" {
				t.Errorf("Expected Succeeded, got %s", snapshot.State)
			}
			if _, ok := snapshot.Result[tt.result]; !ok {
				t.Errorf("Expected result field %s, got %v", tt.result, snapshot.Result)
			}
		})
	}
}

func TestScanRendered(t *testing.T) {
	out, err := runRoot(t, "scan", "face", "--camera", writeCameraDir(t), "--provider", "stub")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !strings.Contains(out, "Skin metrics") {
		t.Errorf("Expected rendered metrics, got:\n%s", out)
	}
}

func TestScanCameraUnavailable(t *testing.T) {
	_, err := runRoot(t, "scan", "face", "--camera", filepath.Join(t.TempDir(), "missing"), "--provider", "stub")
	if err == nil || !strings.Contains(err.Error(), "CameraUnavailable") {
		t.Errorf("Expected CameraUnavailable failure, got %v", err)
	}
}

func TestScanCorruptFrame(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"scan", "face", "--camera", dir, "--provider", "stub"})
	err := root.ExecuteContext(ctx)
	if ctx.Err() != nil {
		t.Fatal("scan kept waiting on a camera whose first frame cannot be decoded")
	}
	if err == nil || !strings.Contains(err.Error(), "CameraUnavailable") {
		t.Errorf("Expected CameraUnavailable failure, got %v", err)
	}
}

func TestScanRejectsUnknownKind(t *testing.T) {
	if _, err := runRoot(t, "scan", "hair", "--provider", "stub"); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/skncr-ai/scanner/internal/capture"
	"github.com/skncr-ai/scanner/internal/providers"
	"github.com/skncr-ai/scanner/internal/schema"
)

type fakeProvider struct {
	reply string
	err   error
	delay time.Duration
	last  providers.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, req providers.Request) (string, error) {
	f.last = req
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func testImage() *capture.Image {
	return &capture.Image{Data: []byte{0xFF, 0xD8, 0xFF}, MIMEType: capture.MIMEType, Width: 1, Height: 1}
}

func TestProductAnalyze(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		kind     Kind
		expected string
	}{
		{
			name:     "valid product",
			reply:    `{"productName":"X","verdict":"YOU NEED THIS","matchScore":90,"ingredients":[{"name":"Niacinamide","status":"BENEFICIAL","function":"Brightening","reason":"Targets texture"}]}`,
			expected: "X",
		},
		{
			name:     "prose wrapped",
			reply:    `Sure! {"productName":"X","verdict":"NEUTRAL","matchScore":50,"ingredients":[]} Hope this helps!`,
			expected: "X",
		},
		{
			name:     "code fenced",
			reply:    "```json\n{\"productName\":\"Y\",\"verdict\":\"NEUTRAL\",\"matchScore\":50,\"ingredients\":[]}\n```",
			expected: "Y",
		},
		{
			name:     "out of range score accepted",
			reply:    `{"productName":"Z","verdict":"NEUTRAL","matchScore":250,"ingredients":[]}`,
			expected: "Z",
		},
		{name: "service error", err: errors.New("connection refused"), kind: KindServiceUnavailable},
		{name: "empty body", reply: "", kind: KindServiceUnavailable},
		{name: "whitespace body", reply: "  \n\t", kind: KindServiceUnavailable},
		{name: "no json", reply: "I cannot read this label.", kind: KindMalformedResponse},
		{name: "broken json", reply: `{"productName": "X",`, kind: KindMalformedResponse},
		{name: "array not object", reply: `["X"]`, kind: KindMalformedResponse},
		{
			name:  "missing required field",
			reply: `{"productName":"X","verdict":"NEUTRAL","ingredients":[]}`,
			kind:  KindMalformedResponse,
		},
		{
			name:  "wrong primitive type",
			reply: `{"productName":"X","verdict":"NEUTRAL","matchScore":"90","ingredients":[]}`,
			kind:  KindMalformedResponse,
		},
		{
			name:  "ingredient missing reason",
			reply: `{"productName":"X","verdict":"NEUTRAL","matchScore":90,"ingredients":[{"name":"A","status":"SAFE","function":"B"}]}`,
			kind:  KindMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{reply: tt.reply, err: tt.err}
			c := NewClient(Product, p, providers.Config{Model: "test"})

			result, err := c.Analyze(context.Background(), Request{Image: testImage(), Context: "User Profile: Oily"})
			if tt.kind != 0 {
				if result != nil {
					t.Errorf("Expected no result on failure, got %+v", result)
				}
				if got := KindOf(err); got != tt.kind {
					t.Fatalf("Expected %s, got %v", tt.kind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			if result.ProductName != tt.expected {
				t.Errorf("Expected product %s, got %s", tt.expected, result.ProductName)
			}
		})
	}
}

func TestProductRequest(t *testing.T) {
	p := &fakeProvider{reply: `{"productName":"X","verdict":"NEUTRAL","matchScore":50,"ingredients":[]}`}
	c := NewClient(Product, p, providers.Config{Model: "test"})

	summary := "User Profile: Oily, Concerns: Acne, Strict Avoid: Coconut Oil."
	if _, err := c.Analyze(context.Background(), Request{Image: testImage(), Context: summary}); err != nil {
		t.Fatal(err)
	}

	if p.last.Prompt != "Analyze ingredients against this profile: "+summary+". Strictly return JSON only." {
		t.Errorf("Unexpected prompt %q", p.last.Prompt)
	}
	if !strings.Contains(p.last.SystemInstruction, "The Chemist") {
		t.Errorf("Unexpected system instruction %q", p.last.SystemInstruction)
	}
	if p.last.Schema == nil || p.last.Schema.Name != "product" {
		t.Errorf("Expected product contract to be forwarded")
	}
	if p.last.MIMEType != "image/jpeg" || len(p.last.Image) != 3 || p.last.Model != "test" {
		t.Errorf("Unexpected request %+v", p.last)
	}
}

func TestFaceAnalyzeNormalizesConcerns(t *testing.T) {
	p := &fakeProvider{reply: `{"metrics":[{"concern":"DarkCircles","severity":4,"notes":"under eyes"},{"concern":"Acne","severity":55,"notes":"cheeks"}],"followUpQuestion":"Do you sleep well?"}`}
	c := NewClient(Face, p, providers.Config{})

	result, err := c.Analyze(context.Background(), Request{Image: testImage()})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.Metrics) != 2 {
		t.Fatalf("Expected 2 metrics, got %d", len(result.Metrics))
	}
	if result.Metrics[0].Concern != schema.ConcernDarkCircles {
		t.Errorf("Expected normalized concern, got %q", result.Metrics[0].Concern)
	}
	if result.Metrics[1].Severity != 55 {
		t.Errorf("Expected severity to be kept as-is, got %v", result.Metrics[1].Severity)
	}
	if p.last.Prompt != "Analyze the skin condition. Strictly return JSON only." {
		t.Errorf("Unexpected face prompt %q", p.last.Prompt)
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	p := &fakeProvider{reply: `{}`, delay: time.Second}
	c := NewClient(Face, p, providers.Config{})
	c.Timeout = 20 * time.Millisecond

	_, err := c.Analyze(context.Background(), Request{Image: testImage()})
	if KindOf(err) != KindServiceUnavailable {
		t.Fatalf("Expected ServiceUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error to be wrapped, got %v", err)
	}
}

func TestAnalyzeWithoutImage(t *testing.T) {
	c := NewClient(Face, &fakeProvider{}, providers.Config{})
	if _, err := c.Analyze(context.Background(), Request{}); KindOf(err) != KindServiceUnavailable {
		t.Errorf("Expected ServiceUnavailable, got %v", err)
	}
}

func TestWire(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		expected string
	}{
		{
			name:     "face has no context",
			req:      Request{Image: testImage()},
			expected: `{"image":"/9j/","mimeType":"image/jpeg"}`,
		},
		{
			name:     "product carries context",
			req:      Request{Image: testImage(), Context: "User Profile: Dry"},
			expected: `{"image":"/9j/","mimeType":"image/jpeg","context":"User Profile: Dry"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.req.Wire())
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, b)
			}
		})
	}
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("SKNCR_PROVIDER", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("SKNCR_ANALYSIS_TIMEOUT", "")
	t.Setenv("SKNCR_TEMPERATURE", "")

	s, err := SettingsFromEnv(Settings{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Provider != "gemini" || s.Model != "gemini-1.5-pro" || s.Timeout != DefaultTimeout || s.Temperature != nil {
		t.Errorf("Unexpected defaults %+v", s)
	}

	t.Setenv("SKNCR_PROVIDER", "ollama")
	t.Setenv("OLLAMA_MODEL", "llava:7b")
	t.Setenv("SKNCR_ANALYSIS_TIMEOUT", "15s")
	s, err = SettingsFromEnv(Settings{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Provider != "ollama" || s.Model != "llava:7b" || s.Timeout != 15*time.Second {
		t.Errorf("Unexpected settings %+v", s)
	}

	t.Setenv("SKNCR_TEMPERATURE", "0.4")
	s, err = SettingsFromEnv(Settings{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Temperature == nil || *s.Temperature != 0.4 {
		t.Errorf("Expected temperature 0.4, got %v", s.Temperature)
	}

	flag := 0.0
	s, err = SettingsFromEnv(Settings{Temperature: &flag})
	if err != nil {
		t.Fatal(err)
	}
	if *s.Temperature != 0 {
		t.Errorf("Expected explicit temperature to win, got %v", *s.Temperature)
	}

	t.Setenv("SKNCR_TEMPERATURE", "warm")
	if _, err := SettingsFromEnv(Settings{}); err == nil {
		t.Error("Expected invalid temperature error")
	}
	t.Setenv("SKNCR_TEMPERATURE", "")

	t.Setenv("SKNCR_ANALYSIS_TIMEOUT", "soon")
	if _, err := SettingsFromEnv(Settings{}); err == nil {
		t.Error("Expected invalid timeout error")
	}
}

func TestBuild(t *testing.T) {
	c, err := Build(Product, Settings{Provider: "stub", Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	result, err := c.Analyze(context.Background(), Request{Image: testImage(), Context: "User Profile: Normal"})
	if err != nil {
		t.Fatalf("Stub analysis failed: %v", err)
	}
	if result.ProductName == "" {
		t.Error("Expected stub product name")
	}

	temperature := 0.3
	face, err := Build(Face, Settings{Provider: "stub", Temperature: &temperature})
	if err != nil {
		t.Fatal(err)
	}
	if face.Config.Temperature == nil || *face.Config.Temperature != 0.3 {
		t.Errorf("Expected temperature forwarded to provider config, got %v", face.Config.Temperature)
	}

	if _, err := Build(Face, Settings{Provider: "nope"}); err == nil {
		t.Error("Expected unsupported provider error")
	}
}

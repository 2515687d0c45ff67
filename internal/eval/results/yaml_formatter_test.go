package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skncr-ai/scanner/internal/eval/metrics"
)

func TestSaveToYAML(t *testing.T) {
	match := true
	results := []metrics.EvaluationResult{
		{
			ID:             "p1",
			Kind:           "product",
			Image:          "labels/serum.jpg",
			ProcessingTime: 2 * time.Second,
			Comparison:     &metrics.Comparison{Score: 1, VerdictMatch: &match},
		},
		{
			ID:          "f1",
			Kind:        "face",
			Image:       "faces/one.png",
			FailureKind: "ServiceUnavailable",
			Error:       "timed out",
		},
	}
	agg := metrics.AggregateEvaluationResults(results, "ollama", "llava:13b")
	spec := NewSpec(EvalConfig{Provider: "ollama", Model: "llava:13b", Timestamp: "2025-01-02_03-04-05"}, agg, results)

	dir := filepath.Join(t.TempDir(), "evals")
	path, err := SaveToYAML(dir, spec)
	if err != nil {
		t.Fatalf("SaveToYAML failed: %v", err)
	}
	if filepath.Base(path) != "llava_13b-2025-01-02_03-04-05.yaml" {
		t.Errorf("Unexpected file name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"provider: ollama", "identifier: p1", "verdictmatch: true", "failurekind: ServiceUnavailable"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected report to contain %q", want)
		}
	}

	loaded, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML failed: %v", err)
	}
	if loaded.Summary.Total != 2 || loaded.Summary.Failed != 1 || len(loaded.Results) != 2 {
		t.Errorf("Unexpected loaded summary %+v", loaded.Summary)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	if _, err := LoadYAML(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

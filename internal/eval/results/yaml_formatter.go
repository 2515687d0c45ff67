package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skncr-ai/scanner/internal/eval/metrics"
	"gopkg.in/yaml.v3"
)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	DatasetPath string `yaml:"datasetpath"`
	SampleSize  int    `yaml:"samplesize"`
	Concurrency int    `yaml:"concurrency"`
	Timestamp   string `yaml:"timestamp"`
}

// EvalSummary is the aggregate section of the eval YAML
type EvalSummary struct {
	Total           int            `yaml:"total"`
	Succeeded       int            `yaml:"succeeded"`
	Failed          int            `yaml:"failed"`
	AverageScore    float64        `yaml:"averagescore"`
	MedianScore     float64        `yaml:"medianscore"`
	VerdictAccuracy float64        `yaml:"verdictaccuracy"`
	AvoidRecall     float64        `yaml:"avoidrecall"`
	ConcernF1       float64        `yaml:"concernf1"`
	Failures        map[string]int `yaml:"failures,omitempty"`
	AverageSeconds  float64        `yaml:"averageseconds"`
}

// EvalResult represents a single evaluation result
type EvalResult struct {
	Identifier     string   `yaml:"identifier"`
	Kind           string   `yaml:"kind"`
	Image          string   `yaml:"image"`
	Score          float64  `yaml:"score"`
	VerdictMatch   *bool    `yaml:"verdictmatch,omitempty"`
	MissedAvoid    []string `yaml:"missedavoid,omitempty"`
	MissedConcerns []string `yaml:"missedconcerns,omitempty"`
	ExtraConcerns  []string `yaml:"extraconcerns,omitempty"`
	Seconds        float64  `yaml:"seconds"`
	FailureKind    string   `yaml:"failurekind,omitempty"`
	Error          string   `yaml:"error,omitempty"`
	Response       any      `yaml:"response,omitempty"`
}

// EvalSpec represents the complete evaluation specification
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Summary EvalSummary  `yaml:"summary"`
	Results []EvalResult `yaml:"results"`
}

// NewSpec builds the report for one run. Failed records are kept so they can be inspected.
func NewSpec(cfg EvalConfig, agg *metrics.AggregateResults, results []metrics.EvaluationResult) *EvalSpec {
	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}

	spec := &EvalSpec{
		Config: cfg,
		Summary: EvalSummary{
			Total:           agg.TotalRecords,
			Succeeded:       agg.SuccessCount,
			Failed:          agg.FailureCount,
			AverageScore:    agg.AverageScore,
			MedianScore:     agg.MedianScore,
			VerdictAccuracy: agg.VerdictAccuracy.AverageScore,
			AvoidRecall:     agg.AvoidRecall.AverageScore,
			ConcernF1:       agg.ConcernF1.AverageScore,
			Failures:        agg.Failures,
			AverageSeconds:  agg.AverageProcessingTime.Seconds(),
		},
		Results: make([]EvalResult, 0, len(results)),
	}

	for _, r := range results {
		evalResult := EvalResult{
			Identifier:  r.ID,
			Kind:        r.Kind,
			Image:       r.Image,
			Seconds:     r.ProcessingTime.Seconds(),
			FailureKind: r.FailureKind,
			Error:       r.Error,
			Response:    r.Response,
		}
		if c := r.Comparison; c != nil {
			evalResult.Score = c.Score
			evalResult.VerdictMatch = c.VerdictMatch
			evalResult.MissedAvoid = c.MissedAvoid
			evalResult.MissedConcerns = c.MissedConcerns
			evalResult.ExtraConcerns = c.ExtraConcerns
		}
		spec.Results = append(spec.Results, evalResult)
	}

	return spec
}

// SaveToYAML writes the report to <dir>/<model>-<timestamp>.yaml and returns its path
func SaveToYAML(dir string, spec *EvalSpec) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	name := spec.Config.Model
	if name == "" {
		name = spec.Config.Provider
	}
	// model names such as llava:13b or org/model are not safe file names
	name = strings.NewReplacer("/", "_", ":", "_").Replace(name)
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", name, spec.Config.Timestamp))

	data, err := yaml.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	return absPath, nil
}

// LoadYAML reads a report written by SaveToYAML
func LoadYAML(path string) (*EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var spec EvalSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse results file: %w", err)
	}
	return &spec, nil
}

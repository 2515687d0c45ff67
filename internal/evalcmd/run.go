package evalcmd

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/skncr-ai/scanner/internal/analysis"
	"github.com/skncr-ai/scanner/internal/camera"
	"github.com/skncr-ai/scanner/internal/capture"
	"github.com/skncr-ai/scanner/internal/eval/dataset"
	"github.com/skncr-ai/scanner/internal/eval/metrics"
	"github.com/skncr-ai/scanner/internal/eval/results"
	"github.com/skncr-ai/scanner/internal/profile"
	"github.com/skncr-ai/scanner/internal/schema"
	"golang.org/x/sync/errgroup"
)

type runConfig struct {
	DatasetPath string
	Settings    analysis.Settings
	OutputDir   string
	SampleSize  int
	Concurrency int
}

type runner struct {
	face    *analysis.Client[schema.FaceAnalysis]
	product *analysis.Client[schema.ProductAnalysis]
	baseDir string

	mu       sync.Mutex
	profiles map[string]profile.Profile
}

func executeRun(ctx context.Context, cfg runConfig) (*results.EvalSpec, error) {
	settings, err := analysis.SettingsFromEnv(cfg.Settings)
	if err != nil {
		return nil, err
	}
	slog.Info("Starting evaluation run", "dataset", cfg.DatasetPath, "provider", settings.Provider, "model", settings.Model)

	loader := dataset.NewLoader(cfg.DatasetPath)
	records, err := loader.LoadSample(cfg.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Info("Dataset loaded", "items", len(records))

	face, err := analysis.Build(analysis.Face, settings)
	if err != nil {
		return nil, err
	}
	product, err := analysis.Build(analysis.Product, settings)
	if err != nil {
		return nil, err
	}
	r := &runner{
		face:     face,
		product:  product,
		baseDir:  loader.Dir(),
		profiles: make(map[string]profile.Profile),
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	slog.Info("Processing items", "concurrency", concurrency)

	evalResults := make([]metrics.EvaluationResult, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slog.Info("Processing item", "id", rec.ID, "progress", fmt.Sprintf("%d/%d", i+1, len(records)))
			evalResults[i] = r.processItem(gctx, rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}

	agg := metrics.AggregateEvaluationResults(evalResults, settings.Provider, settings.Model)
	spec := results.NewSpec(results.EvalConfig{
		Provider:    settings.Provider,
		Model:       settings.Model,
		DatasetPath: cfg.DatasetPath,
		SampleSize:  len(records),
		Concurrency: concurrency,
	}, agg, evalResults)

	printSummary(&spec.Summary)

	if cfg.OutputDir != "" {
		path, err := results.SaveToYAML(cfg.OutputDir, spec)
		if err != nil {
			return nil, fmt.Errorf("failed to save results: %w", err)
		}
		fmt.Printf("\n✅ Evaluation results saved to: %s\n", path)
		fmt.Printf("\nGenerate detailed report with:\n")
		fmt.Printf("  skncr eval report %s\n", path)
	}

	return spec, nil
}

func (r *runner) processItem(ctx context.Context, rec dataset.Record) (result metrics.EvaluationResult) {
	result = metrics.EvaluationResult{
		ID:    rec.ID,
		Kind:  rec.Kind,
		Image: rec.ImagePath,
	}
	start := time.Now()
	defer func() { result.ProcessingTime = time.Since(start) }()

	if err := rec.Validate(); err != nil {
		result.Error = err.Error()
		return result
	}

	frame, err := camera.DecodeFile(rec.ResolveImage(r.baseDir))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	fail := func(err error) {
		result.Error = err.Error()
		if kind := analysis.KindOf(err); kind != 0 {
			result.FailureKind = kind.String()
		}
	}

	switch rec.Kind {
	case dataset.KindFace:
		img, err := encode(frame, analysis.Face.Capture)
		if err != nil {
			fail(err)
			return result
		}
		got, err := r.face.Analyze(ctx, analysis.Request{Image: img})
		if err != nil {
			fail(err)
			return result
		}
		result.Response = got
		result.Comparison = metrics.CompareFace(rec.ExpectedConcerns, got)

	case dataset.KindProduct:
		p, err := r.profile(rec.ProfileRef())
		if err != nil {
			fail(err)
			return result
		}
		img, err := encode(frame, analysis.Product.Capture)
		if err != nil {
			fail(err)
			return result
		}
		got, err := r.product.Analyze(ctx, analysis.Request{Image: img, Context: p.Summary()})
		if err != nil {
			fail(err)
			return result
		}
		result.Response = got
		result.Comparison = metrics.CompareProduct(rec.ExpectedVerdict, rec.ExpectedAvoid, got)
	}

	slog.Debug("Item scored", "id", rec.ID, "score", result.Comparison.Score)
	return result
}

// encode freezes a dataset still. Stored stills are already oriented, so they are never mirrored.
func encode(frame image.Image, opts capture.Options) (*capture.Image, error) {
	opts.Mirror = false
	return capture.Encode(frame, opts)
}

func (r *runner) profile(ref string) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[ref]; ok {
		return p, nil
	}
	p, err := profile.Load(ref)
	if err != nil {
		return profile.Profile{}, err
	}
	r.profiles[ref] = p
	return p, nil
}

func printSummary(summary *results.EvalSummary) {
	fmt.Println("\n========================================")
	fmt.Println("Evaluation Summary")
	fmt.Println("========================================")
	fmt.Printf("Total Records:      %d\n", summary.Total)
	fmt.Printf("Successful Evals:   %d\n", summary.Succeeded)
	fmt.Printf("Failed Evals:       %d\n", summary.Failed)
	fmt.Println()
	fmt.Printf("Average Score:      %.2f%%\n", summary.AverageScore*100)
	fmt.Printf("Median Score:       %.2f%%\n", summary.MedianScore*100)
	fmt.Printf("Verdict Accuracy:   %.2f%%\n", summary.VerdictAccuracy*100)
	fmt.Printf("Avoid Recall:       %.2f%%\n", summary.AvoidRecall*100)
	fmt.Printf("Concern F1:         %.2f%%\n", summary.ConcernF1*100)
	fmt.Printf("Average Time:       %.2fs\n", summary.AverageSeconds)

	if len(summary.Failures) > 0 {
		fmt.Println()
		fmt.Println("Failures:")
		var kinds []string
		for kind := range summary.Failures {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Printf("  %s: %d\n", kind, summary.Failures[kind])
		}
	}
	fmt.Println("========================================")
}

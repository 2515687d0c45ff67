package metrics

import (
	"sort"
	"time"
)

// EvaluationResult is the outcome of analysing one labelled record
type EvaluationResult struct {
	ID             string
	Kind           string
	Image          string
	Response       any // the decoded analysis, nil on failure
	Comparison     *Comparison
	ProcessingTime time.Duration
	FailureKind    string // analysis failure kind, empty when the analysis succeeded
	Error          string
}

// AggregateResults represents aggregated evaluation metrics
type AggregateResults struct {
	TotalRecords int
	SuccessCount int
	FailureCount int

	AverageScore float64
	MedianScore  float64
	MinScore     float64
	MaxScore     float64

	// Per-kind statistics
	VerdictAccuracy FieldStats
	AvoidRecall     FieldStats
	ConcernF1       FieldStats

	// Failures by analysis failure kind
	Failures map[string]int

	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration

	EvaluationDate time.Time
	Provider       string
	Model          string
}

// FieldStats contains statistics for one scored aspect
type FieldStats struct {
	Count        int
	AverageScore float64
	Scores       []float64
}

func (s *FieldStats) add(score float64) {
	s.Count++
	s.Scores = append(s.Scores, score)
}

// AggregateEvaluationResults aggregates multiple evaluation results
func AggregateEvaluationResults(results []EvaluationResult, provider, model string) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords:   len(results),
		Failures:       make(map[string]int),
		EvaluationDate: time.Now(),
		Provider:       provider,
		Model:          model,
	}

	var scores []float64
	var successDuration time.Duration

	for _, result := range results {
		agg.TotalProcessingTime += result.ProcessingTime

		if result.Error != "" {
			agg.FailureCount++
			kind := result.FailureKind
			if kind == "" {
				kind = "Other"
			}
			agg.Failures[kind]++
			continue
		}

		agg.SuccessCount++
		successDuration += result.ProcessingTime

		c := result.Comparison
		if c == nil {
			continue
		}
		scores = append(scores, c.Score)

		if c.VerdictMatch != nil {
			agg.VerdictAccuracy.add(boolScore(*c.VerdictMatch))
		}
		if c.AvoidRecall != nil {
			agg.AvoidRecall.add(*c.AvoidRecall)
		}
		if result.Kind == "face" {
			agg.ConcernF1.add(c.Score)
		}
	}

	if len(scores) > 0 {
		agg.AverageScore = calculateAverage(scores)

		sorted := append([]float64(nil), scores...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			agg.MedianScore = (sorted[mid-1] + sorted[mid]) / 2
		} else {
			agg.MedianScore = sorted[mid]
		}
		agg.MinScore = sorted[0]
		agg.MaxScore = sorted[len(sorted)-1]
	}

	agg.VerdictAccuracy.AverageScore = calculateAverage(agg.VerdictAccuracy.Scores)
	agg.AvoidRecall.AverageScore = calculateAverage(agg.AvoidRecall.Scores)
	agg.ConcernF1.AverageScore = calculateAverage(agg.ConcernF1.Scores)

	if agg.SuccessCount > 0 {
		agg.AverageProcessingTime = successDuration / time.Duration(agg.SuccessCount)
	}

	return agg
}

func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var total float64
	for _, s := range scores {
		total += s
	}
	return total / float64(len(scores))
}

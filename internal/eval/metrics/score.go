package metrics

import (
	"sort"
	"strings"

	"github.com/skncr-ai/scanner/internal/schema"
)

// Comparison scores one analysis against its labels. Score is in [0, 1].
type Comparison struct {
	Score float64

	// Product
	VerdictMatch *bool
	AvoidRecall  *float64
	MissedAvoid  []string

	// Face
	ConcernPrecision float64
	ConcernRecall    float64
	MissedConcerns   []string
	ExtraConcerns    []string
}

// CompareProduct scores a product analysis. The verdict counts when labelled, and so does
// the share of expected ingredients the model flagged AVOID.
func CompareProduct(expectedVerdict string, expectedAvoid []string, got *schema.ProductAnalysis) *Comparison {
	c := &Comparison{}
	var parts []float64

	if expectedVerdict != "" {
		match := strings.EqualFold(strings.TrimSpace(expectedVerdict), string(got.Verdict))
		c.VerdictMatch = &match
		parts = append(parts, boolScore(match))
	}

	if len(expectedAvoid) > 0 {
		flagged := make(map[string]bool)
		for _, ing := range got.Flagged() {
			flagged[normalizeName(ing.Name)] = true
		}
		hits := 0
		for _, name := range expectedAvoid {
			if flagged[normalizeName(name)] {
				hits++
			} else {
				c.MissedAvoid = append(c.MissedAvoid, name)
			}
		}
		recall := float64(hits) / float64(len(expectedAvoid))
		c.AvoidRecall = &recall
		parts = append(parts, recall)
	}

	c.Score = calculateAverage(parts)
	return c
}

// CompareFace scores a face analysis by the F1 of reported against expected concerns
func CompareFace(expectedConcerns []string, got *schema.FaceAnalysis) *Comparison {
	expected := make(map[schema.SkinConcern]bool)
	for _, c := range expectedConcerns {
		expected[schema.SkinConcern(c).Normalize()] = true
	}
	reported := make(map[schema.SkinConcern]bool)
	for _, m := range got.Metrics {
		reported[m.Concern.Normalize()] = true
	}

	c := &Comparison{}
	hits := 0
	for _, concern := range schema.SkinConcerns {
		switch {
		case expected[concern] && reported[concern]:
			hits++
		case expected[concern]:
			c.MissedConcerns = append(c.MissedConcerns, string(concern))
		case reported[concern]:
			c.ExtraConcerns = append(c.ExtraConcerns, string(concern))
		}
	}
	// concerns outside the known list still count against precision and recall
	for concern := range expected {
		if !isKnown(concern) && !reported[concern] {
			c.MissedConcerns = append(c.MissedConcerns, string(concern))
		} else if !isKnown(concern) {
			hits++
		}
	}
	for concern := range reported {
		if !isKnown(concern) && !expected[concern] {
			c.ExtraConcerns = append(c.ExtraConcerns, string(concern))
		}
	}

	sort.Strings(c.MissedConcerns)
	sort.Strings(c.ExtraConcerns)

	if len(reported) > 0 {
		c.ConcernPrecision = float64(hits) / float64(len(reported))
	}
	if len(expected) > 0 {
		c.ConcernRecall = float64(hits) / float64(len(expected))
	}
	if p, r := c.ConcernPrecision, c.ConcernRecall; p+r > 0 {
		c.Score = 2 * p * r / (p + r)
	}
	return c
}

func isKnown(c schema.SkinConcern) bool {
	for _, known := range schema.SkinConcerns {
		if c == known {
			return true
		}
	}
	return false
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

package schema

import "strings"

// SkinConcern is a category of skin issue reported by the face analysis
type SkinConcern string

const (
	ConcernAcne        SkinConcern = "Acne"
	ConcernRedness     SkinConcern = "Redness"
	ConcernWrinkles    SkinConcern = "Wrinkles"
	ConcernTexture     SkinConcern = "Texture"
	ConcernDarkCircles SkinConcern = "Dark Circles"
	ConcernDullness    SkinConcern = "Dullness"
)

// SkinConcerns lists every concern in the order the model is told about them
var SkinConcerns = []SkinConcern{
	ConcernAcne,
	ConcernRedness,
	ConcernWrinkles,
	ConcernTexture,
	ConcernDarkCircles,
	ConcernDullness,
}

// Normalize maps loosely spelled concerns ("darkcircles", "DarkCircles", "dark circles")
// onto the canonical value. Unknown concerns are returned unchanged.
func (c SkinConcern) Normalize() SkinConcern {
	key := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(string(c), " ", ""), "_", ""))
	for _, known := range SkinConcerns {
		if strings.ToLower(strings.ReplaceAll(string(known), " ", "")) == key {
			return known
		}
	}
	return c
}

// SkinMetric is one finding of the face analysis
type SkinMetric struct {
	Concern  SkinConcern `json:"concern" yaml:"concern"`
	Severity float64     `json:"severity" yaml:"severity"` // 1-10, not enforced
	Location string      `json:"location,omitempty" yaml:"location,omitempty"`
	Notes    string      `json:"notes" yaml:"notes"`
}

// Band returns the presentation band for the metric's severity
func (m SkinMetric) Band() SeverityBand {
	return BandFor(m.Severity)
}

// FaceAnalysis is the result of the face pipeline
type FaceAnalysis struct {
	Metrics          []SkinMetric `json:"metrics" yaml:"metrics"`
	FollowUpQuestion string       `json:"followUpQuestion" yaml:"followUpQuestion"`
}

// SeverityBand groups severities the way the mirror colours them
type SeverityBand string

const (
	BandLow      SeverityBand = "low"
	BandModerate SeverityBand = "moderate"
	BandHigh     SeverityBand = "high"
)

// BandFor buckets a 1-10 severity: below 3 is low, below 6 moderate, the rest high
func BandFor(severity float64) SeverityBand {
	switch {
	case severity < 3:
		return BandLow
	case severity < 6:
		return BandModerate
	default:
		return BandHigh
	}
}

// Verdict is the three-valued product suitability judgment
type Verdict string

const (
	VerdictNeed     Verdict = "YOU NEED THIS"
	VerdictNeutral  Verdict = "NEUTRAL"
	VerdictDontNeed Verdict = "YOU DON'T NEED THIS"
)

// Verdicts lists the verdicts the model may return
var Verdicts = []Verdict{VerdictNeed, VerdictNeutral, VerdictDontNeed}

// IngredientStatus classifies one ingredient against the user's profile
type IngredientStatus string

const (
	StatusSafe       IngredientStatus = "SAFE"
	StatusCaution    IngredientStatus = "CAUTION"
	StatusAvoid      IngredientStatus = "AVOID"
	StatusBeneficial IngredientStatus = "BENEFICIAL"
)

// IngredientStatuses lists the statuses the model may return
var IngredientStatuses = []IngredientStatus{StatusSafe, StatusCaution, StatusAvoid, StatusBeneficial}

// IngredientAnalysis is one ingredient finding of the product analysis
type IngredientAnalysis struct {
	Name     string           `json:"name" yaml:"name"`
	Status   IngredientStatus `json:"status" yaml:"status"`
	Function string           `json:"function" yaml:"function"` // e.g. "Exfoliant", "Preservative"
	Reason   string           `json:"reason" yaml:"reason"`     // why it matches or mismatches the profile
}

// ProductAnalysis is the result of the product pipeline
type ProductAnalysis struct {
	ProductName string               `json:"productName" yaml:"productName"`
	BrandName   string               `json:"brandName,omitempty" yaml:"brandName,omitempty"`
	MatchScore  float64              `json:"matchScore" yaml:"matchScore"` // 0-100, not enforced
	Verdict     Verdict              `json:"verdict" yaml:"verdict"`
	Summary     string               `json:"summary" yaml:"summary"`
	Ingredients []IngredientAnalysis `json:"ingredients" yaml:"ingredients"`
	KeyBenefits []string             `json:"keyBenefits,omitempty" yaml:"keyBenefits,omitempty"`
}

// Flagged returns the ingredients marked AVOID, in the order they were reported
func (p *ProductAnalysis) Flagged() []IngredientAnalysis {
	var out []IngredientAnalysis
	for _, ing := range p.Ingredients {
		if ing.Status == StatusAvoid {
			out = append(out, ing)
		}
	}
	return out
}

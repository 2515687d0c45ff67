package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	KindFace    = "face"
	KindProduct = "product"
)

// Record is one labelled still of a face or a product label
type Record struct {
	ID        string `json:"id" parquet:"id"`
	Kind      string `json:"kind" parquet:"kind"`             // "face" or "product"
	ImagePath string `json:"image_path" parquet:"image_path"` // relative paths resolve against the dataset file
	Profile   string `json:"profile,omitempty" parquet:"profile"`

	// Ground truth for product records
	ExpectedVerdict string   `json:"expected_verdict,omitempty" parquet:"expected_verdict"`
	ExpectedAvoid   []string `json:"expected_avoid,omitempty" parquet:"expected_avoid,list"`

	// Ground truth for face records
	ExpectedConcerns []string `json:"expected_concerns,omitempty" parquet:"expected_concerns,list"`
}

// Validate reports records that cannot be scored
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record has no id")
	}
	if r.ImagePath == "" {
		return fmt.Errorf("record %s has no image_path", r.ID)
	}
	switch r.Kind {
	case KindFace:
		if len(r.ExpectedConcerns) == 0 {
			return fmt.Errorf("face record %s has no expected_concerns", r.ID)
		}
	case KindProduct:
		if r.ExpectedVerdict == "" && len(r.ExpectedAvoid) == 0 {
			return fmt.Errorf("product record %s has neither expected_verdict nor expected_avoid", r.ID)
		}
	default:
		return fmt.Errorf("record %s has unknown kind %q", r.ID, r.Kind)
	}
	return nil
}

// ResolveImage returns the image path, joined onto baseDir when relative
func (r *Record) ResolveImage(baseDir string) string {
	if filepath.IsAbs(r.ImagePath) || baseDir == "" {
		return r.ImagePath
	}
	return filepath.Join(baseDir, r.ImagePath)
}

// ProfileRef returns the profile to judge a product record against, "guest" when unset
func (r *Record) ProfileRef() string {
	if p := strings.TrimSpace(r.Profile); p != "" {
		return p
	}
	return "guest"
}

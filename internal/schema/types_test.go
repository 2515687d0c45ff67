package schema

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   SkinConcern
		want SkinConcern
	}{
		{"DarkCircles", ConcernDarkCircles},
		{"dark circles", ConcernDarkCircles},
		{"dark_circles", ConcernDarkCircles},
		{"acne", ConcernAcne},
		{"Dullness", ConcernDullness},
		{"Freckles", "Freckles"},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		severity float64
		want     SeverityBand
	}{
		{1, BandLow},
		{2.9, BandLow},
		{3, BandModerate},
		{5, BandModerate},
		{6, BandHigh},
		{10, BandHigh},
		{55, BandHigh},
	}

	for _, tt := range tests {
		if got := BandFor(tt.severity); got != tt.want {
			t.Errorf("BandFor(%v): expected %s, got %s", tt.severity, tt.want, got)
		}
	}
}

func TestFlagged(t *testing.T) {
	p := ProductAnalysis{
		Ingredients: []IngredientAnalysis{
			{Name: "Water", Status: StatusSafe},
			{Name: "Isopropyl Myristate", Status: StatusAvoid},
			{Name: "Salicylic Acid", Status: StatusBeneficial},
			{Name: "Limonene", Status: StatusAvoid},
		},
	}

	flagged := p.Flagged()
	if len(flagged) != 2 {
		t.Fatalf("Expected 2 flagged ingredients, got %d", len(flagged))
	}
	if flagged[0].Name != "Isopropyl Myristate" || flagged[1].Name != "Limonene" {
		t.Errorf("Unexpected flagged order: %+v", flagged)
	}
}

package gemini

import (
	"context"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/skncr-ai/scanner/internal/providers"
	"github.com/skncr-ai/scanner/internal/schema"
)

func TestToSchemaProduct(t *testing.T) {
	s := ToSchema(schema.ProductContract)

	if s.Type != genai.TypeObject {
		t.Fatalf("Expected object schema, got %v", s.Type)
	}
	if got := strings.Join(s.Required, ","); got != "productName,matchScore,verdict,ingredients" {
		t.Errorf("Unexpected required fields: %s", got)
	}

	verdict := s.Properties["verdict"]
	if verdict.Type != genai.TypeString || len(verdict.Enum) != 3 {
		t.Errorf("Expected string enum verdict, got %+v", verdict)
	}
	if s.Properties["matchScore"].Type != genai.TypeNumber {
		t.Errorf("Expected number matchScore")
	}

	ingredients := s.Properties["ingredients"]
	if ingredients.Type != genai.TypeArray || ingredients.Items == nil {
		t.Fatalf("Expected array of ingredients, got %+v", ingredients)
	}
	if len(ingredients.Items.Required) != 4 {
		t.Errorf("Expected 4 required ingredient fields, got %v", ingredients.Items.Required)
	}

	benefits := s.Properties["keyBenefits"]
	if benefits.Items == nil || benefits.Items.Type != genai.TypeString {
		t.Errorf("Expected keyBenefits to be an array of strings")
	}
}

func TestToSchemaFace(t *testing.T) {
	s := ToSchema(schema.FaceContract)
	metric := s.Properties["metrics"].Items
	if metric == nil {
		t.Fatal("Expected metric item schema")
	}
	if _, ok := metric.Properties["location"]; !ok {
		t.Error("Expected optional location property")
	}
	for _, name := range metric.Required {
		if name == "location" {
			t.Error("location must not be required")
		}
	}
}

func TestGenerateWithoutAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := New().Generate(context.Background(), providers.Request{Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("Expected missing key error, got %v", err)
	}
}

package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/skncr-ai/scanner/internal/providers"
	"github.com/skncr-ai/scanner/internal/schema"
	"google.golang.org/api/option"
)

// Gemini is a provider for Google Gemini
type Gemini struct{}

// New returns a new Gemini provider
func New() *Gemini {
	return &Gemini{}
}

// Name returns the provider label
func (g *Gemini) Name() string { return "gemini" }

// Generate sends the image and prompt to Gemini and returns the text of the first candidate
func (g *Gemini) Generate(ctx context.Context, req providers.Request) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(req.Model)
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemInstruction)}}
	}
	if req.Schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = ToSchema(*req.Schema)
	}

	var parts []genai.Part
	if len(req.Image) > 0 {
		parts = append(parts, genai.Blob{MIMEType: req.MIMEType, Data: req.Image})
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}

	return text.String(), nil
}

// ToSchema converts a response contract into Gemini's response schema
func ToSchema(c schema.Contract) *genai.Schema {
	return objectSchema(c.Fields)
}

func objectSchema(fields []schema.Field) *genai.Schema {
	s := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
	}
	for _, f := range fields {
		s.Properties[f.Name] = fieldSchema(f)
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

func fieldSchema(f schema.Field) *genai.Schema {
	switch f.Kind {
	case schema.KindObject:
		return objectSchema(f.Fields)
	case schema.KindArray:
		s := &genai.Schema{Type: genai.TypeArray}
		if f.Items != nil {
			s.Items = fieldSchema(*f.Items)
		}
		return s
	case schema.KindNumber:
		return &genai.Schema{Type: genai.TypeNumber}
	case schema.KindBoolean:
		return &genai.Schema{Type: genai.TypeBoolean}
	default:
		s := &genai.Schema{Type: genai.TypeString}
		if len(f.Enum) > 0 {
			s.Format = "enum"
			s.Enum = f.Enum
		}
		return s
	}
}

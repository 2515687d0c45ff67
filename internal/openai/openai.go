package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"os"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/skncr-ai/scanner/internal/providers"
)

// OpenAI is a provider for OpenAI-compatible chat completion APIs
type OpenAI struct {
	MaxTokens int
}

// New returns a new OpenAI provider
func New() *OpenAI {
	return &OpenAI{MaxTokens: 2000}
}

// Name returns the provider label
func (o *OpenAI) Name() string { return "openai" }

// Generate sends the image as a data URL alongside the prompt
func (o *OpenAI) Generate(ctx context.Context, req providers.Request) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	client := goopenai.NewClientWithConfig(cfg)

	prompt := req.Prompt
	if req.Schema != nil {
		shape, err := json.Marshal(req.Schema.JSONSchema())
		if err != nil {
			return "", fmt.Errorf("failed to marshal response schema: %w", err)
		}
		prompt += "\n\nRespond with a single JSON object matching this JSON Schema:\n" + string(shape)
	}

	parts := []goopenai.ChatMessagePart{
		{Type: goopenai.ChatMessagePartTypeText, Text: prompt},
	}
	if len(req.Image) > 0 {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{
				URL:    "data:" + req.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(req.Image),
				Detail: goopenai.ImageURLDetailHigh,
			},
		})
	}

	var messages []goopenai.ChatCompletionMessage
	if req.SystemInstruction != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:         goopenai.ChatMessageRoleUser,
		MultiContent: parts,
	})

	request := goopenai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: o.MaxTokens,
	}
	if req.Temperature != nil {
		request.Temperature = float32(*req.Temperature)
		// a zero temperature is dropped by omitempty
		if request.Temperature == 0 {
			request.Temperature = math.SmallestNonzeroFloat32
		}
	}
	if req.Schema != nil {
		request.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

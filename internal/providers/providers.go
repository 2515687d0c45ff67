package providers

import (
	"context"

	"github.com/skncr-ai/scanner/internal/schema"
)

// Config represents the configuration for a vision provider
type Config struct {
	Model string
	// Temperature is the sampling temperature; nil leaves the provider's default
	Temperature *float64
}

// Request is a single vision call: an instruction, a prompt and an image
type Request struct {
	Config

	SystemInstruction string
	Prompt            string
	Image             []byte
	MIMEType          string

	// Schema, when set, is forwarded to providers that support constrained JSON output
	Schema *schema.Contract
}

// Provider defines the interface for a vision-capable model
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

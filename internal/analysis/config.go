package analysis

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skncr-ai/scanner/internal/gemini"
	"github.com/skncr-ai/scanner/internal/ollama"
	"github.com/skncr-ai/scanner/internal/openai"
	"github.com/skncr-ai/scanner/internal/providers"
	"github.com/skncr-ai/scanner/internal/stub"
)

// DefaultProvider is used when SKNCR_PROVIDER is unset
const DefaultProvider = "gemini"

// NewProvider returns the named provider
func NewProvider(name string) (providers.Provider, error) {
	switch strings.ToLower(name) {
	case "gemini":
		return gemini.New(), nil
	case "openai":
		return openai.New(), nil
	case "ollama":
		return ollama.New(), nil
	case "stub":
		return stub.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// DefaultModel returns the model for a provider, honouring its *_MODEL variable
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini":
		model := os.Getenv("GEMINI_MODEL")
		if model == "" {
			return "gemini-1.5-pro"
		}
		return model
	case "openai":
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			return "gpt-4o"
		}
		return model
	case "ollama":
		model := os.Getenv("OLLAMA_MODEL")
		if model == "" {
			return "llava:13b"
		}
		return model
	default:
		return ""
	}
}

// Settings is the analysis configuration resolved from flags and environment
type Settings struct {
	Provider    string
	Model       string
	Timeout     time.Duration
	Temperature *float64
}

// SettingsFromEnv fills unset fields from SKNCR_PROVIDER, the provider's model
// variable, SKNCR_ANALYSIS_TIMEOUT and SKNCR_TEMPERATURE
func SettingsFromEnv(s Settings) (Settings, error) {
	if s.Provider == "" {
		s.Provider = os.Getenv("SKNCR_PROVIDER")
		if s.Provider == "" {
			s.Provider = DefaultProvider
		}
	}
	if s.Model == "" {
		s.Model = DefaultModel(s.Provider)
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultTimeout
		if v := os.Getenv("SKNCR_ANALYSIS_TIMEOUT"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return s, fmt.Errorf("failed to parse SKNCR_ANALYSIS_TIMEOUT: %w", err)
			}
			s.Timeout = d
		}
	}
	if s.Temperature == nil {
		if v := os.Getenv("SKNCR_TEMPERATURE"); v != "" {
			t, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return s, fmt.Errorf("failed to parse SKNCR_TEMPERATURE: %w", err)
			}
			s.Temperature = &t
		}
	}
	return s, nil
}

// Build returns a client for the variant configured by s
func Build[T any](v Variant[T], s Settings) (*Client[T], error) {
	p, err := NewProvider(s.Provider)
	if err != nil {
		return nil, err
	}
	c := NewClient(v, p, providers.Config{Model: s.Model, Temperature: s.Temperature})
	if s.Timeout > 0 {
		c.Timeout = s.Timeout
	}
	return c, nil
}

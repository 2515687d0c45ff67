package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skncr-ai/scanner/internal/capture"
	"github.com/skncr-ai/scanner/internal/metrics"
	"github.com/skncr-ai/scanner/internal/providers"
	"github.com/skncr-ai/scanner/internal/sanitize"
)

// DefaultTimeout bounds one analysis round trip
const DefaultTimeout = 60 * time.Second

// Request is one still submitted for analysis, plus optional profile context
type Request struct {
	Image   *capture.Image
	Context string
}

// WireRequest is the conceptual request shape shared by every provider
type WireRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mimeType"`
	Context  string `json:"context,omitempty"`
}

// Wire returns the request in its serialisable form
func (r Request) Wire() WireRequest {
	w := WireRequest{Context: r.Context}
	if r.Image != nil {
		w.Image = r.Image.Base64()
		w.MIMEType = r.Image.MIMEType
	}
	return w
}

// Client performs the request, sanitize and validate round trip for one variant.
// It never retries.
type Client[T any] struct {
	Variant  Variant[T]
	Provider providers.Provider
	Config   providers.Config
	Timeout  time.Duration
}

// NewClient returns a client using DefaultTimeout
func NewClient[T any](v Variant[T], p providers.Provider, cfg providers.Config) *Client[T] {
	return &Client[T]{
		Variant:  v,
		Provider: p,
		Config:   cfg,
		Timeout:  DefaultTimeout,
	}
}

// Analyze submits the still and returns a result that satisfies the variant's contract
func (c *Client[T]) Analyze(ctx context.Context, req Request) (*T, error) {
	start := time.Now()
	result, err := c.analyze(ctx, req)

	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	metrics.AnalysisTotal.WithLabelValues(c.Variant.Name, outcome).Inc()
	metrics.AnalysisDurationSeconds.WithLabelValues(c.Variant.Name, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		slog.Warn("Analysis failed", "pipeline", c.Variant.Name, "provider", c.Provider.Name(), "err", err)
		return nil, err
	}
	slog.Info("Analysis completed", "pipeline", c.Variant.Name, "provider", c.Provider.Name(), "duration", time.Since(start))
	return result, nil
}

func (c *Client[T]) analyze(ctx context.Context, req Request) (*T, error) {
	if req.Image == nil || len(req.Image.Data) == 0 {
		return nil, c.fail(KindServiceUnavailable, fmt.Errorf("request has no image"))
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	contract := c.Variant.Contract
	raw, err := c.Provider.Generate(ctx, providers.Request{
		Config:            c.Config,
		SystemInstruction: c.Variant.SystemInstruction,
		Prompt:            c.Variant.Prompt(req.Context),
		Image:             req.Image.Data,
		MIMEType:          req.Image.MIMEType,
		Schema:            &contract,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", timeout, err)
		}
		return nil, c.fail(KindServiceUnavailable, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, c.fail(KindServiceUnavailable, fmt.Errorf("empty response"))
	}

	return c.decode(raw)
}

// decode sanitizes, validates and unmarshals a raw reply
func (c *Client[T]) decode(raw string) (*T, error) {
	text := sanitize.ExtractJSON(raw)

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, c.fail(KindMalformedResponse, fmt.Errorf("failed to parse response as JSON: %w", err))
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, c.fail(KindMalformedResponse, fmt.Errorf("response is not a JSON object"))
	}
	if err := c.Variant.Contract.Validate(obj); err != nil {
		return nil, c.fail(KindMalformedResponse, err)
	}

	var result T
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, c.fail(KindMalformedResponse, fmt.Errorf("failed to decode response: %w", err))
	}
	if c.Variant.Normalize != nil {
		c.Variant.Normalize(&result)
	}
	return &result, nil
}

func (c *Client[T]) fail(kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: c.Variant.Name, Err: err}
}

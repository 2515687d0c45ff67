package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/skncr-ai/scanner/internal/analysis"
	"github.com/skncr-ai/scanner/internal/camera"
	"github.com/skncr-ai/scanner/internal/profile"
	"github.com/skncr-ai/scanner/internal/schema"
	"github.com/skncr-ai/scanner/internal/session"
)

const (
	KindFace    = "face"
	KindProduct = "product"
)

// Options is what every pipeline needs besides its variant
type Options struct {
	Settings analysis.Settings
	Profile  profile.Profile
	Camera   string
}

// NewFace builds a face pipeline
func NewFace(opts Options, onComplete func(*schema.FaceAnalysis)) (*session.Machine[schema.FaceAnalysis], error) {
	device, err := camera.Parse(opts.Camera)
	if err != nil {
		return nil, err
	}
	client, err := analysis.Build(analysis.Face, opts.Settings)
	if err != nil {
		return nil, err
	}

	slog.Debug("Face pipeline ready", "provider", opts.Settings.Provider, "model", opts.Settings.Model, "camera", opts.Camera)
	return session.New(session.Config[schema.FaceAnalysis]{
		Variant:    analysis.Face,
		Device:     device,
		Analyzer:   client,
		OnComplete: onComplete,
	}), nil
}

// NewProduct builds a product pipeline judged against opts.Profile
func NewProduct(opts Options, onComplete func(*schema.ProductAnalysis)) (*session.Machine[schema.ProductAnalysis], error) {
	device, err := camera.Parse(opts.Camera)
	if err != nil {
		return nil, err
	}
	client, err := analysis.Build(analysis.Product, opts.Settings)
	if err != nil {
		return nil, err
	}

	slog.Debug("Product pipeline ready", "provider", opts.Settings.Provider, "model", opts.Settings.Model, "camera", opts.Camera, "profile", opts.Profile.Name)
	return session.New(session.Config[schema.ProductAnalysis]{
		Variant:    analysis.Product,
		Device:     device,
		Analyzer:   client,
		Context:    opts.Profile.Summary(),
		OnComplete: onComplete,
	}), nil
}

// New builds a pipeline of the given kind behind the variant-independent interface
func New(kind string, opts Options) (session.Controller, error) {
	switch kind {
	case KindFace:
		m, err := NewFace(opts, nil)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindProduct:
		m, err := NewProduct(opts, nil)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown pipeline kind: %q", kind)
	}
}

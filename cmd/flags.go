package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/skncr-ai/scanner/internal/analysis"
	"github.com/skncr-ai/scanner/internal/pipeline"
	"github.com/skncr-ai/scanner/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultCamera = "./frames"

// pipelineFlags are shared by every command that builds pipelines
type pipelineFlags struct {
	camera   string
	profile  string
	provider string
	model    string
	timeout  time.Duration

	temperature float64
	flags       *pflag.FlagSet
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.camera, "camera", "c", "", "Camera source: image directory, image file or snapshot URL (defaults to SKNCR_CAMERA or "+defaultCamera+")")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "Profile preset (mia, liam, guest) or YAML file (defaults to SKNCR_PROFILE or guest)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Analysis provider (gemini, openai, ollama or stub); defaults to SKNCR_PROVIDER or "+analysis.DefaultProvider)
	cmd.Flags().StringVar(&f.model, "model", "", "Model name (defaults to provider's default)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Analysis timeout (defaults to SKNCR_ANALYSIS_TIMEOUT or 60s)")
	cmd.Flags().Float64Var(&f.temperature, "temperature", 0, "Sampling temperature (defaults to SKNCR_TEMPERATURE or the provider's default)")
	f.flags = cmd.Flags()
}

// options resolves flags, falling back to the environment
func (f *pipelineFlags) options() (pipeline.Options, error) {
	requested := analysis.Settings{
		Provider: f.provider,
		Model:    f.model,
		Timeout:  f.timeout,
	}
	if f.flags != nil && f.flags.Changed("temperature") {
		requested.Temperature = &f.temperature
	}
	settings, err := analysis.SettingsFromEnv(requested)
	if err != nil {
		return pipeline.Options{}, err
	}

	ref := f.profile
	if ref == "" {
		ref = os.Getenv("SKNCR_PROFILE")
	}
	p, err := profile.Load(ref)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("failed to load profile: %w", err)
	}

	camera := f.camera
	if camera == "" {
		camera = os.Getenv("SKNCR_CAMERA")
	}
	if camera == "" {
		camera = defaultCamera
	}

	return pipeline.Options{Settings: settings, Profile: p, Camera: camera}, nil
}

func pipelineKindArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	switch args[0] {
	case pipeline.KindFace, pipeline.KindProduct:
		return nil
	default:
		return fmt.Errorf("unknown scan kind %q (want %s or %s)", args[0], pipeline.KindFace, pipeline.KindProduct)
	}
}

package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "skncr",
		Short: "Camera skin and product scanner with LLM-powered analysis",
		Long: `skncr freezes a frame from a camera, sends it to a vision model under a strict
response contract and reports a structured assessment: skin metrics for a selfie,
or an ingredient verdict for a product label judged against your profile.

Cameras are image directories, single image files or IP camera snapshot URLs.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newMirrorCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}

// setupLogging installs the default logger. --verbose wins over SKNCR_LOG_LEVEL.
func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if v := os.Getenv("SKNCR_LOG_LEVEL"); v != "" {
		if err := logLevel.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			logLevel = slog.LevelInfo
		}
	}
	if verbose {
		logLevel = slog.LevelDebug
	}

	// stdout is reserved for results
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

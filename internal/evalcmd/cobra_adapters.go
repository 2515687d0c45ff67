package evalcmd

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/skncr-ai/scanner/internal/analysis"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command for scoring a provider against a labelled dataset
func NewRunCmd() *cobra.Command {
	var cfg runConfig
	var timeout time.Duration
	var temperature float64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyse a labelled image dataset and score the results",
		Long: `Runs the face or product analysis over every record of a labelled dataset and
compares each result against its labels.

Datasets are JSONL or Parquet files with one record per still:

  {"id":"p1","kind":"product","image_path":"labels/serum.jpg","profile":"mia",
   "expected_verdict":"YOU DON'T NEED THIS","expected_avoid":["Fragrance"]}
  {"id":"f1","kind":"face","image_path":"faces/one.jpg","expected_concerns":["Acne"]}

Relative image paths resolve against the dataset file's directory.`,
		Example: `  # Score 20 records with Gemini
  skncr eval run --dataset ./labels.jsonl --sample 20 --provider gemini

  # Score a parquet dataset with a local Ollama model, 4 requests at a time
  skncr eval run --dataset ./labels.parquet --provider ollama --model llava:13b --concurrency 4

  # Smoke test the pipeline without a model
  skncr eval run --dataset ./labels.jsonl --provider stub`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfg.DatasetPath); os.IsNotExist(err) {
				return fmt.Errorf("dataset file not found: %s", cfg.DatasetPath)
			}
			cfg.Settings.Timeout = timeout
			if cmd.Flags().Changed("temperature") {
				cfg.Settings.Temperature = &temperature
			}

			_, err := executeRun(cmd.Context(), cfg)
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.DatasetPath, "dataset", "", "Path to a labelled dataset (.jsonl or .parquet)")
	cmd.Flags().StringVar(&cfg.OutputDir, "output", "evals", "Directory for the YAML report (empty to skip)")
	cmd.Flags().IntVar(&cfg.SampleSize, "sample", -1, "Number of records to evaluate (-1 for all)")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", runtime.NumCPU(), "Records analysed in parallel")
	cmd.Flags().StringVar(&cfg.Settings.Provider, "provider", "", "Analysis provider (gemini, openai, ollama or stub); defaults to SKNCR_PROVIDER or "+analysis.DefaultProvider)
	cmd.Flags().StringVar(&cfg.Settings.Model, "model", "", "Model name (defaults to provider's default)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-analysis timeout (defaults to SKNCR_ANALYSIS_TIMEOUT or 60s)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature (defaults to SKNCR_TEMPERATURE or the provider's default)")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// NewReportCmd creates the report command for a saved YAML report
func NewReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <results.yaml>",
		Short: "Print a saved evaluation report",
		Example: `  skncr eval report evals/gemini-1.5-pro-2025-01-02_03-04-05.yaml
  skncr eval report --format csv evals/llava_13b-2025-01-02_03-04-05.yaml > scores.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json or csv)")
	return cmd
}

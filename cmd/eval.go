package cmd

import (
	"github.com/skncr-ai/scanner/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Scan accuracy evaluation tools",
		Long: `Evaluation tools for measuring how well a provider and model agree with labelled
face and product stills.

Runs produce a YAML report under evals/ that the report command can print as text,
JSON or CSV.`,
	}

	cmd.AddCommand(evalcmd.NewRunCmd())
	cmd.AddCommand(evalcmd.NewReportCmd())

	return cmd
}

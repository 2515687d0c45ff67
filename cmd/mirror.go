package cmd

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/skncr-ai/scanner/internal/pipeline"
	"github.com/skncr-ai/scanner/internal/schema"
	"github.com/skncr-ai/scanner/internal/tui"
	"github.com/spf13/cobra"
)

func newMirrorCmd() *cobra.Command {
	var flags pipelineFlags
	var logFile string

	cmd := &cobra.Command{
		Use:   "mirror face|product",
		Short: "Interactive terminal scanner",
		Long: `Opens a full screen view of one pipeline. Press space to capture, r to start
over after a result or failure, and q to quit.`,
		Example: `  skncr mirror face --camera ./frames
  skncr mirror product --profile ./me.yaml --log-file mirror.log`,
		Args: pipelineKindArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			// the alternate screen owns the terminal, so logs go to a file or nowhere
			if logFile != "" {
				f, err := tea.LogToFile(logFile, "skncr")
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
			} else {
				slog.SetDefault(slog.New(slog.DiscardHandler))
			}

			var model tea.Model
			switch args[0] {
			case pipeline.KindFace:
				m, err := pipeline.NewFace(opts, nil)
				if err != nil {
					return err
				}
				defer m.Close()
				model = tui.New[schema.FaceAnalysis]("Skin mirror", m, tui.RenderFace)
			default:
				m, err := pipeline.NewProduct(opts, nil)
				if err != nil {
					return err
				}
				defer m.Close()
				model = tui.New[schema.ProductAnalysis]("Product check · "+opts.Profile.Name, m, func(r *schema.ProductAnalysis) string {
					return tui.RenderProduct(r, opts.Profile)
				})
			}

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("failed to run mirror: %w", err)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write debug logs to this file")

	return cmd
}

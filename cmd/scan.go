package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/skncr-ai/scanner/internal/pipeline"
	"github.com/skncr-ai/scanner/internal/schema"
	"github.com/skncr-ai/scanner/internal/session"
	"github.com/skncr-ai/scanner/internal/tui"
	"github.com/spf13/cobra"
)

// capturePoll is how often a scan retries capturing while the camera warms up
const capturePoll = 50 * time.Millisecond

func newScanCmd() *cobra.Command {
	var flags pipelineFlags
	var asJSON bool
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "scan face|product",
		Short: "Capture one frame and print its analysis",
		Long: `Starts the camera, captures a single frame as soon as one is available and prints
the analysis. Product scans are judged against the selected profile.`,
		Example: `  # Analyse the newest selfie in ./frames with Gemini
  skncr scan face

  # Judge a product label from an IP camera against the "mia" preset
  skncr scan product --camera http://192.168.1.20/snapshot.jpg --profile mia

  # Give yourself three seconds to pose, print JSON
  skncr scan face --delay 3s --json`,
		Args: pipelineKindArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch args[0] {
			case pipeline.KindFace:
				m, err := pipeline.NewFace(opts, nil)
				if err != nil {
					return err
				}
				defer m.Close()
				snapshot, err := runOnce(cmd.Context(), m, delay)
				if err != nil {
					return err
				}
				return printScan(out, snapshot, asJSON, tui.RenderFace)

			default:
				m, err := pipeline.NewProduct(opts, nil)
				if err != nil {
					return err
				}
				defer m.Close()
				snapshot, err := runOnce(cmd.Context(), m, delay)
				if err != nil {
					return err
				}
				return printScan(out, snapshot, asJSON, func(r *schema.ProductAnalysis) string {
					return tui.RenderProduct(r, opts.Profile)
				})
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Wait this long after the camera starts before capturing")

	return cmd
}

// runOnce drives m from Idle to Succeeded or Failed, capturing the first available frame
func runOnce[T any](ctx context.Context, m *session.Machine[T], delay time.Duration) (session.Snapshot[T], error) {
	done := make(chan session.Snapshot[T], 1)
	unsubscribe := m.Subscribe(func(s session.Snapshot[T]) {
		if s.State == session.Succeeded || s.State == session.Failed {
			select {
			case done <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	if err := m.Start(ctx); err != nil {
		return m.Snapshot(), err
	}

	captureAt := time.Now().Add(delay)
	ticker := time.NewTicker(capturePoll)
	defer ticker.Stop()

	for {
		select {
		case s := <-done:
			return s, nil
		case <-ctx.Done():
			return m.Snapshot(), ctx.Err()
		case <-ticker.C:
			if time.Now().Before(captureAt) || m.Snapshot().State != session.Streaming {
				continue
			}
			if err := m.Capture(ctx); err != nil {
				return m.Snapshot(), err
			}
		}
	}
}

func printScan[T any](w io.Writer, s session.Snapshot[T], asJSON bool, render func(*T) string) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
	} else if s.State == session.Succeeded {
		fmt.Fprint(w, render(s.Result))
	}

	if s.State == session.Failed && s.Failure != nil {
		slog.Debug("Scan failed", "pipeline", s.Pipeline, "session_id", s.SessionID, "kind", s.Failure.Kind)
		return fmt.Errorf("scan failed: %w", s.Failure)
	}
	return nil
}

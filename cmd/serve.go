package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skncr-ai/scanner/internal/handlers"
	"github.com/skncr-ai/scanner/internal/metrics"
	"github.com/skncr-ai/scanner/internal/pipeline"
	"github.com/skncr-ai/scanner/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var port string
	var allowCameras []string
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the pipeline API server",
		Long: `Starts an HTTP server that manages face and product pipelines.

Clients create a pipeline, drive it with start, capture and reset commands and
follow its snapshots over a websocket. Prometheus metrics are served on /metrics.

Pipelines read from the configured camera. A client may name another source only
if it was listed with --allow-camera.`,
		Example: `  # Start server on default port 8888
  skncr serve

  # Serve product scans for the "liam" preset from an IP camera
  skncr serve --port 3000 --camera http://192.168.1.20/snapshot.jpg --profile liam

  # Let clients pick between two cameras
  skncr serve --camera ./frames --allow-camera http://192.168.1.21/snapshot.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			handler := handlers.New(func(kind, camera string) (session.Controller, error) {
				o := opts
				o.Camera = camera
				return pipeline.New(kind, o)
			}, opts.Camera, allowCameras...)

			metrics.Register()

			// Set up routes
			mux := http.NewServeMux()
			handler.Register(mux)
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				slog.Info("Scanner API available", "addr", addr, "url", "http://localhost"+addr, "provider", opts.Settings.Provider, "model", opts.Settings.Model)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				// Wait for context cancellation (Ctrl+C) or server error
				<-ctx.Done()
				slog.Info("Shutting down server...")
				handler.Close()

				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&port, "port", "8888", "Port to listen on")
	cmd.Flags().StringSliceVar(&allowCameras, "allow-camera", nil, "Extra camera sources clients may request (repeatable)")
	flags.register(cmd)

	return cmd
}

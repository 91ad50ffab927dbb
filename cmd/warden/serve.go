package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/crimson-sun/warden/internal/config"
	"github.com/crimson-sun/warden/internal/logging"
	"github.com/crimson-sun/warden/internal/observability"
	"github.com/crimson-sun/warden/internal/output/stdout"
	"github.com/crimson-sun/warden/internal/pipeline"
	"github.com/crimson-sun/warden/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the realtime alert websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logging.Init(true, logging.ParseLevel(cfg.Logging.Level))
			return runServer(cmd.Context(), cfg, listen)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&listen, "listen", ":8080", "Listen address")

	return cmd
}

func runServer(ctx context.Context, cfg config.Config, listen string) error {
	eng, closeScorer, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer closeScorer()

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	p := pipeline.New(eng, stdout.New(false), pipeline.WithMetrics(metrics))
	defer p.Close()

	srv := server.New(p, metrics, slog.Default())
	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("warden serving", "listen", listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

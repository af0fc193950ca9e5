package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/polya/internal/cli"
	"github.com/aretw0/polya/internal/logging"
	httpadapter "github.com/aretw0/polya/pkg/adapters/http"
	"github.com/aretw0/polya/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the session engine behind a JSON API over HTTP, with server-sent
events for session changes and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.HTTPAddr, _ = cmd.Flags().GetString("addr")
		}

		level := logging.ParseLevel(cfg.LogLevel)
		if debugEnabled(cmd) {
			level = logging.ParseLevel("debug")
		}
		logger := logging.NewWithWriter(os.Stderr, logging.FormatJSON, level)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		persistence, err := cli.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer persistence.Close()
		engine, err := cli.NewEngine(cfg, logger,
			observability.Hooks(metrics, logger),
			persistence.ProgressHooks(cfg.Tutor.UserID, logger),
		)
		if err != nil {
			return err
		}

		opts := []httpadapter.Option{
			httpadapter.WithLogger(logger),
			httpadapter.WithAllowedOrigins(cfg.CORSOrigins...),
		}
		if persistence.Progress != nil {
			opts = append(opts, httpadapter.WithProgressStore(persistence.Progress))
		}
		if cfg.MetricsAddr == "" {
			opts = append(opts, httpadapter.WithMetricsHandler(observability.Handler(reg)))
		}

		servers := []*http.Server{{
			Addr:    cfg.HTTPAddr,
			Handler: httpadapter.NewHandler(engine, persistence.Manager(logger), opts...),
		}}
		if cfg.MetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler(reg))
			servers = append(servers, &http.Server{Addr: cfg.MetricsAddr, Handler: mux})
		}

		serverErrors := make(chan error, len(servers))
		for _, srv := range servers {
			go func(srv *http.Server) {
				logger.Info("listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErrors <- fmt.Errorf("server on %s: %w", srv.Addr, err)
				}
			}(srv)
		}
		logger.Info("polya server started", "version", versionString(), "store", persistence.Kind)

		select {
		case err := <-serverErrors:
			return err
		case <-ctx.Done():
			logger.Info("start shutdown", "signal", ctx.Signal())
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown did not complete", "addr", srv.Addr, "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "addr", srv.Addr, "err", err)
				}
			}
		}
		logger.Info("polya server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default from POLYA_HTTP_ADDR or :8080)")
}

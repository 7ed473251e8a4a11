package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/mrt"
	"github.com/aretw0/mrt/internal/cli"
	"github.com/aretw0/mrt/internal/logging"
	httpadapter "github.com/aretw0/mrt/pkg/adapters/http"
	"github.com/aretw0/mrt/pkg/dispatch"
	"github.com/aretw0/mrt/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Hosts sessions over a JSON API. The server owns session state; the client
owns the clock, arming the timers the server requests and posting the
resulting events back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := experimentConfig(settings)
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if settings.GetBool("debug") {
			level = slog.LevelDebug
		} else if l := settings.GetString("log-level"); l != "" {
			if level, err = logging.ParseLevel(l); err != nil {
				return err
			}
		}
		logger := logging.NewJSON(level)

		backends, err := cli.OpenBackends(backendOptions(), cfg, logger)
		if err != nil {
			return err
		}
		defer backends.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}
		hooks := metrics.Hooks()

		dispatcher := dispatch.New(backends.Sink(),
			dispatch.WithTimeout(cfg.SinkTimeout()),
			dispatch.WithLogger(logger),
			dispatch.WithLifecycleHooks(hooks),
		)

		opts := []httpadapter.Option{
			httpadapter.WithDispatcher(dispatcher),
			httpadapter.WithEngineOptions(mrt.WithLifecycleHooks(hooks)),
			httpadapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			httpadapter.WithLogger(logger),
		}
		if backends.Store != nil {
			opts = append(opts, httpadapter.WithStore(backends.Store))
		}
		if backends.Locker != nil {
			opts = append(opts, httpadapter.WithLocker(backends.Locker))
		}
		server, err := httpadapter.NewServer(cfg, opts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              settings.GetString("addr"),
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("mrt server listening", "addr", srv.Addr, "store", settings.GetString("store"))
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("could not kill server", "err", err)
				}
			}
			// Pending result submissions get their own deadline.
			drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.SinkTimeout())
			defer drainCancel()
			if err := server.Shutdown(drainCtx); err != nil {
				logger.Warn("result submissions still pending", "err", err)
			}
			logger.Info("server stopped", "failed_submissions", dispatcher.Failures())
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	addBackendFlags(serveCmd)
}

// serve.go: long-running host with HTTP and gRPC status endpoints
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/agilira/go-modfactory"
)

// healthService is the gRPC health service name reporting the manager state.
const healthService = "modfactory.Manager"

type serveOptions struct {
	httpAddr        string
	grpcAddr        string
	pollInterval    time.Duration
	shutdownTimeout time.Duration
}

func newServeCommand(opts *globalOptions) *cobra.Command {
	serve := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep modules loaded and reload them when the config changes",
		Example: `  # Serve status on the default ports
  modhost serve --config modhost.yaml

  # Custom addresses, HTTP only
  modhost serve --config modhost.yaml --http 127.0.0.1:9000 --grpc ""`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile == "" {
				return errors.New("serve requires --config")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, serve)
		},
	}

	cmd.Flags().StringVar(&serve.httpAddr, "http", ":8080", "HTTP listen address for /modules, /health and /metrics")
	cmd.Flags().StringVar(&serve.grpcAddr, "grpc", ":9090", "gRPC listen address for the health service (empty disables it)")
	cmd.Flags().DurationVar(&serve.pollInterval, "poll-interval", modfactory.DefaultWatchOptions().PollInterval, "How often the config file is checked")
	cmd.Flags().DurationVar(&serve.shutdownTimeout, "shutdown-timeout", 10*time.Second, "Grace period for HTTP shutdown")
	return cmd
}

func runServe(ctx context.Context, opts *globalOptions, serve serveOptions) error {
	logger := opts.moduleLogger()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := modfactory.NewPrometheusMetricsCollector(registry, logger)

	manager := modfactory.NewManager(logger, modfactory.WithMetrics(metrics))
	healthServer := health.NewServer()
	healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_NOT_SERVING)

	watcher, err := modfactory.NewConfigWatcher(manager, opts.configFile, modfactory.WatchOptions{
		PollInterval: serve.pollInterval,
		CacheTTL:     serve.pollInterval / 2,
		OnReload: func(_ modfactory.ManagerConfig, _ error) {
			healthServer.SetServingStatus(healthService, servingStatus(manager))
		},
	}, logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	healthServer.SetServingStatus(healthService, servingStatus(manager))

	httpServer := &http.Server{
		Addr:              serve.httpAddr,
		Handler:           newStatusRouter(manager, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var grpcServer *grpc.Server
	var grpcListener net.Listener
	if serve.grpcAddr != "" {
		grpcListener, err = net.Listen("tcp", serve.grpcAddr)
		if err != nil {
			_ = watcher.Stop()
			_ = manager.Stop()
			return fmt.Errorf("listen on %s: %w", serve.grpcAddr, err)
		}
		grpcServer = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthServer)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts.logger.Info().Str("addr", serve.httpAddr).Msg("http server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if grpcServer != nil {
		g.Go(func() error {
			opts.logger.Info().Str("addr", serve.grpcAddr).Msg("grpc server starting")
			if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		opts.logger.Info().Msg("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serve.shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return err
	})

	serveErr := g.Wait()
	return errors.Join(serveErr, watcher.Stop(), manager.Stop())
}

func servingStatus(manager *modfactory.Manager) healthpb.HealthCheckResponse_ServingStatus {
	if manager.State() == modfactory.StateActive {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// newStatusRouter exposes the manager state over HTTP.
func newStatusRouter(manager *modfactory.Manager, registry *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		state := manager.State()
		status := http.StatusOK
		if state != modfactory.StateActive {
			status = http.StatusServiceUnavailable
		}
		stats := manager.Stats()
		c.JSON(status, gin.H{
			"state":         state.String(),
			"search_dir":    manager.SearchDir(),
			"modules":       manager.Len(),
			"scans":         stats.Scans.Load(),
			"load_failures": stats.LoadFailures.Load(),
		})
	})

	r.GET("/modules", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"search_dir": manager.SearchDir(),
			"modules":    manager.Modules(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
	return r
}

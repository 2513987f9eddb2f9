package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"domainwatch/internal/batch"
	"domainwatch/internal/config"
	"domainwatch/internal/domainlist"
	"domainwatch/internal/engine"
	"domainwatch/internal/normalize"
	"domainwatch/internal/ops"
	"domainwatch/internal/report"
	"domainwatch/pkg/intel/hudsonrock"
	"domainwatch/pkg/logger"
	"domainwatch/pkg/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// setupOps starts the optional debug listener and returns a function that
// stops it.
func setupOps(ctx context.Context, reg *prometheus.Registry, cfg *config.Config) func(ctx context.Context) {
	server := ops.NewServer(reg, ops.Options{
		Addr:        cfg.Ops.Addr,
		MetricsPath: cfg.Ops.MetricsPath,
	})

	go func() {
		logger.Info(ctx, "starting ops listener...", zap.String("addr", cfg.Ops.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start ops listener", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping ops listener...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop ops listener", zap.Error(err))
		}
	}
}

func checkCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Checks the domain list against the compromise-intelligence API",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT)
			defer stop()

			// The first interrupt requests a graceful drain. Once it
			// fires, unregister the handler so a second interrupt
			// falls back to the default action and kills the process.
			go func() {
				<-ctx.Done()
				stop()
			}()

			runID := uuid.New().String()
			ctx = logger.WithFields(ctx, zap.String("runID", runID))

			if err := cfg.Validate(); err != nil {
				logger.Fatal(ctx, "invalid configuration", zap.Error(err))
			}

			start := time.Now()

			reg := prometheus.NewRegistry()
			m := metrics.New(reg)

			stopOps := func(context.Context) {}
			if cfg.Ops.Addr != "" {
				stopOps = setupOps(ctx, reg, cfg)
			}

			raw, err := domainlist.Read(ctx, cfg.Input)
			if err != nil {
				logger.Fatal(ctx, "could not load domain list", zap.Error(err))
			}

			domains, rejected := normalize.Normalize(ctx, raw)
			m.CountRejected(rejected)
			logger.Info(ctx, "domain list normalized",
				zap.Int("raw", len(raw)),
				zap.Int("valid", len(domains)),
				zap.Int("rejected", rejected))

			batches, err := batch.Split(domains, cfg.Check.BatchSize)
			if err != nil {
				logger.Fatal(ctx, "could not build batches", zap.Error(err))
			}

			client, err := hudsonrock.New(&http.Client{}, hudsonrock.Options{
				URLTemplate:       cfg.API.URLTemplate,
				APIKey:            cfg.API.Key,
				ContentType:       cfg.API.ContentType,
				QueryType:         cfg.API.QueryType,
				ThirdPartyDomains: cfg.API.ThirdPartyDomains,
				RequestTimeout:    cfg.API.RequestTimeout,
				MaxAttempts:       cfg.Check.MaxAttempts,
				BackoffBase:       cfg.Check.BackoffBase,
				RequestsPerSecond: cfg.API.RequestsPerSecond,
			})
			if err != nil {
				logger.Fatal(ctx, "could not create api client", zap.Error(err))
			}

			logger.Info(ctx, "starting check",
				zap.Int("batches", len(batches)),
				zap.Int("concurrency", cfg.Check.Concurrency))

			eng := engine.New(client, engine.Options{
				Concurrency: cfg.Check.Concurrency,
				Metrics:     m,
			})
			matches, rep := eng.Run(ctx, batches)

			if err := report.Write(cfg.Output, matches); err != nil {
				logger.Error(ctx, "could not write results", zap.Error(err))
			}

			logger.Info(ctx, "run finished",
				zap.Int("domains", len(domains)),
				zap.Int("batches", len(batches)),
				zap.Int("completed", rep.Completed),
				zap.Int("failed", rep.Failed),
				zap.Int("cancelled", rep.Cancelled),
				zap.Int("matches", len(matches)),
				zap.Bool("interrupted", rep.Interrupted),
				zap.Duration("duration", time.Since(start)),
				zap.String("output", cfg.Output))

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopOps(shutdownCtx)
		},
	}

	return cmd
}

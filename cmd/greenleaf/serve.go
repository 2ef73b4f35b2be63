package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"greenleaf/internal/analysis"
	"greenleaf/internal/auth"
	"greenleaf/internal/blob"
	"greenleaf/internal/core"
	"greenleaf/internal/export"
	"greenleaf/internal/httpapi"
	"greenleaf/internal/observability"
)

var traceFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the export worker",
	Long: `Starts the REST API on server.addr using the configured sample store,
blob store and authentication. The async export worker runs alongside the
listener; both stop gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&traceFile, "trace-file", "", "Append JSON operation spans to this file")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := core.OpenSampleStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close sample store", zap.Error(err))
		}
	}()

	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opMetrics, err := observability.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return fmt.Errorf("register service metrics: %w", err)
	}
	httpMetrics, err := observability.NewHTTPMetrics(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	opts := []core.Option{
		core.WithLogger(logger),
		core.WithMetricsRecorder(opMetrics),
		core.WithAuditRecorder(core.NewLogAuditRecorder(logger)),
		core.WithAnalyzer(analysis.NewRandomAnalyzer(analysis.WithSegmentedBaseURL(cfg.Analysis.SegmentedBaseURL))),
		core.WithBlobStore(blobs),
	}
	if traceFile != "" {
		f, err := os.OpenFile(traceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		defer f.Close()
		opts = append(opts, core.WithTracer(core.NewJSONTracer(f)))
	}
	svc := core.NewService(store, opts...)

	var authn *auth.Authenticator
	if cfg.AuthEnabled() {
		authn, err = auth.New(cfg.Auth.Secret, cfg.Auth.Issuer)
		if err != nil {
			return err
		}
	}

	worker := export.NewWorker(svc, blobs,
		export.WithQueueSize(cfg.Exports.QueueSize),
		export.WithLogger(logger),
	)

	api := httpapi.New(httpapi.Options{
		Service:        svc,
		Exports:        worker,
		Blobs:          blobs,
		Auth:           authn,
		Logger:         logger,
		Metrics:        httpMetrics,
		Gatherer:       reg,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	worker.Start()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("blob", string(blobs.Driver())),
			zap.Bool("auth", authn != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := worker.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("export worker: %w", err))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}

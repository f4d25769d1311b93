package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	firestoreadapter "github.com/couchcryptid/drainage-monitor/internal/adapter/firestore"
	httpadapter "github.com/couchcryptid/drainage-monitor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/drainage-monitor/internal/adapter/kafka"
	mongoadapter "github.com/couchcryptid/drainage-monitor/internal/adapter/mongo"
	postgresadapter "github.com/couchcryptid/drainage-monitor/internal/adapter/postgres"
	"github.com/couchcryptid/drainage-monitor/internal/config"
	"github.com/couchcryptid/drainage-monitor/internal/model"
	"github.com/couchcryptid/drainage-monitor/internal/observability"
	"github.com/couchcryptid/drainage-monitor/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	corpus, err := model.LoadCorpus()
	if err != nil {
		logger.Error("failed to load training corpus", "error", err)
		os.Exit(1)
	}
	params := model.DefaultParams()
	params.Estimators = cfg.ModelEstimators
	params.Seed = cfg.ModelSeed

	forest, eval, err := model.Train(corpus, params)
	if err != nil {
		logger.Error("failed to train severity model", "error", err)
		os.Exit(1)
	}
	logger.Info("severity model trained",
		"corpus_version", eval.CorpusVersion,
		"estimators", forest.Size(),
		"train_rows", eval.TrainRows,
		"holdout_rows", eval.HoldoutRows,
		"holdout_accuracy", eval.HoldoutAccuracy,
	)
	if !math.IsNaN(eval.HoldoutAccuracy) {
		metrics.ModelAccuracy.Set(eval.HoldoutAccuracy)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, closeGateway, err := newGateway(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize telemetry gateway", "source", cfg.TelemetrySource, "error", err)
		os.Exit(1)
	}
	logger.Info("telemetry gateway ready", "source", cfg.TelemetrySource)

	// Report publishing is feature-flagged via KAFKA_ENABLED.
	var sink pipeline.ReportSink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sink = writer
		logger.Info("kafka report publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
	} else {
		logger.Info("kafka report publishing disabled")
	}

	p := pipeline.New(gateway, forest, pipeline.NewRenderer(os.Stdout), sink, logger, metrics, pipeline.Settings{
		Interval:     cfg.PollInterval,
		FetchTimeout: cfg.FetchTimeout,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, forest, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start polling loop. A fatal cycle error ends the process with status 1.
	pollErr := make(chan error, 1)
	go func() {
		pollErr <- p.Run(ctx)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-pollErr:
		if err != nil {
			logger.Error("poller stopped", "error", err)
			exitCode = 1
		}
	}
	stop()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := closeGateway(shutdownCtx); err != nil {
		logger.Error("telemetry gateway close error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		cancel()
		os.Exit(exitCode)
	}
}

// newGateway builds the telemetry gateway for the configured source along
// with a function that releases its resources.
func newGateway(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.TelemetryGateway, func(context.Context) error, error) {
	switch cfg.TelemetrySource {
	case config.SourceFirestore:
		return firestoreadapter.NewClient(cfg, logger), func(context.Context) error { return nil }, nil
	case config.SourcePostgres:
		r, err := postgresadapter.Open(ctx, cfg.PostgresDSN, cfg.PostgresSiteID, logger)
		if err != nil {
			return nil, nil, err
		}
		return r, func(context.Context) error { return r.Close() }, nil
	case config.SourceMongo:
		r, err := mongoadapter.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown telemetry source %q", cfg.TelemetrySource)
	}
}

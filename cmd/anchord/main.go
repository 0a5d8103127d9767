// Command anchord runs the Anchor Worker: it periodically Merkle-roots new
// ledger ranges and has the Attestor sign the resulting anchor bundle.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"decisioncore/internal/anchor"
	"decisioncore/internal/attestorclient"
	"decisioncore/internal/config"
	"decisioncore/internal/ledger"
	"decisioncore/observability/logging"
	telemetry "decisioncore/observability/otel"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("anchord: %v", err)
	}
}

func run() error {
	env := strings.TrimSpace(os.Getenv("NHB_ENV"))
	logger := logging.Setup("anchord", env)

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "anchord",
		Environment: env,
		Endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		Insecure:    true,
		Headers:     telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Metrics:     true,
		Traces:      true,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := ledger.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	ledgerStore := ledger.New(db)

	attestorClient, err := attestorclient.New(attestorclient.Config{BaseURL: cfg.AttestorBaseURL, Timeout: 5 * time.Second})
	if err != nil {
		return fmt.Errorf("build attestor client: %w", err)
	}

	worker := anchor.NewWorker(anchor.WorkerConfig{
		Store:     ledgerStore,
		Attestor:  attestorClient,
		Interval:  cfg.AnchorInterval,
		BatchSize: cfg.AnchorBatchSize,
		Logger:    logger,
	})

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("anchord running", "interval", cfg.AnchorInterval, "batch_size", cfg.AnchorBatchSize)
	worker.Run(stopCtx)
	return nil
}

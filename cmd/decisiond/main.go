// Command decisiond runs the Decision Engine and the Parameter Store admin
// API in one process, sharing a single ledger database connection.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"decisioncore/internal/attestorclient"
	"decisioncore/internal/config"
	"decisioncore/internal/engine"
	"decisioncore/internal/ledger"
	"decisioncore/internal/oracle"
	"decisioncore/internal/params"
	"decisioncore/observability/logging"
	telemetry "decisioncore/observability/otel"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("decisiond: %v", err)
	}
}

func run() error {
	env := strings.TrimSpace(os.Getenv("NHB_ENV"))
	logger := logging.Setup("decisiond", env)

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AdminToken == "" {
		return fmt.Errorf("ADMIN_TOKEN is required")
	}

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "decisiond",
		Environment: env,
		Endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		Insecure:    parseBool(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"), true),
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
	oracleClient, err := oracle.New(oracle.Config{
		BaseURL:            cfg.OracleBaseURL,
		Timeout:            5 * time.Second,
		InsecureSkipVerify: cfg.OracleInsecureSkipVerify,
	})
	if err != nil {
		return fmt.Errorf("build oracle client: %w", err)
	}

	logger.Info("admin route configured", logging.MaskField("admin_token", cfg.AdminToken))

	paramStore := params.New()
	eng := engine.New(paramStore, attestorClient, oracleClient, ledgerStore)

	decisionServer := engine.NewServer(eng, logger, 20, 40)
	paramsServer := params.NewServer(paramStore, cfg.AdminToken, logger)

	root := chi.NewRouter()
	root.Mount("/", decisionServer.Handler())
	root.Mount("/admin", paramsServer.Handler())

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      otelhttp.NewHandler(root, "decisiond"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		logger.Info("decisiond listening", "addr", cfg.HTTPAddr)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case <-stopCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			_ = httpServer.Close()
			return err
		}
		return nil
	case err := <-errs:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func parseBool(value string, def bool) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

// Command attestord runs the Attestor as a standalone HTTP service.
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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"decisioncore/internal/attestor"
	"decisioncore/internal/config"
	"decisioncore/observability/logging"
	telemetry "decisioncore/observability/otel"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("attestord: %v", err)
	}
}

func run() error {
	env := strings.TrimSpace(os.Getenv("NHB_ENV"))
	logger := logging.Setup("attestord", env)

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "attestord",
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

	seeds, err := attestor.ParseSeeds(cfg.AttestorSeeds)
	if err != nil {
		return fmt.Errorf("parse attestor seeds: %w", err)
	}
	keyring, err := attestor.NewKeyring(seeds, cfg.AttestorActiveKid)
	if err != nil {
		return fmt.Errorf("build keyring: %w", err)
	}
	logger.Info("keyring loaded", logging.MaskField("seeds", cfg.AttestorSeeds), "active_kid", cfg.AttestorActiveKid)

	server := attestor.NewServer(keyring, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      otelhttp.NewHandler(server.Handler(), "attestord"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		logger.Info("attestord listening", "addr", cfg.HTTPAddr)
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

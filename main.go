package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tournevent/fancourier/internal/server"
	"github.com/tournevent/fancourier/internal/telemetry"
	"github.com/tournevent/fancourier/pkg/order"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "fancourier",
	Short:   "FAN Courier checkout shipping - rates, FANBox lockers and order metadata",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Print the service catalog with the configured enablement",
	RunE:  runServices,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(servicesCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.WithoutCancel(ctx))
		if tracer != nil {
			_, span := tracer.Start(ctx, "startup", trace.WithAttributes(cfg.Attributes()...))
			span.End()
		}
	}
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	cat := initCatalog(cfg)
	client, err := initCourier(cfg, logger, tracer, metrics)
	if err != nil {
		return err
	}
	calc, err := initCalculator(cfg, cat, client, logger, tracer, metrics)
	if err != nil {
		return err
	}

	logger.Info("Starting FAN Courier checkout service",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Bool("courier_configured", client.Configured()),
		zap.Strings("services", cfg.EnabledServices),
	)

	// Start HTTP server
	srv := server.New(server.Config{
		Port:         cfg.Port,
		CookieSecure: cfg.CookieSecure,
	}, cat, calc, order.NewMemoryStore(), logger, metrics)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runServices(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(initCatalog(cfg).All())
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/anascacais/medical-iot-pipeline/internal/config"
	"github.com/anascacais/medical-iot-pipeline/internal/logger"
	"github.com/anascacais/medical-iot-pipeline/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "vitals-ingest")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting vitals ingest service",
		zap.String("ingest_stream", cfg.Ingest.Stream),
		zap.String("stream_table", cfg.Bigtable.StreamTable),
		zap.String("health_table", cfg.Bigtable.HealthTable),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled),
		zap.Bool("warehouse_enabled", cfg.Database.Enabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ingestService, err := service.NewIngestService(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create ingest service", zap.Error(err))
	}

	go func() {
		if err := ingestService.Start(ctx); err != nil {
			zapLogger.Fatal("Failed to start ingest service", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	cancel()
	ingestService.Stop()
}

package service

import (
	"context"
	"database/sql"
	"fmt"

	"cloud.google.com/go/bigtable"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/anascacais/medical-iot-pipeline/internal/config"
	"github.com/anascacais/medical-iot-pipeline/internal/consumer"
	"github.com/anascacais/medical-iot-pipeline/internal/ingress"
	"github.com/anascacais/medical-iot-pipeline/internal/processor"
	"github.com/anascacais/medical-iot-pipeline/internal/rowkey"
	"github.com/anascacais/medical-iot-pipeline/internal/storage"
	"github.com/anascacais/medical-iot-pipeline/internal/warehouse"
	"github.com/anascacais/medical-iot-pipeline/internal/writer"
)

// IngestService 摄取服务：MQTT 桥（可选）→ Redis Stream → 处理 → 双路径存储 + 仓库
type IngestService struct {
	config      *config.Config
	logger      *zap.Logger
	btClient    *bigtable.Client
	redisClient *redis.Client
	db          *sql.DB
	bridge      *ingress.Bridge
	consumer    *consumer.StreamConsumer
}

// NewIngestService 创建摄取服务
func NewIngestService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*IngestService, error) {
	btClient, err := bigtable.NewClient(ctx, cfg.Bigtable.Project, cfg.Bigtable.Instance)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigtable client: %w", err)
	}

	redisClient, err := consumer.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	streamTable := storage.NewBigtableTable(btClient.Open(cfg.Bigtable.StreamTable))
	healthTable := storage.NewBigtableTable(btClient.Open(cfg.Bigtable.HealthTable))
	scheme := rowkey.NewScheme(cfg.Ingest.MaxTS)

	lastSeen := storage.NewLastSeenReader(streamTable, scheme)
	proc := processor.NewProcessor(lastSeen, processor.NewLastSeenCache(), logger)
	dualWriter := writer.NewDualPathWriter(streamTable, healthTable, scheme, logger)

	var (
		db   *sql.DB
		sink consumer.WarehouseSink
	)
	if cfg.Database.Enabled {
		db, err = warehouse.NewPostgresDB(cfg.DatabaseDSN(), cfg.Database.MaxConns, cfg.Database.MaxIdle)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to warehouse database: %w", err)
		}
		sink = warehouse.NewPostgresWarehouse(db, logger)
	}

	streamConsumer := consumer.NewStreamConsumer(cfg, redisClient, proc, dualWriter, sink, logger)

	svc := &IngestService{
		config:      cfg,
		logger:      logger,
		btClient:    btClient,
		redisClient: redisClient,
		db:          db,
		consumer:    streamConsumer,
	}

	if cfg.MQTT.Enabled {
		bridge, err := ingress.NewBridge(cfg, redisClient, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create MQTT bridge: %w", err)
		}
		svc.bridge = bridge
	}

	return svc, nil
}

// Start 启动服务组件；消费循环阻塞直到 ctx 取消
func (s *IngestService) Start(ctx context.Context) error {
	s.logger.Info("Starting vitals ingest service components")

	if s.bridge != nil {
		if err := s.bridge.Start(ctx); err != nil {
			return fmt.Errorf("failed to start MQTT bridge: %w", err)
		}
	}

	if err := s.consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start stream consumer: %w", err)
	}
	return nil
}

// Stop 停止服务并释放连接
func (s *IngestService) Stop() {
	s.logger.Info("Stopping vitals ingest service")

	if s.bridge != nil {
		s.bridge.Stop()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Error closing Redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Error closing database connection", zap.Error(err))
		}
	}
	if s.btClient != nil {
		if err := s.btClient.Close(); err != nil {
			s.logger.Error("Error closing bigtable client", zap.Error(err))
		}
	}

	s.logger.Info("Service stopped")
}

package main

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/bigtable"
	"go.uber.org/zap"

	"github.com/anascacais/medical-iot-pipeline/internal/config"
	"github.com/anascacais/medical-iot-pipeline/internal/logger"
	"github.com/anascacais/medical-iot-pipeline/internal/warehouse"
)

// 仓库表：一条记录按 modality 展开的行式 schema
const warehouseDDL = `
CREATE TABLE IF NOT EXISTS vitals_warehouse (
	id             BIGSERIAL PRIMARY KEY,
	ts_smp         TIMESTAMPTZ NOT NULL,
	ts_ing         TIMESTAMPTZ NOT NULL,
	sensor_id      TEXT NOT NULL,
	modality       TEXT NOT NULL,
	value          DOUBLE PRECISION,
	flag_type_code SMALLINT NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_vitals_warehouse_sensor_ts
	ON vitals_warehouse (sensor_id, ts_smp DESC);
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, "console", "provision-tables")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	admin, err := bigtable.NewAdminClient(ctx, cfg.Bigtable.Project, cfg.Bigtable.Instance)
	if err != nil {
		zapLogger.Fatal("Failed to create bigtable admin client", zap.Error(err))
	}
	defer admin.Close()

	// 清洁流表不需要 flag 列族
	if err := createTable(ctx, admin, cfg.Bigtable.StreamTable, []string{"vitals", "meta"}, zapLogger); err != nil {
		zapLogger.Fatal("Failed to create stream table", zap.Error(err))
	}
	if err := createTable(ctx, admin, cfg.Bigtable.HealthTable, []string{"vitals", "meta", "flag"}, zapLogger); err != nil {
		zapLogger.Fatal("Failed to create health check table", zap.Error(err))
	}

	if cfg.Database.Enabled {
		db, err := warehouse.NewPostgresDB(cfg.DatabaseDSN(), 1, 1)
		if err != nil {
			zapLogger.Fatal("Failed to connect to warehouse database", zap.Error(err))
		}
		defer db.Close()

		if _, err := db.ExecContext(ctx, warehouseDDL); err != nil {
			zapLogger.Fatal("Failed to create warehouse table", zap.Error(err))
		}
		zapLogger.Info("Warehouse table ready", zap.String("table", "vitals_warehouse"))
	}

	tables, err := admin.Tables(ctx)
	if err != nil {
		zapLogger.Fatal("Failed to list tables", zap.Error(err))
	}
	zapLogger.Info("Provisioning complete", zap.Strings("tables", tables))
}

// createTable 创建表（已存在时跳过），所有列族 GC 策略为 MaxVersions=1：
// 行不可变，只保留单版本
func createTable(ctx context.Context, admin *bigtable.AdminClient, tableID string, families []string, logger *zap.Logger) error {
	tables, err := admin.Tables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	for _, t := range tables {
		if t == tableID {
			logger.Info("Table already exists", zap.String("table", tableID))
			return nil
		}
	}

	conf := &bigtable.TableConf{
		TableID:  tableID,
		Families: make(map[string]bigtable.GCPolicy, len(families)),
	}
	for _, f := range families {
		conf.Families[f] = bigtable.MaxVersionsPolicy(1)
	}

	if err := admin.CreateTableFromConf(ctx, conf); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableID, err)
	}
	logger.Info("Table created", zap.String("table", tableID), zap.Strings("families", families))
	return nil
}

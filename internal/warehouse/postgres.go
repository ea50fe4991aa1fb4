package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/anascacais/medical-iot-pipeline/internal/codec"
	"github.com/anascacais/medical-iot-pipeline/internal/models"
)

// PostgresWarehouse 分析仓库写入端
// 一条规范化记录按 modality 展开为多行（每个 modality 一行），
// NaN 测量值写为 NULL
type PostgresWarehouse struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresWarehouse 创建仓库写入端
func NewPostgresWarehouse(db *sql.DB, logger *zap.Logger) *PostgresWarehouse {
	return &PostgresWarehouse{db: db, logger: logger}
}

// Insert 写入一条记录展开出的全部 modality 行
func (w *PostgresWarehouse) Insert(ctx context.Context, rec *models.VitalsRecord) error {
	// 采样时间截断到毫秒，与宽列存储的 meta.ts_smp 保持一致
	sampleTime := codec.MillisToTime(codec.TimeToMillis(rec.SampleTime))
	ingestTime := rec.IngestTime.UTC()

	var (
		placeholders []string
		args         []interface{}
	)
	for i, m := range models.Modalities {
		value := sql.NullFloat64{}
		if v := rec.Measurements[m.Column]; !math.IsNaN(v) {
			value = sql.NullFloat64{Float64: v, Valid: true}
		}

		base := i * 6
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args,
			sampleTime,
			ingestTime,
			rec.SensorID,
			m.Column,
			value,
			ResolveFlagCode(m.Column, rec.Flags),
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO vitals_warehouse (ts_smp, ts_ing, sensor_id, modality, value, flag_type_code)
		VALUES %s
	`, strings.Join(placeholders, ", "))

	if _, err := w.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert warehouse rows for sensor %s: %w", rec.SensorID, err)
	}

	w.logger.Debug("Warehouse rows inserted",
		zap.String("sensor_id", rec.SensorID),
		zap.Int("rows", len(models.Modalities)),
	)
	return nil
}

// NewPostgresDB 创建 PostgreSQL 连接
func NewPostgresDB(dsn string, maxConns, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

package writer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/anascacais/medical-iot-pipeline/internal/codec"
	"github.com/anascacais/medical-iot-pipeline/internal/models"
	"github.com/anascacais/medical-iot-pipeline/internal/rowkey"
	"github.com/anascacais/medical-iot-pipeline/internal/storage"
)

// DualPathWriter 根据 flag 集决定一条规范化记录写入哪些表：
//   - 清洁流表：无时间戳 flag 时写入，行键按采样时间
//   - 健康检查表：有任意 flag 时写入，行键按接收时间
//
// 一条记录可能写两张表、一张表或都不写；
// 不存在"无 flag 却写健康检查表"或"有时间戳 flag 却写清洁流表"
type DualPathWriter struct {
	stream storage.Table
	health storage.Table
	scheme rowkey.Scheme
	logger *zap.Logger
}

// NewDualPathWriter 创建双路径写入器
func NewDualPathWriter(stream, health storage.Table, scheme rowkey.Scheme, logger *zap.Logger) *DualPathWriter {
	return &DualPathWriter{
		stream: stream,
		health: health,
		scheme: scheme,
		logger: logger,
	}
}

// Write 路由并写入一条规范化记录
func (w *DualPathWriter) Write(ctx context.Context, rec *models.VitalsRecord) error {
	toStream := !rec.HasTimestampFlag()
	toHealth := !rec.Clean()

	if toStream {
		if err := w.writeStream(ctx, rec); err != nil {
			return fmt.Errorf("failed to write clean stream row: %w", err)
		}
	}
	if toHealth {
		if err := w.writeHealth(ctx, rec); err != nil {
			return fmt.Errorf("failed to write health check row: %w", err)
		}
	}

	w.logger.Debug("Record routed",
		zap.String("sensor_id", rec.SensorID),
		zap.Bool("clean_stream", toStream),
		zap.Bool("health_check", toHealth),
	)
	return nil
}

// writeStream 清洁流行：行键按采样时间
// vitals 列包含全部四个 modality，单项 NaN 也按 NaN 位模式编码而非省略
func (w *DualPathWriter) writeStream(ctx context.Context, rec *models.VitalsRecord) error {
	key := w.scheme.BuildKey(rec.SensorID, codec.TimeToMillis(rec.SampleTime))

	vitals := make(map[string][]byte, len(models.Modalities))
	for _, m := range models.Modalities {
		vitals[m.Column] = codec.EncodeFloat(rec.Measurements[m.Column])
	}

	cols := storage.Columns{
		storage.FamilyVitals: vitals,
		storage.FamilyMeta: {
			storage.ColumnIngestTime: codec.EncodeUint64(uint64(codec.TimeToMillis(rec.IngestTime))),
		},
	}
	return w.stream.Put(ctx, key, cols)
}

// writeHealth 健康检查行：行键按接收时间
// 健康检查行按异常被观测到的时刻排序而非包内声明的采样时刻 ——
// 采样时刻本身可能就是异常
// vitals 列只含自身带 flag 的 modality，干净的测量不重复写入
func (w *DualPathWriter) writeHealth(ctx context.Context, rec *models.VitalsRecord) error {
	key := w.scheme.BuildKey(rec.SensorID, codec.TimeToMillis(rec.IngestTime))

	flags := make(map[string][]byte, len(rec.Flags))
	for _, f := range rec.Flags {
		flags[f] = []byte("1")
	}

	cols := storage.Columns{
		storage.FamilyMeta: {
			storage.ColumnSampleTime: codec.EncodeUint64(uint64(codec.TimeToMillis(rec.SampleTime))),
		},
		storage.FamilyFlag: flags,
	}

	vitals := make(map[string][]byte)
	for _, m := range models.Modalities {
		if rec.HasFlag(models.FlagNaN(m.Column)) || rec.HasFlag(models.FlagInvalid(m.Column)) {
			vitals[m.Column] = codec.EncodeFloat(rec.Measurements[m.Column])
		}
	}
	if len(vitals) > 0 {
		cols[storage.FamilyVitals] = vitals
	}

	return w.health.Put(ctx, key, cols)
}

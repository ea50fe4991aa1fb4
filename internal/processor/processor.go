package processor

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/anascacais/medical-iot-pipeline/internal/models"
	"github.com/anascacais/medical-iot-pipeline/internal/validator"
)

// LastSeenLookup 从持久存储解析某传感器最近一次已接受的采样时间
// found 为 false 表示存储中没有该传感器的任何记录
type LastSeenLookup interface {
	GetLastSeen(ctx context.Context, sensorID string) (time.Time, bool, error)
}

// Processor 单包处理状态机：
// RECEIVED → PARSED|MALFORMED → (逐字段校验) → FLAGGED → DONE
//
// 同一 sensor_id 的包必须串行处理（单消费者即可满足），
// 否则两个包可能针对过期的 last-seen 同时通过 impossible 检查；
// 不同传感器的包相互独立
type Processor struct {
	lookup LastSeenLookup
	cache  *LastSeenCache
	logger *zap.Logger

	// now 可注入，便于测试确定性
	now func() time.Time
}

// NewProcessor 创建处理器；cache 按摄取运行注入
func NewProcessor(lookup LastSeenLookup, cache *LastSeenCache, logger *zap.Logger) *Processor {
	return &Processor{
		lookup: lookup,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Process 把一个原始数据包转换为规范化记录
//
// 单个损坏/无效的包不会返回错误：MALFORMED 是完全定义的正常输出，
// 无效字段一律降级为 flag —— 系统的目的是暴露数据质量信号而非丢弃数据。
// 只有第3步的存储查询失败会返回错误，且只中止当前这一个包
func (p *Processor) Process(ctx context.Context, raw []byte) (*models.VitalsRecord, error) {
	ingestTime := p.now().UTC()

	pkt := models.ParsePacket(raw)
	if pkt.Malformed {
		// 不做任何存储查询，直接产出全 NaN 记录
		return malformedRecord(ingestTime), nil
	}

	rec := &models.VitalsRecord{
		SensorID:     pkt.SensorID(),
		IngestTime:   ingestTime,
		SampleTime:   models.MinSampleTime,
		Measurements: make(map[string]float64, len(models.Modalities)),
	}

	// 时间戳校验：TS_INV 时跳过 impossible 检查
	sampleTime, ok := validator.ParseEventTimestamp(pkt.EventTimestamp())
	if !ok {
		rec.Flags = append(rec.Flags, models.FlagTSInvalid)
	} else {
		rec.SampleTime = sampleTime
		rec.SampleTimeOK = true

		lastSeen, err := p.resolveLastSeen(ctx, rec.SensorID)
		if err != nil {
			return nil, err
		}

		if validator.IsImpossibleTimestamp(sampleTime, lastSeen, ingestTime) {
			rec.Flags = append(rec.Flags, models.FlagTSImpossible)
		} else {
			// 缓存只在接受的时间戳上推进；
			// 推进发生在 impossible 判定之后而非存储写入之后，
			// 崩溃后缓存由存储重建（见 LastSeenCache）
			p.cache.Put(rec.SensorID, sampleTime)
		}
	}

	// 逐 modality 校验，flag 按声明顺序追加
	for _, m := range models.Modalities {
		status, value := validator.ValidateMeasurement(pkt.Fields[m.Field], m.Min, m.Max)
		switch status {
		case validator.StatusNaN:
			rec.Flags = append(rec.Flags, models.FlagNaN(m.Column))
		case validator.StatusInvalid:
			rec.Flags = append(rec.Flags, models.FlagInvalid(m.Column))
		}
		rec.Measurements[m.Column] = value
	}

	if len(rec.Flags) > 0 {
		p.logger.Debug("Packet flagged",
			zap.String("sensor_id", rec.SensorID),
			zap.Strings("flags", rec.Flags),
		)
	}

	return rec, nil
}

// resolveLastSeen 返回该传感器的 last-seen 指针（nil 表示没有历史读数）
// 首次遇到的传感器触发一次存储查询，结果（含"无记录"）写入缓存
func (p *Processor) resolveLastSeen(ctx context.Context, sensorID string) (*time.Time, error) {
	cached, ok := p.cache.Get(sensorID)
	if !ok {
		stored, found, err := p.lookup.GetLastSeen(ctx, sensorID)
		if err != nil {
			return nil, fmt.Errorf("last seen lookup failed for sensor %s: %w", sensorID, err)
		}
		if !found {
			stored = time.Time{}
		}
		p.cache.Put(sensorID, stored)
		cached = stored
	}
	if cached.IsZero() {
		return nil, nil
	}
	return &cached, nil
}

// malformedRecord 结构解析失败时的固定输出：
// TS_INV + 每个 modality 的 _NAN，所有测量值为 NaN
func malformedRecord(ingestTime time.Time) *models.VitalsRecord {
	rec := &models.VitalsRecord{
		IngestTime:   ingestTime,
		SampleTime:   models.MinSampleTime,
		Measurements: make(map[string]float64, len(models.Modalities)),
		Flags:        []string{models.FlagTSInvalid},
	}
	for _, m := range models.Modalities {
		rec.Flags = append(rec.Flags, models.FlagNaN(m.Column))
		rec.Measurements[m.Column] = math.NaN()
	}
	return rec
}

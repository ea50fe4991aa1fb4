package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anascacais/medical-iot-pipeline/internal/config"
	"github.com/anascacais/medical-iot-pipeline/internal/models"
	"github.com/anascacais/medical-iot-pipeline/internal/processor"
)

// RecordWriter 双路径存储写入
type RecordWriter interface {
	Write(ctx context.Context, rec *models.VitalsRecord) error
}

// WarehouseSink 分析仓库写入（可选的次级输出）
type WarehouseSink interface {
	Insert(ctx context.Context, rec *models.VitalsRecord) error
}

// StreamConsumer 原始包流的消费者
// 单消费者顺序处理，满足同一传感器包串行化的要求
// （last-seen 检查与缓存推进之间不允许同传感器并发）
type StreamConsumer struct {
	config       *config.Config
	redisClient  *redis.Client
	processor    *processor.Processor
	writer       RecordWriter
	warehouse    WarehouseSink // 可为 nil
	logger       *zap.Logger
	consumerName string
}

// NewStreamConsumer 创建消费者；warehouse 传 nil 表示不写仓库
func NewStreamConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	proc *processor.Processor,
	writer RecordWriter,
	warehouse WarehouseSink,
	logger *zap.Logger,
) *StreamConsumer {
	return &StreamConsumer{
		config:      cfg,
		redisClient: redisClient,
		processor:   proc,
		writer:      writer,
		warehouse:   warehouse,
		logger:      logger,
		// 同组多实例部署时消费者名必须唯一
		consumerName: fmt.Sprintf("%s-%s", cfg.Ingest.ConsumerName, uuid.NewString()[:8]),
	}
}

// Start 启动消费循环，ctx 取消后返回
func (c *StreamConsumer) Start(ctx context.Context) error {
	if err := createConsumerGroup(ctx, c.redisClient, c.config.Ingest.Stream, c.config.Ingest.ConsumerGroup); err != nil {
		return err
	}

	c.logger.Info("Stream consumer started",
		zap.String("stream", c.config.Ingest.Stream),
		zap.String("consumer_group", c.config.Ingest.ConsumerGroup),
		zap.String("consumer_name", c.consumerName),
	)

	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.consumeOnce(ctx); err != nil {
				c.logger.Error("Failed to consume stream",
					zap.Error(err),
					zap.Duration("backoff", backoff),
				)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoff):
					backoff *= 2
					if backoff > maxBackoff {
						backoff = maxBackoff
					}
				}
			} else {
				backoff = time.Second
			}
		}
	}
}

// consumeOnce 读取并处理一批消息
func (c *StreamConsumer) consumeOnce(ctx context.Context) error {
	messages, err := readFromStream(
		ctx,
		c.redisClient,
		c.config.Ingest.Stream,
		c.config.Ingest.ConsumerGroup,
		c.consumerName,
		c.config.Ingest.BatchSize,
	)
	if err != nil {
		return fmt.Errorf("failed to read from stream %s: %w", c.config.Ingest.Stream, err)
	}

	for _, msg := range messages {
		if err := c.processMessage(ctx, msg); err != nil {
			// 留在 pending 列表等待重投，继续处理下一条
			c.logger.Error("Failed to process message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		if err := c.redisClient.XAck(ctx, c.config.Ingest.Stream, c.config.Ingest.ConsumerGroup, msg.ID).Err(); err != nil {
			c.logger.Warn("Failed to ack message", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	return nil
}

// processMessage 处理单条消息：处理 → 双路径写入 → 仓库
func (c *StreamConsumer) processMessage(ctx context.Context, msg redis.XMessage) error {
	payload, ok := msg.Values[payloadField].(string)
	if !ok {
		// 没有 payload 字段的消息当作损坏的空包处理
		payload = ""
	}

	rec, err := c.processor.Process(ctx, []byte(payload))
	if err != nil {
		return fmt.Errorf("failed to process packet: %w", err)
	}

	if err := c.writer.Write(ctx, rec); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	// 仓库是次级输出，失败只告警，不影响消息确认
	if c.warehouse != nil {
		if err := c.warehouse.Insert(ctx, rec); err != nil {
			c.logger.Warn("Failed to insert warehouse rows",
				zap.String("sensor_id", rec.SensorID),
				zap.Error(err),
			)
		}
	}

	c.logger.Info("Packet ingested",
		zap.String("sensor_id", rec.SensorID),
		zap.Int("flags", len(rec.Flags)),
	)
	return nil
}

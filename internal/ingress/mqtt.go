package ingress

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/anascacais/medical-iot-pipeline/internal/config"
	"github.com/anascacais/medical-iot-pipeline/internal/consumer"
)

// Bridge MQTT 入口桥
// 床旁监护仪把原始数据包发布到 vitals/+/raw，
// 桥只负责把 payload 原样转发到摄取流，不做任何校验 ——
// 校验与 flag 判定统一在 processor 内完成
type Bridge struct {
	client      mqtt.Client
	redisClient *redis.Client
	config      *config.Config
	logger      *zap.Logger
}

// NewBridge 创建并连接 MQTT 桥
func NewBridge(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (*Bridge, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.Broker)
	opts.SetClientID(cfg.MQTT.ClientID)

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
	}
	if cfg.MQTT.Password != "" {
		opts.SetPassword(cfg.MQTT.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Bridge{
		client:      client,
		redisClient: redisClient,
		config:      cfg,
		logger:      logger,
	}, nil
}

// Start 订阅监护仪上报主题
func (b *Bridge) Start(ctx context.Context) error {
	topic := b.config.MQTT.Topic
	token := b.client.Subscribe(topic, b.config.MQTT.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		if _, err := consumer.PublishRawPacket(ctx, b.redisClient, b.config.Ingest.Stream, msg.Payload()); err != nil {
			b.logger.Error("Failed to forward packet to ingest stream",
				zap.String("topic", msg.Topic()),
				zap.Error(err),
			)
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	b.logger.Info("MQTT bridge started", zap.String("topic", topic))
	return nil
}

// Stop 断开 MQTT 连接
func (b *Bridge) Stop() {
	b.client.Disconnect(250)
}

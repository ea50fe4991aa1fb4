package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/anascacais/medical-iot-pipeline/internal/rowkey"
)

// Config 摄取服务配置
type Config struct {
	Bigtable struct {
		Project     string
		Instance    string
		StreamTable string // 清洁流表，如 "stream_data"
		HealthTable string // 健康检查表，如 "health_check"
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Database struct {
		Enabled  bool
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
		MaxConns int
		MaxIdle  int
	}

	MQTT struct {
		Enabled  bool
		Broker   string
		ClientID string
		Username string
		Password string
		QoS      byte
		Topic    string // 监护仪上报主题，如 "vitals/+/raw"
	}

	Ingest struct {
		Stream        string // 原始包流，如 "vitals:raw:stream"
		ConsumerGroup string
		ConsumerName  string
		BatchSize     int64
		MaxTS         int64 // 行键方案的时间戳上界（毫秒）
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Bigtable.Project = getEnv("BIGTABLE_PROJECT", "medical-iot")
	cfg.Bigtable.Instance = getEnv("BIGTABLE_INSTANCE", "vitals")
	cfg.Bigtable.StreamTable = getEnv("BIGTABLE_STREAM_TABLE", "stream_data")
	cfg.Bigtable.HealthTable = getEnv("BIGTABLE_HEALTH_TABLE", "health_check")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = int(getEnvInt("REDIS_DB", 0))

	cfg.Database.Enabled = getEnvBool("DB_ENABLED", true)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = int(getEnvInt("DB_PORT", 5432))
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "vitals")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = int(getEnvInt("DB_MAX_CONNS", 10))
	cfg.Database.MaxIdle = int(getEnvInt("DB_MAX_IDLE", 5))

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "vitals-ingest")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "vitals/+/raw")

	cfg.Ingest.Stream = getEnv("INGEST_STREAM", "vitals:raw:stream")
	cfg.Ingest.ConsumerGroup = getEnv("CONSUMER_GROUP", "vitals-ingest-group")
	cfg.Ingest.ConsumerName = getEnv("CONSUMER_NAME", "vitals-ingest")
	cfg.Ingest.BatchSize = getEnvInt("INGEST_BATCH_SIZE", 10)
	cfg.Ingest.MaxTS = getEnvInt("INGEST_MAX_TS", rowkey.DefaultMaxTS)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Ingest.MaxTS <= 0 {
		return nil, fmt.Errorf("INGEST_MAX_TS must be positive, got %d", cfg.Ingest.MaxTS)
	}

	return cfg, nil
}

// DatabaseDSN 仓库数据库连接串
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Database, c.Database.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/anascacais/medical-iot-pipeline/internal/config"
	"github.com/anascacais/medical-iot-pipeline/internal/consumer"
	"github.com/anascacais/medical-iot-pipeline/internal/logger"
)

// replay-vitals 把一个文本文件里的原始数据包逐行回放到摄取流，
// 模拟监护仪的实时上报；每行一个 JSON 包，空行跳过
func main() {
	var (
		filePath = flag.String("file", "data/vitals_raw.txt", "path to raw packet file, one JSON packet per line")
		delay    = flag.Duration("delay", 100*time.Millisecond, "delay between packets")
		limit    = flag.Int("limit", 0, "max packets to replay (0 = all)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, "console", "replay-vitals")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	redisClient, err := consumer.NewRedisClient(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	f, err := os.Open(*filePath)
	if err != nil {
		zapLogger.Fatal("Failed to open packet file", zap.String("file", *filePath), zap.Error(err))
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		id, err := consumer.PublishRawPacket(ctx, redisClient, cfg.Ingest.Stream, line)
		if err != nil {
			zapLogger.Error("Failed to publish packet", zap.Error(err))
			continue
		}
		count++
		zapLogger.Debug("Packet published", zap.String("message_id", id))

		if *limit > 0 && count >= *limit {
			break
		}
		time.Sleep(*delay)
	}
	if err := scanner.Err(); err != nil {
		zapLogger.Fatal("Failed to read packet file", zap.Error(err))
	}

	zapLogger.Info("Replay complete",
		zap.Int("packets", count),
		zap.String("stream", cfg.Ingest.Stream),
	)
}

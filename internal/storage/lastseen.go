package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/anascacais/medical-iot-pipeline/internal/codec"
	"github.com/anascacais/medical-iot-pipeline/internal/rowkey"
)

// LastSeenReader 从清洁流表解析某传感器最近一次已接受的采样时间
// 行键的反转时间戳保证最新记录排在前缀扫描的第一条，
// limit-1 扫描即可，无需二级索引
type LastSeenReader struct {
	table  Table
	scheme rowkey.Scheme
}

// NewLastSeenReader 创建 last-seen 读取器
func NewLastSeenReader(table Table, scheme rowkey.Scheme) *LastSeenReader {
	return &LastSeenReader{table: table, scheme: scheme}
}

// GetLastSeen 返回该传感器最近一次已接受的采样时间
// 存储中没有任何记录时 found 为 false（进程重启后缓存由此重建，
// 存储是 last-seen 的权威来源）
func (r *LastSeenReader) GetLastSeen(ctx context.Context, sensorID string) (time.Time, bool, error) {
	startKey, endKey := r.scheme.PrefixRange(sensorID)

	entries, err := r.table.Scan(ctx, startKey, endKey, 1)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to scan last seen for sensor %s: %w", sensorID, err)
	}
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}

	_, eventMs, err := r.scheme.ParseKey(entries[0].Key)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse row key %s: %w", entries[0].Key, err)
	}
	return codec.MillisToTime(eventMs), true, nil
}

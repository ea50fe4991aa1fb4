package storage

import (
	"context"
	"time"
)

// 列族与 meta 列名（与存量表结构保持一致）
const (
	FamilyVitals = "vitals"
	FamilyMeta   = "meta"
	FamilyFlag   = "flag"

	ColumnIngestTime = "ts_ing"
	ColumnSampleTime = "ts_smp"
)

// Columns 待写入的列：列族 → 列名 → 值
type Columns map[string]map[string][]byte

// Cell 已存储单元格的值与写入时间
type Cell struct {
	Value     []byte
	Timestamp time.Time
}

// Row 一行已存储数据：列族 → 列名 → 单元格
type Row map[string]map[string]Cell

// Entry Scan 返回的一条记录
type Entry struct {
	Key string
	Row Row
}

// Table 宽列存储的窄接口
// 底层只需支持按 key 字节字典序的范围扫描与整行写入，
// 行键方案（internal/rowkey）依赖这一序
type Table interface {
	// Scan 返回 [startKey, endKey) 内按 key 升序的前 limit 行；limit <= 0 表示不限
	Scan(ctx context.Context, startKey, endKey string, limit int) ([]Entry, error)
	// Put 写入一行；行写入后视为不可变
	Put(ctx context.Context, key string, cols Columns) error
}

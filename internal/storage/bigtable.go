package storage

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigtable"
)

// BigtableTable Table 的 Cloud Bigtable 适配
// Bigtable 的行按 key 字节字典序存储，正好满足行键方案的前提
type BigtableTable struct {
	tbl *bigtable.Table
}

// NewBigtableTable 包装一个已打开的 Bigtable 表
func NewBigtableTable(tbl *bigtable.Table) *BigtableTable {
	return &BigtableTable{tbl: tbl}
}

var _ Table = (*BigtableTable)(nil)

// Scan 范围扫描 [startKey, endKey)
func (t *BigtableTable) Scan(ctx context.Context, startKey, endKey string, limit int) ([]Entry, error) {
	var opts []bigtable.ReadOption
	if limit > 0 {
		opts = append(opts, bigtable.LimitRows(int64(limit)))
	}

	var entries []Entry
	err := t.tbl.ReadRows(ctx, bigtable.NewRange(startKey, endKey), func(r bigtable.Row) bool {
		entries = append(entries, Entry{Key: r.Key(), Row: fromBigtableRow(r)})
		return true
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigtable scan failed: %w", err)
	}
	return entries, nil
}

// Put 整行写入（单次 mutation，同一行内的列原子提交）
func (t *BigtableTable) Put(ctx context.Context, key string, cols Columns) error {
	mut := bigtable.NewMutation()
	for family, columns := range cols {
		for col, val := range columns {
			mut.Set(family, col, bigtable.Now(), val)
		}
	}
	if err := t.tbl.Apply(ctx, key, mut); err != nil {
		return fmt.Errorf("bigtable put failed for key %s: %w", key, err)
	}
	return nil
}

// fromBigtableRow 转换 Bigtable 行为通用 Row
// ReadItem.Column 形如 "family:qualifier"，每列只取最新版本
// （表的 GC 策略为 MaxVersions=1）
func fromBigtableRow(r bigtable.Row) Row {
	row := make(Row, len(r))
	for family, items := range r {
		columns := make(map[string]Cell, len(items))
		for _, item := range items {
			qualifier := item.Column
			if idx := strings.Index(qualifier, ":"); idx >= 0 {
				qualifier = qualifier[idx+1:]
			}
			if _, exists := columns[qualifier]; exists {
				continue
			}
			columns[qualifier] = Cell{
				Value:     item.Value,
				Timestamp: item.Timestamp.Time().UTC(),
			}
		}
		row[family] = columns
	}
	return row
}

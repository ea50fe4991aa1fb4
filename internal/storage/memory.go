package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryTable Table 的内存实现（按 key 字典序），用于单元测试与本地回放
type MemoryTable struct {
	mu   sync.Mutex
	rows map[string]Row
}

// NewMemoryTable 创建内存表
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{rows: make(map[string]Row)}
}

var _ Table = (*MemoryTable)(nil)

// Scan 返回 [startKey, endKey) 内按 key 升序的前 limit 行
func (t *MemoryTable) Scan(ctx context.Context, startKey, endKey string, limit int) ([]Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		if k >= startKey && k < endKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var entries []Entry
	for _, k := range keys {
		if limit > 0 && len(entries) >= limit {
			break
		}
		entries = append(entries, Entry{Key: k, Row: copyRow(t.rows[k])})
	}
	return entries, nil
}

// Put 写入一行；写入时间取当前墙钟
func (t *MemoryTable) Put(ctx context.Context, key string, cols Columns) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	row, ok := t.rows[key]
	if !ok {
		row = make(Row)
		t.rows[key] = row
	}
	for family, columns := range cols {
		if row[family] == nil {
			row[family] = make(map[string]Cell)
		}
		for col, val := range columns {
			v := make([]byte, len(val))
			copy(v, val)
			row[family][col] = Cell{Value: v, Timestamp: now}
		}
	}
	return nil
}

// Len 当前行数（仅测试用）
func (t *MemoryTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Get 按 key 读取一行；不存在时 ok 为 false（仅测试用）
func (t *MemoryTable) Get(key string) (Row, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[key]
	if !ok {
		return nil, false
	}
	return copyRow(row), true
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for family, columns := range row {
		out[family] = make(map[string]Cell, len(columns))
		for col, cell := range columns {
			out[family][col] = cell
		}
	}
	return out
}

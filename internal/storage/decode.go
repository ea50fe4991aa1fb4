package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/anascacais/medical-iot-pipeline/internal/codec"
)

// DecodedCell 解码后的单元格：按列族规则还原的值 + 写入时间
type DecodedCell struct {
	Value     interface{}
	Timestamp time.Time
}

// DecodedRow 可读形式的一行：列族 → 列名 → 解码单元格
type DecodedRow map[string]map[string]DecodedCell

// DecodeRow 把一行已存储数据还原为可读形式，供下游读取方使用
// 解码规则按列族：vitals → float64，meta → UTC 时间，flag → 0/1 整数
// 未知列族保留原始字节
func DecodeRow(row Row) (DecodedRow, error) {
	out := make(DecodedRow, len(row))
	for family, columns := range row {
		decoded := make(map[string]DecodedCell, len(columns))
		for col, cell := range columns {
			v, err := decodeCell(family, cell.Value)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s:%s: %w", family, col, err)
			}
			decoded[col] = DecodedCell{Value: v, Timestamp: cell.Timestamp}
		}
		out[family] = decoded
	}
	return out, nil
}

func decodeCell(family string, value []byte) (interface{}, error) {
	switch family {
	case FamilyVitals:
		return codec.DecodeFloat(value)
	case FamilyMeta:
		ms, err := codec.DecodeUint64(value)
		if err != nil {
			return nil, err
		}
		return codec.MillisToTime(int64(ms)), nil
	case FamilyFlag:
		n, err := strconv.Atoi(string(value))
		if err != nil {
			return nil, fmt.Errorf("bad flag value %q", value)
		}
		if n != 0 {
			n = 1
		}
		return n, nil
	default:
		return value, nil
	}
}

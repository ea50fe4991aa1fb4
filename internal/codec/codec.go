package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// FixedWidth 固定宽度数值字段的字节数（8字节大端）
const FixedWidth = 8

// CodecError 固定宽度解码错误（输入字节长度不符）
type CodecError struct {
	Kind string // "float" 或 "uint64"
	Got  int
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec: cannot decode %s: expected %d bytes, got %d", e.Kind, FixedWidth, e.Got)
}

// EncodeFloat 编码 IEEE-754 double 为8字节大端
// NaN 按其位模式原样编码，不做特殊处理
func EncodeFloat(v float64) []byte {
	buf := make([]byte, FixedWidth)
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return buf
}

// DecodeFloat 解码8字节大端为 IEEE-754 double
func DecodeFloat(b []byte) (float64, error) {
	if len(b) != FixedWidth {
		return 0, &CodecError{Kind: "float", Got: len(b)}
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// EncodeUint64 编码无符号整数为8字节大端
func EncodeUint64(v uint64) []byte {
	buf := make([]byte, FixedWidth)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// DecodeUint64 解码8字节大端为无符号整数
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != FixedWidth {
		return 0, &CodecError{Kind: "uint64", Got: len(b)}
	}
	return binary.BigEndian.Uint64(b), nil
}

// TimeToMillis 转换 UTC 时间为毫秒时间戳（亚毫秒精度向下截断）
func TimeToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// MillisToTime 转换毫秒时间戳为 UTC 时间
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

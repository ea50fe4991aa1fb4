package validator

import (
	"math"
	"strconv"
	"time"
)

// Status 单个测量值的校验结果
type Status string

const (
	StatusOK      Status = "OK"  // 数值有效且在合理范围内
	StatusNaN     Status = "NAN" // 缺失、NaN、或无法转换为数值
	StatusInvalid Status = "INV" // 数值有效但超出合理范围
)

// timestampLayouts 可识别的时间戳文本格式
// RFC3339Nano 同时覆盖带/不带小数秒的 RFC3339
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseEventTimestamp 解析包内的事件时间戳字段
// 成功时返回归一化到 UTC 的时间；类型不对或解析失败时 ok 为 false
func ParseEventTimestamp(raw interface{}) (time.Time, bool) {
	s, isStr := raw.(string)
	if !isStr {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// IsImpossibleTimestamp 判定事件时间是否不可能
// 不可能 = 事件在未来（晚于接收墙钟时间），
// 或该传感器已接受过采样且事件早于最近一次已接受的采样时间
// （一旦接受过合法读数，时间不允许回退）
func IsImpossibleTimestamp(event time.Time, lastSeen *time.Time, now time.Time) bool {
	if event.After(now) {
		return true
	}
	if lastSeen != nil && event.Before(*lastSeen) {
		return true
	}
	return false
}

// ValidateMeasurement 校验单个测量值并归一化为 float64
//
// 规则（固定一种行为，见 DESIGN.md）：
//   - 缺失/null、浮点 NaN、以及无法转换为数值的输入，统一报 StatusNaN，
//     返回值为 NaN —— 转换失败等同于缺失
//   - 能转换但超出 [min, max]（含端点）报 StatusInvalid，
//     返回转换后的原数值供诊断使用
//   - 其余情况报 StatusOK，返回转换后的数值
func ValidateMeasurement(value interface{}, min, max float64) (Status, float64) {
	v, ok := coerceFloat(value)
	if !ok || math.IsNaN(v) {
		return StatusNaN, math.NaN()
	}
	if v < min || v > max {
		return StatusInvalid, v
	}
	return StatusOK, v
}

// coerceFloat 尽力把任意输入转换为 float64
// JSON 解码后的数值都是 float64；字符串按十进制浮点解析
func coerceFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

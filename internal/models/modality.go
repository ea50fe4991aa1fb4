package models

// Modality 一个生理/设备测量通道
type Modality struct {
	Field  string  // 数据包中的输入字段名，如 "heart_rate"
	Column string  // 存储列名（vitals 列族），如 "hr"
	Min    float64 // 生理合理范围下限（含）
	Max    float64 // 生理合理范围上限（含）
}

// Modalities 固定的四个测量通道
// 声明顺序即 flag 的追加顺序，测试依赖该顺序的确定性
var Modalities = []Modality{
	{Field: "heart_rate", Column: "hr", Min: 0, Max: 350},
	{Field: "body_temperature", Column: "temp", Min: 25, Max: 45},
	{Field: "spO2", Column: "SpO2", Min: 0, Max: 100},
	{Field: "battery_level", Column: "battery", Min: 0, Max: 100},
}

// 时间戳级别的 flag
const (
	FlagTSInvalid    = "TS_INV" // 时间戳缺失或无法解析
	FlagTSImpossible = "TS_IMP" // 时间戳在未来，或早于该传感器已接受的最近采样时间
)

// FlagNaN 测量值缺失/无法转换为数值时的 flag 名
func FlagNaN(column string) string {
	return column + "_NAN"
}

// FlagInvalid 测量值超出生理合理范围时的 flag 名
func FlagInvalid(column string) string {
	return column + "_INV"
}

package models

import "time"

// MinSampleTime 采样时间的哨兵最小值（epoch）
// 仅用于持久化边界：进程内用 SampleTimeOK 区分"无法解析"，
// 不依赖与该魔法值的比较
var MinSampleTime = time.UnixMilli(0).UTC()

// VitalsRecord 一个数据包处理后的规范化记录
type VitalsRecord struct {
	SensorID     string
	IngestTime   time.Time          // 处理时刻（UTC 墙钟）
	SampleTime   time.Time          // 包内声明的采样时刻；解析失败时为 MinSampleTime
	SampleTimeOK bool               // 采样时刻是否解析成功
	Measurements map[string]float64 // 存储列名 → 测量值（可能为 NaN）
	Flags        []string           // 时间戳 flag 在前，modality flag 按声明顺序在后
}

// Clean 是否所有校验均通过（flag 集为空）
func (r *VitalsRecord) Clean() bool {
	return len(r.Flags) == 0
}

// HasFlag 是否包含指定 flag
func (r *VitalsRecord) HasFlag(name string) bool {
	for _, f := range r.Flags {
		if f == name {
			return true
		}
	}
	return false
}

// HasTimestampFlag 是否包含时间戳级别的 flag（决定清洁流路径是否可写）
func (r *VitalsRecord) HasTimestampFlag() bool {
	return r.HasFlag(FlagTSInvalid) || r.HasFlag(FlagTSImpossible)
}

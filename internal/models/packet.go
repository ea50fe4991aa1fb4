package models

import "encoding/json"

// Packet 原始数据包的结构化形式：要么格式损坏，要么是一个字段映射
// 在单一的结构校验步骤里一次性判定，后续处理不再做鸭子类型访问
type Packet struct {
	Fields    map[string]interface{}
	Malformed bool
}

// ParsePacket 结构化解析原始数据包
// 不是合法 JSON、或顶层不是对象时返回 Malformed
func ParsePacket(raw []byte) Packet {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Packet{Malformed: true}
	}
	return Packet{Fields: fields}
}

// SensorID 读取 sensor_id 字段；缺失或非字符串时返回空串
func (p Packet) SensorID() string {
	if id, ok := p.Fields["sensor_id"].(string); ok {
		return id
	}
	return ""
}

// EventTimestamp 读取原始的 event_timestamp 字段（未解析）
func (p Packet) EventTimestamp() interface{} {
	return p.Fields["event_timestamp"]
}

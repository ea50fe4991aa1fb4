package rowkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separator 传感器ID与反转时间戳之间的分隔符
const Separator = "#"

// DefaultMaxTS 默认的时间戳上界：2100-01-01T00:00:00Z 的毫秒时间戳
// 必须严格大于系统会见到的任何合法事件时间
const DefaultMaxTS int64 = 4102444800000

// reversedWidth 反转时间戳的十进制位数（DefaultMaxTS 为13位）
// 补零到固定宽度后，key 的字节序与数值序一致
const reversedWidth = 13

// ErrMalformedKey 行键无法解析
var ErrMalformedKey = errors.New("rowkey: malformed row key")

// Scheme 行键方案：sensor_id + "#" + (MaxTS - event_time_ms)
// 事件时间越新，反转值越小，key 字典序越靠前，
// 因此对某个传感器前缀做 limit-1 正向扫描即可取得最新一条记录，
// 无需二级索引或全表扫描
type Scheme struct {
	MaxTS int64
}

// NewScheme 创建行键方案；maxTS <= 0 时使用 DefaultMaxTS
func NewScheme(maxTS int64) Scheme {
	if maxTS <= 0 {
		maxTS = DefaultMaxTS
	}
	return Scheme{MaxTS: maxTS}
}

// BuildKey 构建行键；eventMs 必须在 [0, MaxTS) 内
func (s Scheme) BuildKey(sensorID string, eventMs int64) string {
	return fmt.Sprintf("%s%s%0*d", sensorID, Separator, reversedWidth, s.MaxTS-eventMs)
}

// ParseKey 解析行键，返回传感器ID与事件时间（毫秒）
// 按最后一个分隔符拆分，传感器ID本身可以包含分隔符
func (s Scheme) ParseKey(key string) (string, int64, error) {
	idx := strings.LastIndex(key, Separator)
	if idx < 0 {
		return "", 0, fmt.Errorf("%w: no separator in %q", ErrMalformedKey, key)
	}
	reversed, err := strconv.ParseInt(key[idx+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad reversed timestamp in %q", ErrMalformedKey, key)
	}
	eventMs := s.MaxTS - reversed
	if eventMs < 0 || eventMs >= s.MaxTS {
		return "", 0, fmt.Errorf("%w: reversed timestamp out of range in %q", ErrMalformedKey, key)
	}
	return key[:idx], eventMs, nil
}

// PrefixRange 返回某传感器全部行的扫描区间 [sensorID#, sensorID#0xFF)
func (s Scheme) PrefixRange(sensorID string) (string, string) {
	prefix := sensorID + Separator
	return prefix, prefix + "\xff"
}

package processor

import (
	"sync"
	"time"
)

// LastSeenCache 进程生命周期内每传感器的采样时间高水位
// 首次遇到某传感器时通过存储查询惰性填充，之后只在接受
// （非 impossible）时间戳时原地推进；不持久化，重启后由存储重建
//
// 零值 time.Time 表示"已查询过存储但没有历史记录"，
// 这样同一传感器不会反复触发存储查询
type LastSeenCache struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewLastSeenCache 创建空缓存；按摄取运行注入，不做全局单例
func NewLastSeenCache() *LastSeenCache {
	return &LastSeenCache{seen: make(map[string]time.Time)}
}

// Get 返回该传感器缓存的 last-seen；cached 表示是否已填充过
func (c *LastSeenCache) Get(sensorID string) (t time.Time, cached bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, cached = c.seen[sensorID]
	return t, cached
}

// Put 写入/推进该传感器的 last-seen
func (c *LastSeenCache) Put(sensorID string, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[sensorID] = t
}

package processor

import "time"

// SetNowForTest 注入确定性时钟
func SetNowForTest(p *Processor, now func() time.Time) {
	p.now = now
}

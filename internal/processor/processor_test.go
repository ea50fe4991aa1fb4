package processor_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anascacais/medical-iot-pipeline/internal/models"
	"github.com/anascacais/medical-iot-pipeline/internal/processor"
)

// fakeLastSeenLookup 仅用于单元测试的存储 last-seen 查询
type fakeLastSeenLookup struct {
	seen  map[string]time.Time
	err   error
	calls int
}

func (f *fakeLastSeenLookup) GetLastSeen(_ context.Context, sensorID string) (time.Time, bool, error) {
	f.calls++
	if f.err != nil {
		return time.Time{}, false, f.err
	}
	t, ok := f.seen[sensorID]
	return t, ok, nil
}

var testNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestProcessor(t *testing.T, lookup *fakeLastSeenLookup) (*processor.Processor, *processor.LastSeenCache) {
	t.Helper()
	cache := processor.NewLastSeenCache()
	proc := processor.NewProcessor(lookup, cache, zap.NewNop())
	processor.SetNowForTest(proc, func() time.Time { return testNow })
	return proc, cache
}

func validPacket(t *testing.T, overrides map[string]interface{}) []byte {
	t.Helper()
	fields := map[string]interface{}{
		"sensor_id":        "sensor-1",
		"event_timestamp":  "2026-01-01T00:00:00Z",
		"heart_rate":       80,
		"body_temperature": 36.5,
		"spO2":             98,
		"battery_level":    50,
	}
	for k, v := range overrides {
		fields[k] = v
	}
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return raw
}

func TestProcessValidPacket(t *testing.T) {
	lookup := &fakeLastSeenLookup{seen: map[string]time.Time{}}
	proc, cache := newTestProcessor(t, lookup)

	rec, err := proc.Process(context.Background(), validPacket(t, nil))
	require.NoError(t, err)

	require.Equal(t, "sensor-1", rec.SensorID)
	require.Empty(t, rec.Flags)
	require.True(t, rec.Clean())

	require.Equal(t, 80.0, rec.Measurements["hr"])
	require.Equal(t, 36.5, rec.Measurements["temp"])
	require.Equal(t, 98.0, rec.Measurements["SpO2"])
	require.Equal(t, 50.0, rec.Measurements["battery"])

	require.True(t, rec.SampleTimeOK)
	require.Equal(t, testNow, rec.SampleTime)
	require.Equal(t, testNow, rec.IngestTime)

	// 接受的时间戳推进缓存
	last, cached := cache.Get("sensor-1")
	require.True(t, cached)
	require.Equal(t, testNow, last)
}

func TestProcessMalformedPacket(t *testing.T) {
	for _, raw := range [][]byte{
		[]byte("not-json"),
		[]byte(`"just a string"`),
		[]byte(`[1, 2, 3]`),
		[]byte("null"),
		nil,
	} {
		lookup := &fakeLastSeenLookup{}
		proc, _ := newTestProcessor(t, lookup)

		rec, err := proc.Process(context.Background(), raw)
		require.NoError(t, err)

		require.Equal(t, []string{"TS_INV", "hr_NAN", "temp_NAN", "SpO2_NAN", "battery_NAN"}, rec.Flags)
		require.Equal(t, models.MinSampleTime, rec.SampleTime)
		require.False(t, rec.SampleTimeOK)
		for _, m := range models.Modalities {
			require.True(t, math.IsNaN(rec.Measurements[m.Column]))
		}
		// MALFORMED 状态下绝不触发存储查询
		require.Zero(t, lookup.calls)
	}
}

func TestProcessMissingTimestamp(t *testing.T) {
	lookup := &fakeLastSeenLookup{}
	proc, _ := newTestProcessor(t, lookup)

	raw := []byte(`{"sensor_id":"sensor-1","heart_rate":80,"body_temperature":36.5,"spO2":98,"battery_level":50}`)
	rec, err := proc.Process(context.Background(), raw)
	require.NoError(t, err)

	require.Equal(t, []string{"TS_INV"}, rec.Flags)
	require.Equal(t, models.MinSampleTime, rec.SampleTime)
	// TS_INV 时跳过 impossible 检查，也不查存储
	require.Zero(t, lookup.calls)
}

func TestProcessInvalidPhysiology(t *testing.T) {
	lookup := &fakeLastSeenLookup{}
	proc, _ := newTestProcessor(t, lookup)

	rec, err := proc.Process(context.Background(), validPacket(t, map[string]interface{}{"heart_rate": 1000}))
	require.NoError(t, err)

	require.Equal(t, []string{"hr_INV"}, rec.Flags)
	// 超范围的值保留给调用方诊断
	require.Equal(t, 1000.0, rec.Measurements["hr"])
}

func TestProcessNaNMeasurement(t *testing.T) {
	lookup := &fakeLastSeenLookup{}
	proc, _ := newTestProcessor(t, lookup)

	rec, err := proc.Process(context.Background(), validPacket(t, map[string]interface{}{"spO2": nil}))
	require.NoError(t, err)

	require.Equal(t, []string{"SpO2_NAN"}, rec.Flags)
	require.True(t, math.IsNaN(rec.Measurements["SpO2"]))
}

func TestProcessFutureTimestamp(t *testing.T) {
	lookup := &fakeLastSeenLookup{}
	proc, cache := newTestProcessor(t, lookup)

	rec, err := proc.Process(context.Background(), validPacket(t, map[string]interface{}{
		"event_timestamp": testNow.Add(10 * time.Second).Format(time.RFC3339),
	}))
	require.NoError(t, err)

	require.Equal(t, []string{"TS_IMP"}, rec.Flags)
	// impossible 时间戳不推进缓存
	last, cached := cache.Get("sensor-1")
	require.True(t, cached)
	require.True(t, last.IsZero())
}

func TestProcessLastSeenFromStorage(t *testing.T) {
	// 存储里已有 09:59:00 的记录，首个包惰性触发一次查询
	stored := testNow.Add(-time.Minute)
	lookup := &fakeLastSeenLookup{seen: map[string]time.Time{"sensor-1": stored}}
	proc, _ := newTestProcessor(t, lookup)

	// 早于存储 last-seen 的包被标记 TS_IMP
	rec, err := proc.Process(context.Background(), validPacket(t, map[string]interface{}{
		"event_timestamp": stored.Add(-time.Second).Format(time.RFC3339),
	}))
	require.NoError(t, err)
	require.Equal(t, []string{"TS_IMP"}, rec.Flags)
	require.Equal(t, 1, lookup.calls)

	// 第二个包命中缓存，不再查存储
	_, err = proc.Process(context.Background(), validPacket(t, nil))
	require.NoError(t, err)
	require.Equal(t, 1, lookup.calls)
}

func TestProcessTimeRegressionScenario(t *testing.T) {
	// 10:00:00 → 09:59:50（TS_IMP，不推进缓存）→ 09:59:55 仍与 10:00:00 比较
	lookup := &fakeLastSeenLookup{}
	proc, cache := newTestProcessor(t, lookup)

	at := func(s string) []byte {
		return validPacket(t, map[string]interface{}{
			"sensor_id":       "S1",
			"event_timestamp": s,
		})
	}

	rec, err := proc.Process(context.Background(), at("2025-12-31T10:00:00Z"))
	require.NoError(t, err)
	require.Empty(t, rec.Flags)

	rec, err = proc.Process(context.Background(), at("2025-12-31T09:59:50Z"))
	require.NoError(t, err)
	require.Equal(t, []string{"TS_IMP"}, rec.Flags)

	// 缓存仍然是 10:00:00
	last, cached := cache.Get("S1")
	require.True(t, cached)
	require.Equal(t, time.Date(2025, 12, 31, 10, 0, 0, 0, time.UTC), last)

	rec, err = proc.Process(context.Background(), at("2025-12-31T09:59:55Z"))
	require.NoError(t, err)
	require.Equal(t, []string{"TS_IMP"}, rec.Flags)
}

func TestProcessLookupFailureAbortsPacket(t *testing.T) {
	lookup := &fakeLastSeenLookup{err: errors.New("storage unavailable")}
	proc, _ := newTestProcessor(t, lookup)

	_, err := proc.Process(context.Background(), validPacket(t, nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "storage unavailable")
}

func TestProcessFlagOrderDeterministic(t *testing.T) {
	lookup := &fakeLastSeenLookup{}
	proc, _ := newTestProcessor(t, lookup)

	rec, err := proc.Process(context.Background(), validPacket(t, map[string]interface{}{
		"event_timestamp":  "garbage",
		"heart_rate":       -5,
		"body_temperature": nil,
		"battery_level":    "dead",
	}))
	require.NoError(t, err)

	// 时间戳 flag 在前，modality flag 按声明顺序
	require.Equal(t, []string{"TS_INV", "hr_INV", "temp_NAN", "battery_NAN"}, rec.Flags)
}

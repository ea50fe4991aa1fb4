package codec_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anascacais/medical-iot-pipeline/internal/codec"
)

func TestFloatRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 36.5, -1, 350, 1e-9, math.MaxFloat64} {
		decoded, err := codec.DecodeFloat(codec.EncodeFloat(v))
		require.NoError(t, err)
		require.Equal(t, v, decoded)
	}
}

func TestFloatNaNRoundTrip(t *testing.T) {
	// NaN 按位模式编码，不省略
	decoded, err := codec.DecodeFloat(codec.EncodeFloat(math.NaN()))
	require.NoError(t, err)
	require.True(t, math.IsNaN(decoded))
}

func TestFloatBigEndian(t *testing.T) {
	// IEEE-754 double 1.0 的大端表示
	require.Equal(t, []byte{0x3f, 0xf0, 0, 0, 0, 0, 0, 0}, codec.EncodeFloat(1.0))
}

func TestUint64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 1700000000000, math.MaxUint64} {
		decoded, err := codec.DecodeUint64(codec.EncodeUint64(v))
		require.NoError(t, err)
		require.Equal(t, v, decoded)
	}
}

func TestDecodeWrongWidth(t *testing.T) {
	_, err := codec.DecodeFloat([]byte{1, 2, 3})
	require.Error(t, err)
	var codecErr *codec.CodecError
	require.ErrorAs(t, err, &codecErr)
	require.Equal(t, 3, codecErr.Got)

	_, err = codec.DecodeUint64(make([]byte, 9))
	require.ErrorAs(t, err, &codecErr)
}

func TestTimeToMillisTruncates(t *testing.T) {
	// 亚毫秒精度向下截断，不做四舍五入
	ts := time.Date(2026, 1, 1, 0, 0, 0, 999_900, time.UTC) // 0.9999ms
	require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), codec.TimeToMillis(ts))
}

func TestMillisRoundTrip(t *testing.T) {
	ms := int64(1700000000123)
	got := codec.MillisToTime(ms)
	require.Equal(t, ms, codec.TimeToMillis(got))
	require.Equal(t, time.UTC, got.Location())
}

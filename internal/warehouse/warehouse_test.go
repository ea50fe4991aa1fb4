package warehouse_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anascacais/medical-iot-pipeline/internal/models"
	"github.com/anascacais/medical-iot-pipeline/internal/warehouse"
)

func TestResolveFlagCode(t *testing.T) {
	cases := []struct {
		name   string
		column string
		flags  []string
		want   int
	}{
		{"clean", "hr", nil, warehouse.FlagCodeClean},
		{"modality invalid", "hr", []string{"hr_INV"}, warehouse.FlagCodeInvalidValue},
		{"modality nan", "SpO2", []string{"SpO2_NAN"}, warehouse.FlagCodeNaNValue},
		{"other modality flag does not apply", "hr", []string{"SpO2_NAN"}, warehouse.FlagCodeClean},
		// 时间戳级 flag 覆盖所有 modality 行
		{"ts invalid overrides", "hr", []string{"TS_INV", "hr_NAN"}, warehouse.FlagCodeInvalidTS},
		{"ts impossible overrides", "battery", []string{"TS_IMP", "battery_INV"}, warehouse.FlagCodeImpossibleTS},
		{"ts invalid beats impossible", "hr", []string{"TS_INV", "TS_IMP"}, warehouse.FlagCodeInvalidTS},
		{"inv beats nan", "hr", []string{"hr_NAN", "hr_INV"}, warehouse.FlagCodeInvalidValue},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, warehouse.ResolveFlagCode(c.column, c.flags))
		})
	}
}

func TestInsertExpandsPerModality(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	w := warehouse.NewPostgresWarehouse(db, zap.NewNop())

	rec := &models.VitalsRecord{
		SensorID:     "sensor-1",
		IngestTime:   time.UnixMilli(1700000001000).UTC(),
		SampleTime:   time.UnixMilli(1700000000000).UTC(),
		SampleTimeOK: true,
		Measurements: map[string]float64{
			"hr":      70.0,
			"temp":    36.6,
			"SpO2":    math.NaN(), // NaN → NULL
			"battery": 90.0,
		},
		Flags: []string{"SpO2_NAN"},
	}

	mock.ExpectExec(`INSERT INTO vitals_warehouse`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, w.Insert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPropagatesError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	w := warehouse.NewPostgresWarehouse(db, zap.NewNop())

	mock.ExpectExec(`INSERT INTO vitals_warehouse`).
		WillReturnError(sqlmock.ErrCancelled)

	rec := &models.VitalsRecord{
		SensorID:     "sensor-1",
		IngestTime:   time.Now().UTC(),
		SampleTime:   time.Now().UTC(),
		Measurements: map[string]float64{"hr": 70, "temp": 36.6, "SpO2": 98, "battery": 90},
	}
	require.Error(t, w.Insert(context.Background(), rec))
}

package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sankhya-backend-go/internal/models"
)

func series(key string, values ...float64) Series {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := Series{Key: key, State: "Bihar", District: key}
	for i, v := range values {
		s.Points = append(s.Points, models.HistoryPoint{Date: start.AddDate(0, 0, i), Volume: v})
	}
	return s
}

func TestDetect(t *testing.T) {
	got := Detect([]Series{
		series("b/steady", 100, 100, 100, 110),
		series("b/surge", 100, 100, 100, 150),
		series("b/spike", 100, 100, 100, 200),
		series("b/drop", 100, 100, 100, 10),
		series("b/short", 100, 100, 500),
		series("b/zero", 0, 0, 0, 50),
	}, DefaultConfig())

	require.Len(t, got, 3)

	assert.Equal(t, "b/spike", got[0].Key)
	assert.Equal(t, 100.0, got[0].DeviationPct)
	assert.Equal(t, models.AnomalySurge, got[0].Type)
	assert.Equal(t, models.SeverityCritical, got[0].Severity)

	assert.Equal(t, "b/drop", got[1].Key)
	assert.Equal(t, -90.0, got[1].DeviationPct)
	assert.Equal(t, models.AnomalyDrop, got[1].Type)
	assert.Equal(t, models.SeverityCritical, got[1].Severity)

	assert.Equal(t, "b/surge", got[2].Key)
	assert.Equal(t, 50.0, got[2].DeviationPct)
	assert.Equal(t, models.SeverityWarning, got[2].Severity)
	assert.Equal(t, 100.0, got[2].Baseline)
	assert.Equal(t, 150.0, got[2].Latest)
}

func TestDetectWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window = 3
	// Only the three points before the latest count: baseline 100
	got := Detect([]Series{series("b/w", 1000, 1000, 100, 100, 100, 100)}, cfg)
	assert.Empty(t, got)
}

func TestDetectThresholdsExclusive(t *testing.T) {
	got := Detect([]Series{series("b/edge", 100, 100, 100, 140)}, DefaultConfig())
	assert.Empty(t, got)

	got = Detect([]Series{series("b/edge", 100, 100, 100, 180)}, DefaultConfig())
	require.Len(t, got, 1)
	assert.Equal(t, models.SeverityWarning, got[0].Severity)
}

func TestDetectOrderTies(t *testing.T) {
	got := Detect([]Series{
		series("b/z", 100, 100, 100, 200),
		series("b/a", 100, 100, 100, 0),
	}, DefaultConfig())
	require.Len(t, got, 2)
	assert.Equal(t, "b/a", got[0].Key)
	assert.Equal(t, "b/z", got[1].Key)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{MinHistory: 4, Window: 28, WarningPct: 80, CriticalPct: 40}.Validate())
}

package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sankhya-backend-go/internal/models"
)

var district = Entity{Key: "bihar/patna", Scope: models.ScopeDistrict, Label: "Patna"}

func series(values ...float64) []models.HistoryPoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.HistoryPoint, len(values))
	for i, v := range values {
		out[i] = models.HistoryPoint{Date: start.AddDate(0, 0, i), Volume: v}
	}
	return out
}

func repeat(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func assertBands(t *testing.T, s models.ForecastSeries) {
	t.Helper()
	for _, p := range s.Points {
		assert.GreaterOrEqual(t, p.Predicted, 0.0, "offset %d", p.Offset)
		assert.LessOrEqual(t, p.Lower, p.Predicted, "offset %d", p.Offset)
		assert.LessOrEqual(t, p.Predicted, p.Upper, "offset %d", p.Offset)
		assert.GreaterOrEqual(t, p.Lower, 0.0, "offset %d", p.Offset)
	}
}

func TestForecastConstantSeries(t *testing.T) {
	for _, n := range []int{7, 10, 28, 40} {
		got := Forecast(district, series(repeat(50, n)...), DefaultConfig())
		require.Len(t, got.Points, 7)
		assert.False(t, got.Degraded)
		assert.Equal(t, n, got.HistoryLength)
		assert.Zero(t, got.ResidualStdDev)
		for _, p := range got.Points {
			assert.InDelta(t, 50, p.Predicted, 1e-9)
			assert.InDelta(t, 47.5, p.Lower, 1e-9)
			assert.InDelta(t, 52.5, p.Upper, 1e-9)
		}
	}
}

func TestForecastTrend(t *testing.T) {
	var ys []float64
	for i := 0; i < 10; i++ {
		ys = append(ys, 10+2*float64(i))
	}
	got := Forecast(district, series(ys...), DefaultConfig())
	assert.Equal(t, models.ModelLinearTrend, got.Model)
	assert.InDelta(t, 30, got.Points[0].Predicted, 1e-3)
	assert.InDelta(t, 42, got.Points[6].Predicted, 1e-3)
	assertBands(t, got)

	t.Run("noise widens band with distance", func(t *testing.T) {
		noisy := []float64{10, 14, 13, 17, 16, 21, 19, 24, 22, 27}
		got := Forecast(district, series(noisy...), DefaultConfig())
		assert.Greater(t, got.ResidualStdDev, 0.0)
		first, last := got.Points[0], got.Points[6]
		assert.Greater(t, last.Upper-last.Lower, first.Upper-first.Lower)
		assertBands(t, got)
	})
}

func TestForecastClampsToZero(t *testing.T) {
	got := Forecast(district, series(90, 80, 70, 60, 50, 40, 30, 20, 10), DefaultConfig())
	assertBands(t, got)
	assert.Equal(t, 0.0, got.Points[6].Predicted)
	assert.Equal(t, 0.0, got.Points[6].Lower)
}

func TestForecastSeasonal(t *testing.T) {
	var ys []float64
	for i := 0; i < 28; i++ {
		v := 100.0
		if i%7 == 5 || i%7 == 6 {
			v = 70
		}
		ys = append(ys, v)
	}
	got := Forecast(district, series(ys...), DefaultConfig())
	assert.Equal(t, models.ModelLinearTrendSeasonal, got.Model)
	// Offset 1 lands on phase 0, offset 6 on phase 5
	assert.InDelta(t, 100, got.Points[0].Predicted, 1e-3)
	assert.InDelta(t, 70, got.Points[5].Predicted, 1e-3)
	assertBands(t, got)
}

func TestForecastShortSeries(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("flat from last value", func(t *testing.T) {
		got := Forecast(district, series(10, 20), cfg)
		assert.True(t, got.Degraded)
		assert.Equal(t, models.ModelFlat, got.Model)
		assert.Equal(t, 20.0, got.Points[0].Predicted)
		assert.Equal(t, 15.0, got.Points[0].Lower)
		assert.Equal(t, 25.0, got.Points[0].Upper)
		// Band grows with sqrt(offset): 5 * 2 at offset 4
		assert.Equal(t, 10.0, got.Points[3].Lower)
		assert.Equal(t, 30.0, got.Points[3].Upper)
		assert.Contains(t, Warning(got, cfg), InsufficientHistory)
		assert.Contains(t, Warning(got, cfg), "bihar/patna has 2 points")
	})

	t.Run("empty", func(t *testing.T) {
		got := Forecast(district, nil, cfg)
		assert.True(t, got.Degraded)
		require.Len(t, got.Points, 7)
		assert.Equal(t, 0.0, got.Points[0].Predicted)
		assert.Equal(t, 0.0, got.Points[0].Lower)
		assert.Equal(t, 1.0, got.Points[0].Upper)
		assert.Empty(t, got.Points[0].Date)
	})

	t.Run("complete forecasts carry no warning", func(t *testing.T) {
		got := Forecast(district, series(repeat(5, 7)...), cfg)
		assert.Empty(t, Warning(got, cfg))
	})
}

func TestForecastDates(t *testing.T) {
	got := Forecast(district, series(repeat(5, 31)...), DefaultConfig())
	assert.Equal(t, "2024-02-01", got.Points[0].Date)
	assert.Equal(t, "2024-02-07", got.Points[6].Date)
	assert.Equal(t, 1, got.Points[0].Offset)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.95, Confidence(1))
	assert.Equal(t, 0.91, Confidence(2))
	assert.Equal(t, 0.71, Confidence(7))
	assert.Equal(t, 0.67, Confidence(8))
	assert.Equal(t, 0.65, Confidence(9))
	assert.Equal(t, 0.65, Confidence(30))
}

func TestForecastDeterministic(t *testing.T) {
	h := series(3, 9, 4, 12, 8, 15, 7, 11, 19, 6, 14, 13, 21, 9, 17)
	assert.Equal(t, Forecast(district, h, DefaultConfig()), Forecast(district, h, DefaultConfig()))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Horizon = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Window = 5
	assert.Error(t, cfg.Validate())
}

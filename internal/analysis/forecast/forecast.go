// Package forecast projects a volume series a few periods ahead with an
// ordinary least squares trend, optional additive weekly seasonality and a
// prediction band derived from the fit's residuals.
package forecast

import (
	"fmt"
	"math"

	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/stats"
)

// InsufficientHistory prefixes the warning recorded for degraded forecasts
const InsufficientHistory = "insufficient_history"

const dateLayout = "2006-01-02"

// Config controls the projection
type Config struct {
	Horizon      int     // Future offsets produced
	Window       int     // Trailing points used for the fit
	MinWindow    int     // Fewer points fall back to a flat projection
	SeasonPeriod int     // Seasonal indices need two full periods in the window
	Z            float64 // Band width in residual standard errors
	MinBandRatio float64 // Band floor as a share of the prediction

	FlatBandRatio float64 // Flat band as a share of the last value
	FlatBandFloor float64 // Minimum flat band per sqrt(offset)
}

// DefaultConfig projects 7 days from the last 28
func DefaultConfig() Config {
	return Config{
		Horizon:       7,
		Window:        28,
		MinWindow:     7,
		SeasonPeriod:  7,
		Z:             1.96,
		MinBandRatio:  0.05,
		FlatBandRatio: 0.25,
		FlatBandFloor: 1,
	}
}

// Validate rejects horizons and windows the model cannot honor
func (c Config) Validate() error {
	if c.Horizon < 1 || c.Horizon > 90 {
		return fmt.Errorf("invalid forecast horizon %d: must be within [1, 90]", c.Horizon)
	}
	if c.MinWindow < 3 {
		return fmt.Errorf("invalid forecast min window %d: must be at least 3", c.MinWindow)
	}
	if c.Window < c.MinWindow {
		return fmt.Errorf("invalid forecast window %d: must be at least min window %d", c.Window, c.MinWindow)
	}
	if c.SeasonPeriod < 0 {
		return fmt.Errorf("invalid season period %d", c.SeasonPeriod)
	}
	if c.Z < 0 || c.MinBandRatio < 0 || c.FlatBandRatio < 0 || c.FlatBandFloor < 0 {
		return fmt.Errorf("invalid forecast band parameters: must be non-negative")
	}
	return nil
}

// Entity identifies what a series belongs to
type Entity struct {
	Key   string
	Scope string
	Label string
}

// Forecast projects history (oldest first) cfg.Horizon periods ahead
func Forecast(entity Entity, history []models.HistoryPoint, cfg Config) models.ForecastSeries {
	series := models.ForecastSeries{
		Entity:        entity.Key,
		Scope:         entity.Scope,
		Label:         entity.Label,
		HistoryLength: len(history),
	}

	window := history
	if len(window) > cfg.Window {
		window = window[len(window)-cfg.Window:]
	}
	ys := make([]float64, len(window))
	for i, p := range window {
		ys[i] = p.Volume
	}

	var predict func(offset int) (float64, float64)
	if len(ys) < cfg.MinWindow {
		series.Model = models.ModelFlat
		series.Degraded = true
		predict = flat(ys, cfg)
	} else {
		predict, series.Model, series.ResidualStdDev = trend(ys, cfg)
	}

	var last string
	if len(history) > 0 {
		last = history[len(history)-1].Date.Format(dateLayout)
	}

	series.Points = make([]models.ForecastPoint, cfg.Horizon)
	for k := 1; k <= cfg.Horizon; k++ {
		predicted, band := predict(k)
		predicted = math.Max(0, predicted)
		point := models.ForecastPoint{
			Offset:     k,
			Predicted:  stats.Quantize(predicted),
			Lower:      stats.Quantize(math.Max(0, predicted-band)),
			Upper:      stats.Quantize(predicted + band),
			Confidence: Confidence(k),
		}
		if last != "" {
			point.Date = history[len(history)-1].Date.AddDate(0, 0, k).Format(dateLayout)
		}
		series.Points[k-1] = point
	}

	return series
}

// Confidence decays 4 points per offset from 0.95 down to 0.65
func Confidence(offset int) float64 {
	return stats.Round(math.Max(0.65, 0.95-0.04*float64(offset-1)), 2)
}

// Warning describes a degraded forecast, empty when the forecast is complete
func Warning(s models.ForecastSeries, cfg Config) string {
	if !s.Degraded {
		return ""
	}
	return fmt.Sprintf("%s: %s has %d points, need %d", InsufficientHistory, s.Entity, s.HistoryLength, cfg.MinWindow)
}

// flat repeats the last value with a band widening with sqrt(offset)
func flat(ys []float64, cfg Config) func(int) (float64, float64) {
	var last float64
	if len(ys) > 0 {
		last = ys[len(ys)-1]
	}
	base := math.Max(math.Abs(last)*cfg.FlatBandRatio, cfg.FlatBandFloor)
	return func(offset int) (float64, float64) {
		return last, base * math.Sqrt(float64(offset))
	}
}

// trend fits a line, or a line with one intercept per seasonal phase when
// the window holds two full periods
func trend(ys []float64, cfg Config) (func(int) (float64, float64), string, float64) {
	n := len(ys)
	fit := stats.FitLine(ys)
	model := models.ModelLinearTrend
	s := fit.ResidualStdErr()

	period := cfg.SeasonPeriod
	slope := fit.Slope
	var intercepts []float64
	if period > 1 && n >= 2*period {
		model = models.ModelLinearTrendSeasonal
		var sse float64
		slope, intercepts, sse = fitSeasonal(ys, period)
		// One slope plus one intercept per phase
		s = math.Sqrt(sse / float64(n-1-period))
	}

	predict := func(offset int) (float64, float64) {
		x := float64(n - 1 + offset)
		p := fit.Predict(x)
		if intercepts != nil {
			p = intercepts[(n-1+offset)%period] + slope*x
		}
		band := cfg.Z * fit.PredictionStdErr(x, s)
		band = math.Max(band, cfg.MinBandRatio*math.Abs(p))
		return p, band
	}
	return predict, model, stats.Quantize(s)
}

// fitSeasonal fits y = c[i mod period] + b*i by least squares. The slope
// comes from deviations around each phase's means, so a stable weekly
// pattern does not leak into the trend.
func fitSeasonal(ys []float64, period int) (float64, []float64, float64) {
	meanX := make([]float64, period)
	meanY := make([]float64, period)
	counts := make([]int, period)
	for i, y := range ys {
		meanX[i%period] += float64(i)
		meanY[i%period] += y
		counts[i%period]++
	}
	for p := range counts {
		if counts[p] > 0 {
			meanX[p] /= float64(counts[p])
			meanY[p] /= float64(counts[p])
		}
	}

	var sxx, sxy float64
	for i, y := range ys {
		dx := float64(i) - meanX[i%period]
		sxx += dx * dx
		sxy += dx * (y - meanY[i%period])
	}
	var slope float64
	if sxx > 0 {
		slope = sxy / sxx
	}

	intercepts := make([]float64, period)
	for p := range intercepts {
		intercepts[p] = meanY[p] - slope*meanX[p]
	}

	var sse float64
	for i, y := range ys {
		r := y - intercepts[i%period] - slope*float64(i)
		sse += r * r
	}
	return slope, intercepts, sse
}

package models

// Forecast scopes
const (
	ScopeDistrict = "district"
	ScopeState    = "state"
	ScopeNational = "national"
)

// Forecast model names
const (
	ModelFlat                = "flat"
	ModelLinearTrend         = "linear_trend"
	ModelLinearTrendSeasonal = "linear_trend_seasonal"
)

// ForecastSeries is a short-horizon projection for a district or aggregate
type ForecastSeries struct {
	Entity string `json:"entity"` // District key, "state/{slug}" or "national"
	Scope  string `json:"scope"`
	Label  string `json:"label"`

	// Model
	Model          string  `json:"model"`
	Degraded       bool    `json:"degraded"` // Too little history, flat projection
	HistoryLength  int     `json:"history_length"`
	ResidualStdDev float64 `json:"residual_std_dev"`

	Points []ForecastPoint `json:"points"`
}

// ForecastPoint is one future offset of a forecast
type ForecastPoint struct {
	Offset     int     `json:"offset"` // Days after the last observation
	Date       string  `json:"date,omitempty"`
	Predicted  float64 `json:"predicted"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Confidence float64 `json:"confidence"` // 0~1
}

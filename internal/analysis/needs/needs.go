// Package needs sizes the extra centers a state requires to absorb its
// forecast peak demand.
package needs

import (
	"fmt"
	"math"
	"sort"

	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/stats"
)

// Config holds the sizing parameters
type Config struct {
	HighRatio      float64 // Peak over capacity at or above this is high priority
	CenterCapacity float64 // Daily capacity assumed for a new center when a state has none
}

// DefaultConfig returns a 1.5 high priority ratio and 200 transactions per center
func DefaultConfig() Config {
	return Config{
		HighRatio:      1.5,
		CenterCapacity: 200,
	}
}

// Validate rejects non-positive parameters
func (c Config) Validate() error {
	if !(c.HighRatio > 1) || math.IsInf(c.HighRatio, 0) {
		return fmt.Errorf("invalid needs high ratio %v: must be a finite value above 1", c.HighRatio)
	}
	if !(c.CenterCapacity > 0) || math.IsInf(c.CenterCapacity, 0) {
		return fmt.Errorf("invalid needs center capacity %v: must be positive", c.CenterCapacity)
	}
	return nil
}

// Assess returns one need per state whose forecast peak exceeds its rated
// capacity, ordered by shortfall desc then state. States without a forecast
// are skipped.
func Assess(states []models.Summary, forecasts []models.ForecastSeries, cfg Config) []models.CapacityNeed {
	byEntity := make(map[string]models.ForecastSeries, len(forecasts))
	for _, f := range forecasts {
		if f.Scope == models.ScopeState {
			byEntity[f.Entity] = f
		}
	}

	out := []models.CapacityNeed{}
	for _, st := range states {
		series, ok := byEntity[models.StateKey(st.Scope)]
		if !ok || len(series.Points) == 0 {
			continue
		}
		peak := series.Points[0]
		for _, p := range series.Points[1:] {
			if p.Predicted > peak.Predicted {
				peak = p
			}
		}
		if peak.Predicted <= st.TotalCapacity {
			continue
		}

		perCenter := cfg.CenterCapacity
		if st.Centers > 0 && st.TotalCapacity > 0 {
			perCenter = st.TotalCapacity / float64(st.Centers)
		}
		shortfall := peak.Predicted - st.TotalCapacity

		priority := models.PriorityMedium
		if peak.Predicted >= st.TotalCapacity*cfg.HighRatio {
			priority = models.PriorityHigh
		}

		out = append(out, models.CapacityNeed{
			State:                   st.Scope,
			Label:                   st.Label,
			PeakDemand:              stats.Quantize(peak.Predicted),
			PeakDate:                peak.Date,
			CurrentCapacity:         st.TotalCapacity,
			CurrentCenters:          st.Centers,
			Shortfall:               stats.Quantize(shortfall),
			CapacityPerCenter:       stats.Quantize(perCenter),
			AdditionalCentersNeeded: int(math.Ceil(shortfall / perCenter)),
			Priority:                priority,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Shortfall != out[j].Shortfall {
			return out[i].Shortfall > out[j].Shortfall
		}
		return out[i].State < out[j].State
	})
	return out
}

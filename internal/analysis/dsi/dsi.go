// Package dsi computes the Demand Stress Index of a district:
//
//	DSI = (V × Wa + S × Ws) / C + R
//
// V is daily transaction volume, S the senior population ratio, C the summed
// rated capacity of the district's centers and R the biometric error rate.
package dsi

import (
	"fmt"
	"math"

	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/stats"
)

// Formula is the human readable form of the score
const Formula = "DSI = (V × Wa + S × Ws) / C + R"

// Score bounds
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Weights are the multipliers of the volume and senior terms
type Weights struct {
	Volume float64 `json:"volume"` // Wa
	Senior float64 `json:"senior"` // Ws
}

// DefaultWeights returns Wa = 0.4, Ws = 0.3
func DefaultWeights() Weights {
	return Weights{Volume: 0.4, Senior: 0.3}
}

// Validate rejects negative or non-finite weights
func (w Weights) Validate() error {
	if !(w.Volume >= 0 && w.Senior >= 0) || math.IsInf(w.Volume, 0) || math.IsInf(w.Senior, 0) {
		return fmt.Errorf("invalid DSI weights: volume=%v senior=%v must be non-negative", w.Volume, w.Senior)
	}
	return nil
}

// Score computes the DSI of one district given its total center capacity.
// A district without capacity is unserved and scores the maximum.
func Score(rec models.DistrictRecord, w Weights, capacity float64) models.DSIScore {
	factors := models.DSIFactors{
		VolumeTerm:      stats.Quantize(rec.DailyVolume() * w.Volume),
		SeniorTerm:      stats.Quantize(rec.SeniorRatio() * w.Senior),
		CapacityDivisor: stats.Quantize(capacity),
		ErrorAddend:     stats.Quantize(rec.ErrorRate()),
	}

	if capacity <= 0 {
		return models.DSIScore{
			Score:    MaxScore,
			Tier:     models.TierCritical,
			Unserved: true,
			Factors:  factors,
		}
	}

	raw := (rec.DailyVolume()*w.Volume+rec.SeniorRatio()*w.Senior)/capacity + rec.ErrorRate()
	factors.Raw = stats.Quantize(raw)

	// Tier is assigned from the published value so the two never disagree
	score := stats.Quantize(stats.Clamp(raw, MinScore, MaxScore))
	return models.DSIScore{
		Score:   score,
		Tier:    models.TierFor(score),
		Factors: factors,
	}
}

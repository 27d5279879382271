// Package anomaly flags districts whose latest period deviates sharply from
// their trailing baseline.
package anomaly

import (
	"fmt"
	"math"
	"sort"

	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/stats"
)

// Config holds the detection thresholds
type Config struct {
	MinHistory  int     // Series shorter than this are skipped
	Window      int     // Points before the latest one that form the baseline
	WarningPct  float64 // |deviation| above this is an anomaly
	CriticalPct float64 // |deviation| above this is critical
}

// DefaultConfig flags ±40% as warning and ±80% as critical
func DefaultConfig() Config {
	return Config{
		MinHistory:  4,
		Window:      28,
		WarningPct:  40,
		CriticalPct: 80,
	}
}

// Validate checks the thresholds are ordered
func (c Config) Validate() error {
	if c.MinHistory < 2 {
		return fmt.Errorf("invalid anomaly min history %d: must be at least 2", c.MinHistory)
	}
	if c.Window < 1 {
		return fmt.Errorf("invalid anomaly window %d: must be positive", c.Window)
	}
	if c.WarningPct <= 0 || c.CriticalPct < c.WarningPct {
		return fmt.Errorf("invalid anomaly thresholds: warning %v, critical %v", c.WarningPct, c.CriticalPct)
	}
	return nil
}

// Series is the volume history of one district
type Series struct {
	Key      string
	State    string
	District string
	Points   []models.HistoryPoint
}

// Detect returns anomalies sorted by |deviation| desc, then key
func Detect(series []Series, cfg Config) []models.Anomaly {
	out := []models.Anomaly{}
	for _, s := range series {
		n := len(s.Points)
		if n < cfg.MinHistory {
			continue
		}

		start := max(0, n-1-cfg.Window)
		prior := make([]float64, 0, n-1-start)
		for _, p := range s.Points[start : n-1] {
			prior = append(prior, p.Volume)
		}
		baseline := stats.Mean(prior)
		if baseline == 0 {
			continue
		}

		latest := s.Points[n-1].Volume
		deviation := (latest - baseline) / baseline * 100
		if math.Abs(deviation) <= cfg.WarningPct {
			continue
		}

		a := models.Anomaly{
			Key:          s.Key,
			State:        s.State,
			District:     s.District,
			Latest:       stats.Quantize(latest),
			Baseline:     stats.Quantize(baseline),
			DeviationPct: stats.Quantize(deviation),
			Type:         models.AnomalySurge,
			Severity:     models.SeverityWarning,
		}
		if deviation < 0 {
			a.Type = models.AnomalyDrop
		}
		if math.Abs(deviation) > cfg.CriticalPct {
			a.Severity = models.SeverityCritical
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		di, dj := math.Abs(out[i].DeviationPct), math.Abs(out[j].DeviationPct)
		if di != dj {
			return di > dj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

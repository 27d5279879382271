// Package zones tags districts as Blue Zones or Digital Exclusion Zones and
// classifies center load. Classification is two-phase: ComputeThresholds
// resolves cutoffs over the whole dataset, then Classify is applied per record.
package zones

import (
	"fmt"

	"github.com/jengzang/sankhya-backend-go/internal/analysis/dsi"
	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/stats"
)

// Mode selects how a zone cutoff is interpreted
type Mode string

// Threshold modes
const (
	ModePercentile Mode = "percentile" // Cutoff is a percentile (0-100) of the districts' ratios
	ModeFixed      Mode = "fixed"      // Cutoff is the ratio itself
)

// Default cutoffs per mode
const (
	DefaultBlueZonePercentile = 80.0
	DefaultBlueZoneRatio      = 0.15
	DefaultDEZPercentile      = 20.0
	DefaultDEZRatio           = 0.01
)

// Config controls zone and center classification
type Config struct {
	BlueZoneMode   Mode
	BlueZoneCutoff float64
	DEZMode        Mode
	DEZCutoff      float64

	// Centers at or below this utilization are dead
	DeadUtilization float64
}

// DefaultConfig flags the top 20% senior ratios and the bottom 20% activity
func DefaultConfig() Config {
	return Config{
		BlueZoneMode:   ModePercentile,
		BlueZoneCutoff: DefaultBlueZonePercentile,
		DEZMode:        ModePercentile,
		DEZCutoff:      DefaultDEZPercentile,
	}
}

// DefaultCutoff returns the default cutoff of a zone kind in a mode
func DefaultCutoff(blueZone bool, mode Mode) float64 {
	switch {
	case blueZone && mode == ModeFixed:
		return DefaultBlueZoneRatio
	case blueZone:
		return DefaultBlueZonePercentile
	case mode == ModeFixed:
		return DefaultDEZRatio
	default:
		return DefaultDEZPercentile
	}
}

// Validate checks modes and cutoff ranges
func (c Config) Validate() error {
	if err := validateCutoff("blue zone", c.BlueZoneMode, c.BlueZoneCutoff); err != nil {
		return err
	}
	if err := validateCutoff("DEZ", c.DEZMode, c.DEZCutoff); err != nil {
		return err
	}
	if c.DeadUtilization < 0 {
		return fmt.Errorf("invalid dead utilization %v: must be non-negative", c.DeadUtilization)
	}
	return nil
}

func validateCutoff(kind string, mode Mode, cutoff float64) error {
	switch mode {
	case ModePercentile:
		if cutoff < 0 || cutoff > 100 {
			return fmt.Errorf("invalid %s percentile %v: must be within [0, 100]", kind, cutoff)
		}
	case ModeFixed:
		if cutoff < 0 {
			return fmt.Errorf("invalid %s cutoff %v: must be non-negative", kind, cutoff)
		}
	default:
		return fmt.Errorf("invalid %s mode %q", kind, mode)
	}
	return nil
}

// Thresholds are the resolved ratio cutoffs of one dataset
type Thresholds struct {
	BlueZone float64 // Senior ratio at or above which a district is a Blue Zone
	DEZ      float64 // Activity per capita at or below which a district is a DEZ
}

// ComputeThresholds is the statistics pass. Districts without population
// take no part in percentile resolution.
func ComputeThresholds(records []models.DistrictRecord, cfg Config) Thresholds {
	var seniorRatios, activity []float64
	for _, rec := range records {
		if rec.Population <= 0 {
			continue
		}
		seniorRatios = append(seniorRatios, rec.SeniorRatio())
		activity = append(activity, rec.ActivityPerCapita())
	}

	return Thresholds{
		BlueZone: resolve(cfg.BlueZoneMode, cfg.BlueZoneCutoff, seniorRatios),
		DEZ:      resolve(cfg.DEZMode, cfg.DEZCutoff, activity),
	}
}

func resolve(mode Mode, cutoff float64, values []float64) float64 {
	if mode == ModeFixed {
		return cutoff
	}
	return stats.Percentile(values, cutoff)
}

// Classify is the per-record pass. Comparisons are inclusive on both zones.
func Classify(rec models.DistrictRecord, th Thresholds) models.ZoneFlag {
	flag := models.ZoneFlag{
		SeniorRatio:       stats.Quantize(rec.SeniorRatio()),
		BlueZoneThreshold: stats.Quantize(th.BlueZone),
		ActivityPerCapita: stats.Quantize(rec.ActivityPerCapita()),
		DEZThreshold:      stats.Quantize(th.DEZ),
	}
	if rec.Population <= 0 {
		return flag
	}

	flag.IsBlueZone = rec.SeniorRatio() >= th.BlueZone
	flag.IsDigitalExclusionZone = rec.ActivityPerCapita() <= th.DEZ
	return flag
}

// ClassifyCenter derives the load index and tier of a center.
// A center with no rated capacity is treated as fully loaded.
func ClassifyCenter(c models.CenterRecord, cfg Config) models.CenterStatus {
	status := models.CenterStatus{
		Dead: c.Utilization <= cfg.DeadUtilization,
	}

	load := dsi.MaxScore
	if c.RatedCapacity > 0 {
		status.UtilizationPct = stats.Quantize(c.UtilizationRatio() * 100)
		load = stats.Clamp(10*c.UtilizationRatio(), dsi.MinScore, dsi.MaxScore)
	}
	status.LoadIndex = stats.Quantize(load)
	status.Tier = models.TierFor(status.LoadIndex)
	return status
}

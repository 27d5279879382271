package models

// Tier is the stress classification of a district or center
type Tier string

// Tier constants
const (
	TierLow      Tier = "low"
	TierMedium   Tier = "medium"
	TierCritical Tier = "critical"
)

// Tier boundaries on the 0-10 DSI scale
const (
	MediumTierFloor   = 3.3
	CriticalTierFloor = 6.6
)

// Rank orders tiers from least to most stressed
func (t Tier) Rank() int {
	switch t {
	case TierLow:
		return 0
	case TierMedium:
		return 1
	case TierCritical:
		return 2
	}
	return -1
}

// ParseTier parses a tier name, empty means low
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case "", TierLow:
		return TierLow, true
	case TierMedium:
		return TierMedium, true
	case TierCritical:
		return TierCritical, true
	}
	return "", false
}

// TierFor assigns the tier of a score
func TierFor(score float64) Tier {
	if score >= CriticalTierFloor {
		return TierCritical
	}
	if score >= MediumTierFloor {
		return TierMedium
	}
	return TierLow
}

// DSIScore is the Demand Stress Index of one district
type DSIScore struct {
	Score    float64    `json:"score"` // 0~10
	Tier     Tier       `json:"tier"`
	Unserved bool       `json:"unserved"` // No capacity, score forced to 10
	Factors  DSIFactors `json:"factors"`
}

// DSIFactors breaks a score down into the terms of (V*Wa + S*Ws) / C + R
type DSIFactors struct {
	VolumeTerm      float64 `json:"volume_term"`
	SeniorTerm      float64 `json:"senior_term"`
	CapacityDivisor float64 `json:"capacity_divisor"`
	ErrorAddend     float64 `json:"error_addend"`
	Raw             float64 `json:"raw"`
}

// ZoneFlag holds the special-category tags of a district
type ZoneFlag struct {
	IsBlueZone        bool    `json:"is_blue_zone"`
	SeniorRatio       float64 `json:"senior_ratio"`
	BlueZoneThreshold float64 `json:"blue_zone_threshold"`

	IsDigitalExclusionZone bool    `json:"is_digital_exclusion_zone"`
	ActivityPerCapita      float64 `json:"activity_per_capita"`
	DEZThreshold           float64 `json:"dez_threshold"`
}

// CenterStatus is the derived load classification of a center
type CenterStatus struct {
	UtilizationPct float64 `json:"utilization_pct"`
	LoadIndex      float64 `json:"load_index"` // 0~10
	Tier           Tier    `json:"tier"`
	Dead           bool    `json:"dead"`
}

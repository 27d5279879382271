package models

// Summary is a state or national rollup of the derived metrics
type Summary struct {
	Scope string `json:"scope"` // "national" or state slug
	Label string `json:"label"`

	// Districts
	Districts             int     `json:"districts"`
	MeanDSI               float64 `json:"mean_dsi"`
	CriticalDistricts     int     `json:"critical_districts"`
	MediumDistricts       int     `json:"medium_districts"`
	LowDistricts          int     `json:"low_districts"`
	StressedDistricts     int     `json:"stressed_districts"` // medium + critical
	BlueZones             int     `json:"blue_zones"`
	DigitalExclusionZones int     `json:"digital_exclusion_zones"`

	// Centers
	Centers          int     `json:"centers"`
	DeadCenters      int     `json:"dead_centers"`
	TotalCapacity    float64 `json:"total_capacity"`
	TotalUtilization float64 `json:"total_utilization"`
	AssetEfficiency  float64 `json:"asset_efficiency"` // Percent

	// Population
	Population        int64 `json:"population"`
	SeniorPopulation  int64 `json:"senior_population"`
	TransactionVolume int64 `json:"transaction_volume"`
}

// Recommendation priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

// ReallocationRecommendation suggests moving kits between two centers
type ReallocationRecommendation struct {
	FromCenterID string `json:"from_center_id"`
	FromName     string `json:"from_name"`
	FromState    string `json:"from_state"`
	ToCenterID   string `json:"to_center_id"`
	ToName       string `json:"to_name"`
	ToState      string `json:"to_state"`

	Units int `json:"units"`

	// Utilization percentages
	FromUtilization      float64 `json:"from_utilization"`
	ToUtilization        float64 `json:"to_utilization"`
	FromUtilizationAfter float64 `json:"from_utilization_after"`
	ToUtilizationAfter   float64 `json:"to_utilization_after"`

	DistanceKm float64 `json:"distance_km"`
	Priority   string  `json:"priority"`
}

// CapacityNeed is a state whose forecast peak exceeds its rated capacity
type CapacityNeed struct {
	State string `json:"state"` // Slug
	Label string `json:"label"`

	PeakDemand      float64 `json:"peak_demand"`
	PeakDate        string  `json:"peak_date,omitempty"`
	CurrentCapacity float64 `json:"current_capacity"`
	CurrentCenters  int     `json:"current_centers"`
	Shortfall       float64 `json:"shortfall"`

	CapacityPerCenter       float64 `json:"capacity_per_center"`
	AdditionalCentersNeeded int     `json:"additional_centers_needed"`
	Priority                string  `json:"priority"`
}

// Anomaly types and severities
const (
	AnomalySurge     = "surge"
	AnomalyDrop      = "drop"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Anomaly flags a district whose latest period deviates from its baseline
type Anomaly struct {
	Key          string  `json:"key"`
	State        string  `json:"state"`
	District     string  `json:"district"`
	Latest       float64 `json:"latest"`
	Baseline     float64 `json:"baseline"`
	DeviationPct float64 `json:"deviation_pct"`
	Type         string  `json:"type"`
	Severity     string  `json:"severity"`
}

// StressedDistrict is one row of the stressed district ranking
type StressedDistrict struct {
	Rank int `json:"rank"`
	DistrictEntry
}

// Zone kinds
const (
	ZoneBlue = "blue"
	ZoneDEZ  = "dez"
)

package models

// ArtifactSchemaVersion is bumped whenever a published field changes meaning
const ArtifactSchemaVersion = 2

// Artifact is the record-oriented document produced by one regeneration.
// It carries no timestamps or run ids so identical inputs encode identically.
type Artifact struct {
	SchemaVersion int        `json:"schema_version"`
	InputDigest   string     `json:"input_digest"`
	Parameters    Parameters `json:"parameters"`

	Districts []DistrictEntry  `json:"districts"`
	Centers   []CenterEntry    `json:"centers"`
	Forecasts []ForecastSeries `json:"forecasts"`

	National Summary   `json:"national"`
	States   []Summary `json:"states"`

	Recommendations []ReallocationRecommendation `json:"recommendations"`
	Needs           []CapacityNeed               `json:"needs"`
	Anomalies       []Anomaly                    `json:"anomalies"`
	Warnings        []string                     `json:"warnings"`
}

// DistrictEntry is the published view of one district
type DistrictEntry struct {
	Key          string `json:"key"`
	State        string `json:"state"`
	District     string `json:"district"`
	PincodeGroup string `json:"pincode_group,omitempty"`

	Population        int64   `json:"population"`
	SeniorPopulation  int64   `json:"senior_population"`
	TransactionVolume int64   `json:"transaction_volume"`
	Capacity          float64 `json:"capacity"`
	Centers           int     `json:"centers"`

	DSI   DSIScore `json:"dsi"`
	Zones ZoneFlag `json:"zones"`
}

// CenterEntry is the published view of one center
type CenterEntry struct {
	CenterRecord
	Status CenterStatus `json:"status"`
}

// Parameters records the weights and resolved thresholds a snapshot used
type Parameters struct {
	WeightVolume float64 `json:"weight_volume"`
	WeightSenior float64 `json:"weight_senior"`

	BlueZoneMode      string  `json:"blue_zone_mode"` // fixed or percentile
	BlueZoneCutoff    float64 `json:"blue_zone_cutoff"`
	BlueZoneThreshold float64 `json:"blue_zone_threshold"`
	DEZMode           string  `json:"dez_mode"`
	DEZCutoff         float64 `json:"dez_cutoff"`
	DEZThreshold      float64 `json:"dez_threshold"`

	ForecastHorizon int `json:"forecast_horizon"`
	ForecastWindow  int `json:"forecast_window"`

	LowUtilization    float64 `json:"low_utilization"`
	HighUtilization   float64 `json:"high_utilization"`
	TargetUtilization float64 `json:"target_utilization"`
}

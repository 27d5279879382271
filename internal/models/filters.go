package models

// StressedFilter represents query parameters for the stressed district list
type StressedFilter struct {
	Limit   int    `form:"limit"`   // Max results, default 20
	MinTier string `form:"minTier"` // low, medium, critical
}

// ZoneFilter represents query parameters for zone listings
type ZoneFilter struct {
	Type string `form:"type"` // blue, dez
}

// CenterFilter represents query parameters for center listings
type CenterFilter struct {
	Dead  bool   `form:"dead"`
	State string `form:"state"` // State slug
}

// LimitFilter is a plain result cap
type LimitFilter struct {
	Limit int `form:"limit"`
}

// NeedsFilter represents query parameters for the capacity needs list
type NeedsFilter struct {
	Limit    int    `form:"limit"`
	Priority string `form:"priority"` // high or medium
}

// RunFilter represents query parameters for regeneration history
type RunFilter struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

package models

import (
	"strings"
	"time"
	"unicode"
)

// NationalKey is the entity key of the country-wide aggregate
const NationalKey = "national"

// DistrictRecord represents one district's raw figures for a snapshot period
type DistrictRecord struct {
	Key string `json:"key"` // Format: "{state-slug}/{district-slug}"

	// Identification
	State        string `json:"state"`
	District     string `json:"district"`
	PincodeGroup string `json:"pincode_group,omitempty"`

	// Demographics
	Population       int64 `json:"population"`
	SeniorPopulation int64 `json:"senior_population"`

	// Activity (period-bounded)
	TransactionVolume int64 `json:"transaction_volume"`
	PeriodDays        int   `json:"period_days"`
	ErrorCount        int64 `json:"error_count"`
	EnrollmentCount   int64 `json:"enrollment_count"`
}

// SeniorRatio returns seniors / population, 0 for an empty district
func (r DistrictRecord) SeniorRatio() float64 {
	if r.Population <= 0 {
		return 0
	}
	return float64(r.SeniorPopulation) / float64(r.Population)
}

// DailyVolume returns the transaction volume normalized to one day
func (r DistrictRecord) DailyVolume() float64 {
	days := r.PeriodDays
	if days <= 0 {
		days = 1
	}
	return float64(r.TransactionVolume) / float64(days)
}

// ErrorRate returns errors / volume, 0 when there was no volume
func (r DistrictRecord) ErrorRate() float64 {
	if r.TransactionVolume <= 0 {
		return 0
	}
	return float64(r.ErrorCount) / float64(r.TransactionVolume)
}

// ActivityPerCapita returns (volume + enrollments) / population
func (r DistrictRecord) ActivityPerCapita() float64 {
	if r.Population <= 0 {
		return 0
	}
	return float64(r.TransactionVolume+r.EnrollmentCount) / float64(r.Population)
}

// CenterRecord represents a service center with its kits
type CenterRecord struct {
	ID       string `json:"center_id"`
	Name     string `json:"name"`
	State    string `json:"state"`
	District string `json:"district"`
	Key      string `json:"district_key"`

	// Location
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`

	// Capacity (transactions per day)
	RatedCapacity float64 `json:"rated_capacity"`
	DeviceCount   int     `json:"device_count"`
	Utilization   float64 `json:"utilization"`
}

// UtilizationRatio returns utilization / capacity, 0 when capacity is unknown
func (c CenterRecord) UtilizationRatio() float64 {
	if c.RatedCapacity <= 0 {
		return 0
	}
	return c.Utilization / c.RatedCapacity
}

// HistoryPoint is one period total of a volume series
type HistoryPoint struct {
	Date   time.Time `json:"date"`
	Volume float64   `json:"volume"`
}

// Slug normalizes a state or district name into a URL-safe key segment
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// DistrictKey builds the lookup key for a district
func DistrictKey(state, district string) string {
	return Slug(state) + "/" + Slug(district)
}

// StateKey builds the entity key of a state aggregate
func StateKey(state string) string {
	return "state/" + Slug(state)
}

package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jengzang/sankhya-backend-go/internal/analysis/dsi"
	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/snapshot"
)

// List limits
const (
	DefaultLimit = 20
	MaxLimit     = 200
)

// SnapshotInfo describes the snapshot currently in service
type SnapshotInfo struct {
	snapshot.Meta
	SchemaVersion   int               `json:"schema_version"`
	Districts       int               `json:"districts"`
	Centers         int               `json:"centers"`
	Forecasts       int               `json:"forecasts"`
	Recommendations int               `json:"recommendations"`
	Needs           int               `json:"needs"`
	Anomalies       int               `json:"anomalies"`
	Warnings        []string          `json:"warnings"`
	Parameters      models.Parameters `json:"parameters"`
}

// FormulaInfo explains how scores and tiers are derived
type FormulaInfo struct {
	Formula string      `json:"formula"`
	Weights dsi.Weights `json:"weights"`
	Tiers   []TierRange `json:"tiers"`

	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`

	Parameters *models.Parameters `json:"parameters,omitempty"` // Nil before the first snapshot
}

// TierRange is the half-open score interval [Min, Max) of a tier
type TierRange struct {
	Tier models.Tier `json:"tier"`
	Min  float64     `json:"min"`
	Max  float64     `json:"max"`
}

// DashboardService answers read queries from the published snapshot
type DashboardService struct {
	store   *snapshot.Store
	weights dsi.Weights
	cache   *cache.Cache
}

// NewDashboardService creates a new dashboard service. List results are
// cached for ttl per snapshot version.
func NewDashboardService(store *snapshot.Store, weights dsi.Weights, ttl time.Duration) *DashboardService {
	return &DashboardService{
		store:   store,
		weights: weights,
		cache:   cache.New(ttl, 2*ttl),
	}
}

func (s *DashboardService) current() (*snapshot.Snapshot, error) {
	snap := s.store.Current()
	if snap == nil {
		return nil, ErrSnapshotUnavailable
	}
	return snap, nil
}

// cached memoizes build under key for the given snapshot version. Cached
// values are shared between callers and must not be mutated.
func (s *DashboardService) cached(snap *snapshot.Snapshot, key string, build func() interface{}) interface{} {
	k := fmt.Sprintf("v%d:%s", snap.Meta.Version, key)
	if v, ok := s.cache.Get(k); ok {
		return v
	}
	v := build()
	s.cache.SetDefault(k, v)
	return v
}

func normalizeLimit(limit int) (int, error) {
	if limit < 0 {
		return 0, fmt.Errorf("%w: limit must be non-negative, got %d", ErrInvalidParameter, limit)
	}
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit > MaxLimit {
		return MaxLimit, nil
	}
	return limit, nil
}

// GetScore returns the scored entry of a district
func (s *DashboardService) GetScore(districtKey string) (*models.DistrictEntry, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	entry, ok := snap.District(districtKey)
	if !ok {
		return nil, fmt.Errorf("%w: district %s", ErrNotFound, districtKey)
	}
	return &entry, nil
}

// ListStressedDistricts returns districts at or above minTier ordered by score
// descending, ties by district name then key. An empty minTier means medium.
func (s *DashboardService) ListStressedDistricts(limit int, minTier string) ([]models.StressedDistrict, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	limit, err = normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	tier := models.TierMedium
	if minTier != "" {
		t, ok := models.ParseTier(strings.ToLower(minTier))
		if !ok {
			return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidParameter, minTier)
		}
		tier = t
	}

	ranked := s.cached(snap, "stressed", func() interface{} {
		return rankDistricts(snap.Artifact.Districts)
	}).([]models.StressedDistrict)

	result := make([]models.StressedDistrict, 0, limit)
	for _, d := range ranked {
		if len(result) == limit {
			break
		}
		if d.DSI.Tier.Rank() < tier.Rank() {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

func rankDistricts(districts []models.DistrictEntry) []models.StressedDistrict {
	ranked := make([]models.StressedDistrict, len(districts))
	for i, d := range districts {
		ranked[i] = models.StressedDistrict{DistrictEntry: d}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.DSI.Score != b.DSI.Score {
			return a.DSI.Score > b.DSI.Score
		}
		if a.District != b.District {
			return a.District < b.District
		}
		return a.Key < b.Key
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// GetForecast returns the forecast of a district key, "national" or "state/<slug>"
func (s *DashboardService) GetForecast(entityKey string) (*models.ForecastSeries, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	series, ok := snap.Forecast(entityKey)
	if !ok {
		return nil, fmt.Errorf("%w: forecast %s", ErrNotFound, entityKey)
	}
	return &series, nil
}

// GetSummary returns the national summary or the summary of a state slug
func (s *DashboardService) GetSummary(scope string) (*models.Summary, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	if scope == "" || scope == models.NationalKey {
		national := snap.Artifact.National
		return &national, nil
	}
	summary, ok := snap.State(strings.TrimPrefix(scope, "state/"))
	if !ok {
		return nil, fmt.Errorf("%w: state %s", ErrNotFound, scope)
	}
	return &summary, nil
}

// GetRecommendations returns reallocation recommendations ordered by units descending
func (s *DashboardService) GetRecommendations(limit int) ([]models.ReallocationRecommendation, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	limit, err = normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	recs := snap.Artifact.Recommendations
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// GetNeeds returns the states short of capacity, largest shortfall first.
// A non-empty priority keeps only needs of that priority.
func (s *DashboardService) GetNeeds(limit int, priority string) ([]models.CapacityNeed, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	limit, err = normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	priority = strings.ToLower(priority)
	switch priority {
	case "", models.PriorityHigh, models.PriorityMedium:
	default:
		return nil, fmt.Errorf("%w: priority must be %s or %s, got %q",
			ErrInvalidParameter, models.PriorityHigh, models.PriorityMedium, priority)
	}

	result := make([]models.CapacityNeed, 0, limit)
	for _, n := range snap.Artifact.Needs {
		if len(result) == limit {
			break
		}
		if priority != "" && n.Priority != priority {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

// GetAnomalies returns the flagged anomalies, largest deviation first
func (s *DashboardService) GetAnomalies(limit int) ([]models.Anomaly, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	limit, err = normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	anomalies := snap.Artifact.Anomalies
	if len(anomalies) > limit {
		anomalies = anomalies[:limit]
	}
	return anomalies, nil
}

// ListZones returns the districts tagged with a zone kind, ordered by key
func (s *DashboardService) ListZones(kind string) ([]models.DistrictEntry, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	kind = strings.ToLower(kind)
	if kind != models.ZoneBlue && kind != models.ZoneDEZ {
		return nil, fmt.Errorf("%w: zone type must be %s or %s, got %q",
			ErrInvalidParameter, models.ZoneBlue, models.ZoneDEZ, kind)
	}

	return s.cached(snap, "zones:"+kind, func() interface{} {
		result := []models.DistrictEntry{}
		for _, d := range snap.Artifact.Districts {
			if kind == models.ZoneBlue && d.Zones.IsBlueZone ||
				kind == models.ZoneDEZ && d.Zones.IsDigitalExclusionZone {
				result = append(result, d)
			}
		}
		return result
	}).([]models.DistrictEntry), nil
}

// ListCenters returns center statuses, optionally only dead centers or one state
func (s *DashboardService) ListCenters(filter models.CenterFilter) ([]models.CenterEntry, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	result := []models.CenterEntry{}
	for _, c := range snap.Artifact.Centers {
		if filter.Dead && !c.Status.Dead {
			continue
		}
		if filter.State != "" && models.Slug(c.State) != models.Slug(filter.State) {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

// SnapshotInfo describes the snapshot in service
func (s *DashboardService) SnapshotInfo() (*SnapshotInfo, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	a := snap.Artifact
	return &SnapshotInfo{
		Meta:            snap.Meta,
		SchemaVersion:   a.SchemaVersion,
		Districts:       len(a.Districts),
		Centers:         len(a.Centers),
		Forecasts:       len(a.Forecasts),
		Recommendations: len(a.Recommendations),
		Needs:           len(a.Needs),
		Anomalies:       len(a.Anomalies),
		Warnings:        a.Warnings,
		Parameters:      a.Parameters,
	}, nil
}

// Formula describes the score formula. Weights come from the snapshot when one
// is published, otherwise from configuration.
func (s *DashboardService) Formula() *FormulaInfo {
	info := &FormulaInfo{
		Formula:  dsi.Formula,
		Weights:  s.weights,
		MinScore: dsi.MinScore,
		MaxScore: dsi.MaxScore,
		Tiers: []TierRange{
			{Tier: models.TierLow, Min: dsi.MinScore, Max: models.MediumTierFloor},
			{Tier: models.TierMedium, Min: models.MediumTierFloor, Max: models.CriticalTierFloor},
			{Tier: models.TierCritical, Min: models.CriticalTierFloor, Max: dsi.MaxScore},
		},
	}
	if snap := s.store.Current(); snap != nil {
		params := snap.Artifact.Parameters
		info.Weights = dsi.Weights{Volume: params.WeightVolume, Senior: params.WeightSenior}
		info.Parameters = &params
	}
	return info
}

// Artifact returns the published artifact and its run metadata for export
func (s *DashboardService) Artifact() (*models.Artifact, snapshot.Meta, error) {
	snap, err := s.current()
	if err != nil {
		return nil, snapshot.Meta{}, err
	}
	return snap.Artifact, snap.Meta, nil
}

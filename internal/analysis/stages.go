package analysis

import (
	"context"

	"github.com/jengzang/sankhya-backend-go/internal/analysis/aggregate"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/anomaly"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/dsi"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/forecast"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/needs"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/realloc"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/zones"
	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/stats"
)

// scoreStage computes the DSI of every district
type scoreStage struct{}

func (scoreStage) Name() string { return "score" }

func (scoreStage) Run(ctx context.Context, s *State) error {
	ds := s.Dataset
	for _, rec := range ds.Districts() {
		capacity := ds.Capacity(rec.Key)
		s.Artifact.Districts = append(s.Artifact.Districts, models.DistrictEntry{
			Key:               rec.Key,
			State:             rec.State,
			District:          rec.District,
			PincodeGroup:      rec.PincodeGroup,
			Population:        rec.Population,
			SeniorPopulation:  rec.SeniorPopulation,
			TransactionVolume: rec.TransactionVolume,
			Capacity:          stats.Quantize(capacity),
			Centers:           len(ds.CentersIn(rec.Key)),
			DSI:               dsi.Score(rec, s.Config.Weights, capacity),
		})
	}

	p := &s.Artifact.Parameters
	p.WeightVolume = s.Config.Weights.Volume
	p.WeightSenior = s.Config.Weights.Senior
	return nil
}

// zoneStage resolves the zone thresholds, then flags districts and centers
type zoneStage struct{}

func (zoneStage) Name() string { return "zones" }

func (zoneStage) Run(ctx context.Context, s *State) error {
	cfg := s.Config.Zones
	s.Thresholds = zones.ComputeThresholds(s.Dataset.Districts(), cfg)

	for i := range s.Artifact.Districts {
		entry := &s.Artifact.Districts[i]
		rec, _ := s.Dataset.District(entry.Key)
		entry.Zones = zones.Classify(rec, s.Thresholds)
	}
	for _, c := range s.Dataset.Centers() {
		s.Artifact.Centers = append(s.Artifact.Centers, models.CenterEntry{
			CenterRecord: c,
			Status:       zones.ClassifyCenter(c, cfg),
		})
	}

	p := &s.Artifact.Parameters
	p.BlueZoneMode = string(cfg.BlueZoneMode)
	p.BlueZoneCutoff = cfg.BlueZoneCutoff
	p.BlueZoneThreshold = stats.Quantize(s.Thresholds.BlueZone)
	p.DEZMode = string(cfg.DEZMode)
	p.DEZCutoff = cfg.DEZCutoff
	p.DEZThreshold = stats.Quantize(s.Thresholds.DEZ)
	return nil
}

// forecastStage projects every district with history, every state and the nation
type forecastStage struct{}

func (forecastStage) Name() string { return "forecast" }

func (forecastStage) Run(ctx context.Context, s *State) error {
	cfg := s.Config.Forecast
	ds := s.Dataset

	add := func(entity forecast.Entity, history []models.HistoryPoint) {
		series := forecast.Forecast(entity, history, cfg)
		if w := forecast.Warning(series, cfg); w != "" {
			s.Warn("%s", w)
		}
		s.Artifact.Forecasts = append(s.Artifact.Forecasts, series)
	}

	for _, rec := range ds.Districts() {
		history := ds.History(rec.Key)
		if len(history) == 0 {
			continue
		}
		add(forecast.Entity{Key: rec.Key, Scope: models.ScopeDistrict, Label: rec.District + ", " + rec.State}, history)
	}
	for _, st := range ds.States() {
		add(forecast.Entity{Key: models.StateKey(st.Name), Scope: models.ScopeState, Label: st.Name}, ds.StateHistory(st.Slug))
	}
	add(forecast.Entity{Key: models.NationalKey, Scope: models.ScopeNational, Label: "National"}, ds.NationalHistory())

	p := &s.Artifact.Parameters
	p.ForecastHorizon = cfg.Horizon
	p.ForecastWindow = cfg.Window
	return nil
}

// aggregateStage rolls districts and centers up by state and nation
type aggregateStage struct{}

func (aggregateStage) Name() string { return "aggregate" }

func (aggregateStage) Run(ctx context.Context, s *State) error {
	s.Artifact.National, s.Artifact.States = aggregate.Summarize(aggregate.Input{
		Districts: s.Artifact.Districts,
		Centers:   s.Artifact.Centers,
	})
	return nil
}

// reallocationStage recommends device moves between centers
type reallocationStage struct{}

func (reallocationStage) Name() string { return "reallocation" }

func (reallocationStage) Run(ctx context.Context, s *State) error {
	cfg := s.Config.Realloc
	s.Artifact.Recommendations = realloc.Recommend(s.Dataset.Centers(), cfg)

	p := &s.Artifact.Parameters
	p.LowUtilization = cfg.LowUtilization
	p.HighUtilization = cfg.HighUtilization
	p.TargetUtilization = cfg.TargetUtilization
	return nil
}

// needsStage sizes the centers each state lacks for its forecast peak
type needsStage struct{}

func (needsStage) Name() string { return "needs" }

func (needsStage) Run(ctx context.Context, s *State) error {
	s.Artifact.Needs = needs.Assess(s.Artifact.States, s.Artifact.Forecasts, s.Config.Needs)
	return nil
}

// anomalyStage flags districts whose latest period breaks from the baseline
type anomalyStage struct{}

func (anomalyStage) Name() string { return "anomaly" }

func (anomalyStage) Run(ctx context.Context, s *State) error {
	var series []anomaly.Series
	for _, rec := range s.Dataset.Districts() {
		series = append(series, anomaly.Series{
			Key:      rec.Key,
			State:    rec.State,
			District: rec.District,
			Points:   s.Dataset.History(rec.Key),
		})
	}
	s.Artifact.Anomalies = anomaly.Detect(series, s.Config.Anomaly)
	return nil
}

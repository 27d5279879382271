package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jengzang/sankhya-backend-go/internal/analysis/anomaly"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/dsi"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/forecast"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/needs"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/realloc"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/zones"
	"github.com/jengzang/sankhya-backend-go/internal/dataset"
	"github.com/jengzang/sankhya-backend-go/internal/models"
)

// Stage is one step of a regeneration
type Stage interface {
	// Name identifies the stage in logs and errors
	Name() string

	// Run reads the dataset and earlier results from state and adds its own
	Run(ctx context.Context, state *State) error
}

// Config aggregates the parameters of every stage
type Config struct {
	Weights  dsi.Weights
	Zones    zones.Config
	Forecast forecast.Config
	Realloc  realloc.Config
	Needs    needs.Config
	Anomaly  anomaly.Config
}

// DefaultConfig returns the default parameters of every stage
func DefaultConfig() Config {
	return Config{
		Weights:  dsi.DefaultWeights(),
		Zones:    zones.DefaultConfig(),
		Forecast: forecast.DefaultConfig(),
		Realloc:  realloc.DefaultConfig(),
		Needs:    needs.DefaultConfig(),
		Anomaly:  anomaly.DefaultConfig(),
	}
}

// Validate checks every stage's parameters
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Zones.Validate(); err != nil {
		return err
	}
	if err := c.Forecast.Validate(); err != nil {
		return err
	}
	if err := c.Realloc.Validate(); err != nil {
		return err
	}
	if err := c.Needs.Validate(); err != nil {
		return err
	}
	return c.Anomaly.Validate()
}

// State is shared by the stages of one run
type State struct {
	Dataset    *dataset.Dataset
	Config     Config
	Thresholds zones.Thresholds
	Artifact   *models.Artifact
}

// Warn records a non-fatal condition in the artifact and the log
func (s *State) Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.Artifact.Warnings = append(s.Artifact.Warnings, msg)
	log.Printf("[Engine] Warning: %s", msg)
}

// Engine runs the stages in order over one dataset
type Engine struct {
	config Config
	stages []Stage
}

// NewEngine creates an engine running the default stages
func NewEngine(cfg Config) *Engine {
	return NewEngineWithStages(cfg, DefaultStages()...)
}

// NewEngineWithStages creates an engine running the given stages in order
func NewEngineWithStages(cfg Config, stages ...Stage) *Engine {
	return &Engine{
		config: cfg,
		stages: stages,
	}
}

// DefaultStages returns score, zones, forecast, aggregate, reallocation, needs, anomaly
func DefaultStages() []Stage {
	return []Stage{
		scoreStage{},
		zoneStage{},
		forecastStage{},
		aggregateStage{},
		reallocationStage{},
		needsStage{},
		anomalyStage{},
	}
}

// Stages returns the stage names in run order
func (e *Engine) Stages() []string {
	names := make([]string, len(e.stages))
	for i, s := range e.stages {
		names[i] = s.Name()
	}
	return names
}

// Config returns the engine parameters
func (e *Engine) Config() Config {
	return e.config
}

// Run builds an artifact from ds. The context is checked between stages.
func (e *Engine) Run(ctx context.Context, ds *dataset.Dataset) (*models.Artifact, error) {
	state := &State{
		Dataset: ds,
		Config:  e.config,
		Artifact: &models.Artifact{
			SchemaVersion:   models.ArtifactSchemaVersion,
			InputDigest:     ds.Digest(),
			Districts:       []models.DistrictEntry{},
			Centers:         []models.CenterEntry{},
			Forecasts:       []models.ForecastSeries{},
			States:          []models.Summary{},
			Recommendations: []models.ReallocationRecommendation{},
			Needs:           []models.CapacityNeed{},
			Anomalies:       []models.Anomaly{},
			Warnings:        []string{},
		},
	}

	log.Printf("[Engine] Starting run over %d districts (digest=%.12s)", len(ds.Districts()), ds.Digest())
	started := time.Now()

	for i, stage := range e.stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("failed to start stage %s: %w", stage.Name(), err)
		}

		stageStarted := time.Now()
		if err := stage.Run(ctx, state); err != nil {
			return nil, fmt.Errorf("failed to run stage %s: %w", stage.Name(), err)
		}
		log.Printf("[Engine] Stage %d/%d %s completed in %v", i+1, len(e.stages), stage.Name(), time.Since(stageStarted))
	}

	log.Printf("[Engine] Run completed in %v: %d districts, %d forecasts, %d recommendations, %d needs, %d anomalies, %d warnings",
		time.Since(started), len(state.Artifact.Districts), len(state.Artifact.Forecasts),
		len(state.Artifact.Recommendations), len(state.Artifact.Needs), len(state.Artifact.Anomalies), len(state.Artifact.Warnings))

	return state.Artifact, nil
}

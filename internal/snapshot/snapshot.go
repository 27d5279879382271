// Package snapshot holds the immutable result of a regeneration and the
// store that publishes it to readers.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/jengzang/sankhya-backend-go/internal/models"
)

// Meta describes the run that produced a snapshot. It lives beside the
// artifact so identical inputs still encode identically.
type Meta struct {
	Version     int64     `json:"version"` // Assigned by the store, increases per swap
	RunID       string    `json:"run_id"`
	Trigger     string    `json:"trigger"`
	GeneratedAt time.Time `json:"generated_at"`
	InputDigest string    `json:"input_digest"`
	Restored    bool      `json:"restored"` // Loaded from a stored artifact instead of recomputed
}

// Snapshot is an artifact with lookup indexes. Never mutated once published.
type Snapshot struct {
	Meta     Meta
	Artifact *models.Artifact

	districts map[string]int
	forecasts map[string]int
	states    map[string]int
}

// New indexes an artifact
func New(artifact *models.Artifact, meta Meta) *Snapshot {
	meta.InputDigest = artifact.InputDigest
	s := &Snapshot{
		Meta:      meta,
		Artifact:  artifact,
		districts: make(map[string]int, len(artifact.Districts)),
		forecasts: make(map[string]int, len(artifact.Forecasts)),
		states:    make(map[string]int, len(artifact.States)),
	}
	for i, d := range artifact.Districts {
		s.districts[d.Key] = i
	}
	for i, f := range artifact.Forecasts {
		s.forecasts[f.Entity] = i
	}
	for i, st := range artifact.States {
		s.states[st.Scope] = i
	}
	return s
}

// District looks up a district by key
func (s *Snapshot) District(key string) (models.DistrictEntry, bool) {
	i, ok := s.districts[key]
	if !ok {
		return models.DistrictEntry{}, false
	}
	return s.Artifact.Districts[i], true
}

// Forecast looks up a forecast by entity key
func (s *Snapshot) Forecast(entity string) (models.ForecastSeries, bool) {
	i, ok := s.forecasts[entity]
	if !ok {
		return models.ForecastSeries{}, false
	}
	return s.Artifact.Forecasts[i], true
}

// State looks up a state summary by slug
func (s *Snapshot) State(slug string) (models.Summary, bool) {
	i, ok := s.states[slug]
	if !ok {
		return models.Summary{}, false
	}
	return s.Artifact.States[i], true
}

// Store publishes the current snapshot to concurrent readers
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Current returns the published snapshot, nil before the first Replace
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace assigns the next version to snap and publishes it
func (s *Store) Replace(snap *Snapshot) *Snapshot {
	snap.Meta.Version = s.version.Add(1)
	return s.current.Swap(snap)
}

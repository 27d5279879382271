package analysis

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sankhya-backend-go/internal/dataset"
	"github.com/jengzang/sankhya-backend-go/internal/dataset/datasettest"
	"github.com/jengzang/sankhya-backend-go/internal/models"
)

func runFixture(t *testing.T) *models.Artifact {
	t.Helper()
	artifact, err := NewEngine(DefaultConfig()).Run(context.Background(), datasettest.Load(t))
	require.NoError(t, err)
	return artifact
}

func district(t *testing.T, a *models.Artifact, key string) models.DistrictEntry {
	t.Helper()
	for _, d := range a.Districts {
		if d.Key == key {
			return d
		}
	}
	t.Fatalf("district %s not in artifact", key)
	return models.DistrictEntry{}
}

func TestEngineRun(t *testing.T) {
	a := runFixture(t)

	assert.Equal(t, models.ArtifactSchemaVersion, a.SchemaVersion)
	assert.Len(t, a.InputDigest, 64)
	require.Len(t, a.Districts, 6)
	assert.Equal(t, "bihar/gaya", a.Districts[0].Key)

	t.Run("scores", func(t *testing.T) {
		patna := district(t, a, "bihar/patna")
		assert.Equal(t, models.TierCritical, patna.DSI.Tier)
		assert.Equal(t, 2, patna.Centers)
		assert.Equal(t, 1800.0, patna.Capacity)

		muzaffarpur := district(t, a, "bihar/muzaffarpur")
		assert.True(t, muzaffarpur.DSI.Unserved)
		assert.Equal(t, 10.0, muzaffarpur.DSI.Score)

		assert.Equal(t, models.TierMedium, district(t, a, "kerala/ernakulam").DSI.Tier)
		assert.Equal(t, models.TierLow, district(t, a, "bihar/gaya").DSI.Tier)

		for _, d := range a.Districts {
			assert.GreaterOrEqual(t, d.DSI.Score, 0.0)
			assert.LessOrEqual(t, d.DSI.Score, 10.0)
		}
	})

	t.Run("zones", func(t *testing.T) {
		assert.Equal(t, "percentile", a.Parameters.BlueZoneMode)
		assert.Greater(t, a.Parameters.BlueZoneThreshold, 0.0)
		assert.True(t, district(t, a, "kerala/idukki").Zones.IsBlueZone)
		assert.True(t, district(t, a, "kerala/idukki").Zones.IsDigitalExclusionZone)
		assert.False(t, district(t, a, "bihar/patna").Zones.IsBlueZone)

		require.Len(t, a.Centers, 6)
		for _, c := range a.Centers {
			if c.ID == "IDK-001" {
				assert.True(t, c.Status.Dead)
			}
		}
	})

	t.Run("forecasts", func(t *testing.T) {
		var keys []string
		for _, f := range a.Forecasts {
			keys = append(keys, f.Entity)
			require.Len(t, f.Points, 7)
			for _, p := range f.Points {
				assert.LessOrEqual(t, p.Lower, p.Predicted)
				assert.LessOrEqual(t, p.Predicted, p.Upper)
				assert.GreaterOrEqual(t, p.Predicted, 0.0)
			}
		}
		assert.Equal(t, []string{
			"bihar/gaya", "bihar/patna", "kerala/ernakulam", "kerala/idukki",
			"state/bihar", "state/goa", "state/kerala", "national",
		}, keys)
	})

	t.Run("warnings", func(t *testing.T) {
		require.Len(t, a.Warnings, 2)
		assert.True(t, strings.HasPrefix(a.Warnings[0], "insufficient_history: kerala/idukki"))
		assert.True(t, strings.HasPrefix(a.Warnings[1], "insufficient_history: state/goa"))
	})

	t.Run("summaries", func(t *testing.T) {
		assert.Equal(t, 6, a.National.Districts)
		assert.Equal(t, 1, a.National.DeadCenters)
		assert.Equal(t, 75.0, a.National.AssetEfficiency)
		require.Len(t, a.States, 3)
		assert.Equal(t, "bihar", a.States[0].Scope)
	})

	t.Run("recommendations", func(t *testing.T) {
		require.NotEmpty(t, a.Recommendations)
		assert.Equal(t, "IDK-001", a.Recommendations[0].FromCenterID)
		assert.Equal(t, "ERN-001", a.Recommendations[0].ToCenterID)
		assert.Equal(t, 6, a.Recommendations[0].Units)
		for i := 1; i < len(a.Recommendations); i++ {
			assert.GreaterOrEqual(t, a.Recommendations[i-1].Units, a.Recommendations[i].Units)
		}
	})

	t.Run("needs", func(t *testing.T) {
		require.NotNil(t, a.Needs)
		assert.Empty(t, a.Needs, "every state covers its forecast peak")

		// Shrink Bihar's capacity below its forecast peak
		shrunk := *a
		shrunk.States = append([]models.Summary(nil), a.States...)
		shrunk.States[0].TotalCapacity = 100
		state := &State{Config: DefaultConfig(), Artifact: &shrunk}
		require.NoError(t, needsStage{}.Run(context.Background(), state))

		require.Len(t, shrunk.Needs, 1)
		need := shrunk.Needs[0]
		assert.Equal(t, "bihar", need.State)
		assert.Equal(t, models.PriorityHigh, need.Priority)
		assert.Equal(t, 3, need.CurrentCenters)
		assert.Greater(t, need.AdditionalCentersNeeded, 0)

		var peak float64
		for _, f := range a.Forecasts {
			if f.Entity == "state/bihar" {
				for _, p := range f.Points {
					peak = math.Max(peak, p.Predicted)
				}
			}
		}
		assert.InDelta(t, peak, need.PeakDemand, 0.01)
		assert.InDelta(t, peak-100, need.Shortfall, 0.01)
	})

	t.Run("anomalies", func(t *testing.T) {
		require.Len(t, a.Anomalies, 1)
		assert.Equal(t, "bihar/gaya", a.Anomalies[0].Key)
		assert.Equal(t, models.AnomalySurge, a.Anomalies[0].Type)
		assert.Equal(t, models.SeverityCritical, a.Anomalies[0].Severity)
	})
}

func TestEngineDeterministic(t *testing.T) {
	dir := datasettest.Dir(t)
	encode := func() []byte {
		ds, err := dataset.Load(context.Background(), dataset.SourcesFromDir(dir))
		require.NoError(t, err)
		artifact, err := NewEngine(DefaultConfig()).Run(context.Background(), ds)
		require.NoError(t, err)
		data, err := json.Marshal(artifact)
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, string(encode()), string(encode()))
}

func TestEngineCancelled(t *testing.T) {
	ds := datasettest.Load(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(DefaultConfig()).Run(ctx, ds)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "score")
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Weights.Volume = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Realloc.HighUtilization = 0.1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Needs.CenterCapacity = 0
	assert.Error(t, cfg.Validate())
}

func TestStages(t *testing.T) {
	assert.Equal(t, []string{"score", "zones", "forecast", "aggregate", "reallocation", "needs", "anomaly"},
		NewEngine(DefaultConfig()).Stages())
}

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sankhya-backend-go/internal/models"
)

func entry(state, district string, score float64, blue, dez bool) models.DistrictEntry {
	return models.DistrictEntry{
		Key:               models.DistrictKey(state, district),
		State:             state,
		District:          district,
		Population:        1000,
		SeniorPopulation:  100,
		TransactionVolume: 50,
		DSI:               models.DSIScore{Score: score, Tier: models.TierFor(score)},
		Zones:             models.ZoneFlag{IsBlueZone: blue, IsDigitalExclusionZone: dez},
	}
}

func center(id, state string, capacity, utilization float64, dead bool) models.CenterEntry {
	return models.CenterEntry{
		CenterRecord: models.CenterRecord{ID: id, State: state, RatedCapacity: capacity, Utilization: utilization},
		Status:       models.CenterStatus{Dead: dead},
	}
}

func TestSummarize(t *testing.T) {
	in := Input{
		Districts: []models.DistrictEntry{
			entry("Bihar", "Gaya", 2, false, true),
			entry("Bihar", "Patna", 7, true, false),
			entry("Kerala", "Ernakulam", 4, true, false),
		},
		Centers: []models.CenterEntry{
			center("C1", "Bihar", 100, 90, false),
			center("C2", "Bihar", 100, 0, true),
			center("C3", "Kerala", 200, 150, false),
		},
	}

	national, states := Summarize(in)

	assert.Equal(t, models.NationalKey, national.Scope)
	assert.Equal(t, 3, national.Districts)
	assert.InDelta(t, 4.3333, national.MeanDSI, 1e-9)
	assert.Equal(t, 1, national.CriticalDistricts)
	assert.Equal(t, 1, national.MediumDistricts)
	assert.Equal(t, 1, national.LowDistricts)
	assert.Equal(t, 2, national.StressedDistricts)
	assert.Equal(t, 2, national.BlueZones)
	assert.Equal(t, 1, national.DigitalExclusionZones)
	assert.Equal(t, 3, national.Centers)
	assert.Equal(t, 1, national.DeadCenters)
	assert.Equal(t, 400.0, national.TotalCapacity)
	assert.Equal(t, 240.0, national.TotalUtilization)
	assert.Equal(t, 60.0, national.AssetEfficiency)
	assert.Equal(t, int64(3000), national.Population)
	assert.Equal(t, int64(300), national.SeniorPopulation)
	assert.Equal(t, int64(150), national.TransactionVolume)

	require.Len(t, states, 2)
	bihar, kerala := states[0], states[1]
	assert.Equal(t, "bihar", bihar.Scope)
	assert.Equal(t, "Bihar", bihar.Label)
	assert.Equal(t, 2, bihar.Districts)
	assert.Equal(t, 4.5, bihar.MeanDSI)
	assert.Equal(t, 45.0, bihar.AssetEfficiency)
	assert.Equal(t, 1, bihar.DeadCenters)
	assert.Equal(t, "kerala", kerala.Scope)
	assert.Equal(t, 75.0, kerala.AssetEfficiency)
	assert.Equal(t, 1, kerala.StressedDistricts)
}

func TestSummarizeEmpty(t *testing.T) {
	national, states := Summarize(Input{})
	assert.Zero(t, national.Districts)
	assert.Zero(t, national.MeanDSI)
	assert.Zero(t, national.AssetEfficiency)
	assert.Empty(t, states)
}

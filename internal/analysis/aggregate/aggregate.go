// Package aggregate rolls scored districts and classified centers up into
// state and national summaries.
package aggregate

import (
	"sort"

	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/stats"
)

// Input is the scored view of one snapshot
type Input struct {
	Districts []models.DistrictEntry
	Centers   []models.CenterEntry
}

type accumulator struct {
	summary  models.Summary
	dsiTotal float64
}

func (a *accumulator) addDistrict(d models.DistrictEntry) {
	s := &a.summary
	s.Districts++
	a.dsiTotal += d.DSI.Score
	switch d.DSI.Tier {
	case models.TierCritical:
		s.CriticalDistricts++
	case models.TierMedium:
		s.MediumDistricts++
	default:
		s.LowDistricts++
	}
	if d.Zones.IsBlueZone {
		s.BlueZones++
	}
	if d.Zones.IsDigitalExclusionZone {
		s.DigitalExclusionZones++
	}
	s.Population += d.Population
	s.SeniorPopulation += d.SeniorPopulation
	s.TransactionVolume += d.TransactionVolume
}

func (a *accumulator) addCenter(c models.CenterEntry) {
	s := &a.summary
	s.Centers++
	if c.Status.Dead {
		s.DeadCenters++
	}
	s.TotalCapacity += c.RatedCapacity
	s.TotalUtilization += c.Utilization
}

func (a *accumulator) finish() models.Summary {
	s := a.summary
	s.StressedDistricts = s.MediumDistricts + s.CriticalDistricts
	if s.Districts > 0 {
		s.MeanDSI = stats.Quantize(a.dsiTotal / float64(s.Districts))
	}
	if s.TotalCapacity > 0 {
		s.AssetEfficiency = stats.Quantize(s.TotalUtilization / s.TotalCapacity * 100)
	}
	s.TotalCapacity = stats.Quantize(s.TotalCapacity)
	s.TotalUtilization = stats.Quantize(s.TotalUtilization)
	return s
}

// Summarize returns the national summary and one summary per state sorted by slug
func Summarize(in Input) (models.Summary, []models.Summary) {
	national := &accumulator{summary: models.Summary{Scope: models.NationalKey, Label: "National"}}
	states := make(map[string]*accumulator)

	state := func(name string) *accumulator {
		slug := models.Slug(name)
		acc, ok := states[slug]
		if !ok {
			acc = &accumulator{summary: models.Summary{Scope: slug, Label: name}}
			states[slug] = acc
		}
		return acc
	}

	for _, d := range in.Districts {
		national.addDistrict(d)
		state(d.State).addDistrict(d)
	}
	for _, c := range in.Centers {
		national.addCenter(c)
		state(c.State).addCenter(c)
	}

	out := make([]models.Summary, 0, len(states))
	for _, acc := range states {
		out = append(out, acc.finish())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scope < out[j].Scope })

	return national.finish(), out
}

// Package realloc recommends moving devices from under-utilized centers to
// over-utilized ones.
package realloc

import (
	"fmt"
	"math"
	"sort"

	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/spatial"
	"github.com/jengzang/sankhya-backend-go/internal/stats"
)

// Config holds the utilization bands of the advisor
type Config struct {
	LowUtilization      float64 // Sources are below this ratio
	HighUtilization     float64 // Destinations are above this ratio and the global average
	TargetUtilization   float64 // Device needs are sized for this ratio
	CriticalUtilization float64 // Destinations at or above this are high priority
	MaxTransferKm       float64 // Cross-state moves farther than this are skipped, 0 means no limit
}

// DefaultConfig returns the 0.5 / 0.85 / 0.7 bands
func DefaultConfig() Config {
	return Config{
		LowUtilization:      0.5,
		HighUtilization:     0.85,
		TargetUtilization:   0.7,
		CriticalUtilization: 0.95,
	}
}

// Validate rejects inverted or empty bands
func (c Config) Validate() error {
	if c.LowUtilization < 0 || c.LowUtilization >= c.HighUtilization {
		return fmt.Errorf("invalid utilization band: low %v must be within [0, high %v)", c.LowUtilization, c.HighUtilization)
	}
	if c.TargetUtilization <= 0 {
		return fmt.Errorf("invalid target utilization %v: must be positive", c.TargetUtilization)
	}
	if c.MaxTransferKm < 0 {
		return fmt.Errorf("invalid max transfer distance %v: must be non-negative", c.MaxTransferKm)
	}
	return nil
}

// node tracks a center's device count as moves are planned
type node struct {
	center    models.CenterRecord
	state     string
	perDevice float64
	devices   int
	remaining int // Surplus for sources, headroom for destinations
}

// ratio is the utilization ratio the center would have with the given devices
func (n *node) ratio(devices int) float64 {
	capacity := n.center.RatedCapacity + n.perDevice*float64(devices-n.center.DeviceCount)
	if capacity <= 0 {
		return 0
	}
	return n.center.Utilization / capacity
}

// GlobalUtilization is Σutilization / Σcapacity over centers with capacity
func GlobalUtilization(centers []models.CenterRecord) float64 {
	var utilization, capacity float64
	for _, c := range centers {
		if c.RatedCapacity <= 0 {
			continue
		}
		utilization += c.Utilization
		capacity += c.RatedCapacity
	}
	if capacity <= 0 {
		return 0
	}
	return utilization / capacity
}

// Recommend pairs idle sources with overloaded destinations
func Recommend(centers []models.CenterRecord, cfg Config) []models.ReallocationRecommendation {
	global := GlobalUtilization(centers)

	var capacity float64
	var devices int
	for _, c := range centers {
		if c.RatedCapacity > 0 && c.DeviceCount > 0 {
			capacity += c.RatedCapacity
			devices += c.DeviceCount
		}
	}
	if devices == 0 {
		return []models.ReallocationRecommendation{}
	}
	globalPerDevice := capacity / float64(devices)

	var sources, destinations []*node
	for _, c := range centers {
		if c.RatedCapacity <= 0 {
			continue
		}
		n := &node{center: c, state: models.Slug(c.State), devices: c.DeviceCount, perDevice: globalPerDevice}
		if c.DeviceCount > 0 {
			n.perDevice = c.RatedCapacity / float64(c.DeviceCount)
		}
		need := int(math.Ceil(c.Utilization / (cfg.TargetUtilization * n.perDevice)))
		ratio := c.UtilizationRatio()

		switch {
		case ratio < cfg.LowUtilization && c.DeviceCount > need:
			n.remaining = c.DeviceCount - need
			sources = append(sources, n)
		case ratio > cfg.HighUtilization && ratio > global && need > c.DeviceCount:
			n.remaining = need - c.DeviceCount
			destinations = append(destinations, n)
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		ri, rj := sources[i].center.UtilizationRatio(), sources[j].center.UtilizationRatio()
		if ri != rj {
			return ri < rj
		}
		return sources[i].center.ID < sources[j].center.ID
	})

	out := []models.ReallocationRecommendation{}
	for _, src := range sources {
		for src.remaining > 0 {
			dst, distance := pick(src, destinations, cfg)
			if dst == nil {
				break
			}
			units := min(src.remaining, dst.remaining)
			out = append(out, recommendation(src, dst, units, distance, cfg))

			src.remaining -= units
			src.devices -= units
			dst.remaining -= units
			dst.devices += units
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Units != b.Units {
			return a.Units > b.Units
		}
		if a.ToUtilization != b.ToUtilization {
			return a.ToUtilization > b.ToUtilization
		}
		if a.FromCenterID != b.FromCenterID {
			return a.FromCenterID < b.FromCenterID
		}
		return a.ToCenterID < b.ToCenterID
	})
	return out
}

// pick chooses the destination leaving the pair closest to each other.
// Destinations in the source's state are preferred over any other.
func pick(src *node, destinations []*node, cfg Config) (*node, float64) {
	type candidate struct {
		dst      *node
		distance float64
		variance float64
	}

	var local, remote []candidate
	for _, dst := range destinations {
		if dst.remaining <= 0 {
			continue
		}
		units := min(src.remaining, dst.remaining)
		c := candidate{
			dst: dst,
			distance: spatial.DistanceKm(src.center.Latitude, src.center.Longitude,
				dst.center.Latitude, dst.center.Longitude),
			variance: stats.PairVariance(src.ratio(src.devices-units), dst.ratio(dst.devices+units)),
		}
		if dst.state == src.state {
			local = append(local, c)
			continue
		}
		if cfg.MaxTransferKm > 0 && c.distance > cfg.MaxTransferKm {
			continue
		}
		remote = append(remote, c)
	}

	candidates := local
	if len(candidates) == 0 {
		candidates = remote
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case c.variance < best.variance:
			best = c
		case c.variance > best.variance:
		case c.distance < best.distance:
			best = c
		case c.distance == best.distance && c.dst.center.ID < best.dst.center.ID:
			best = c
		}
	}
	return best.dst, best.distance
}

func recommendation(src, dst *node, units int, distance float64, cfg Config) models.ReallocationRecommendation {
	priority := models.PriorityMedium
	if dst.ratio(dst.devices) >= cfg.CriticalUtilization {
		priority = models.PriorityHigh
	}
	return models.ReallocationRecommendation{
		FromCenterID:         src.center.ID,
		FromName:             src.center.Name,
		FromState:            src.center.State,
		ToCenterID:           dst.center.ID,
		ToName:               dst.center.Name,
		ToState:              dst.center.State,
		Units:                units,
		FromUtilization:      percent(src.ratio(src.devices)),
		ToUtilization:        percent(dst.ratio(dst.devices)),
		FromUtilizationAfter: percent(src.ratio(src.devices - units)),
		ToUtilizationAfter:   percent(dst.ratio(dst.devices + units)),
		DistanceKm:           stats.Round(distance, 2),
		Priority:             priority,
	}
}

func percent(ratio float64) float64 {
	return stats.Quantize(ratio * 100)
}

package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/spatial"
)

// Source names, also the order in which raw inputs enter the digest
const (
	SourceDemographic = "demographic"
	SourceBiometric   = "biometric"
	SourceEnrolment   = "enrolment"
	SourceCenters     = "centers"
	SourceHistory     = "history"
)

// Default file names inside a data directory
const (
	DemographicFile = "demographic.csv"
	BiometricFile   = "biometric.csv"
	EnrolmentFile   = "enrolment.csv"
	CentersFile     = "centers.csv"
	HistoryFile     = "history.csv"
)

// Sources holds the CSV paths of one snapshot. Empty optional paths are skipped.
type Sources struct {
	Demographic string
	Biometric   string
	Enrolment   string
	Centers     string
	History     string
}

// SourcesFromDir resolves the default file names in dir.
// Optional files are only included when they exist.
func SourcesFromDir(dir string) Sources {
	optional := func(name string) string {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return ""
		}
		return path
	}
	return Sources{
		Demographic: filepath.Join(dir, DemographicFile),
		Biometric:   filepath.Join(dir, BiometricFile),
		Enrolment:   optional(EnrolmentFile),
		Centers:     optional(CentersFile),
		History:     optional(HistoryFile),
	}
}

// StateRef names a state present in the dataset
type StateRef struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Dataset is the immutable in-memory view of one snapshot's inputs
type Dataset struct {
	districts map[string]models.DistrictRecord
	keys      []string

	centers      []models.CenterRecord
	centersByKey map[string][]models.CenterRecord
	capacity     map[string]float64

	history      map[string][]models.HistoryPoint
	stateHistory map[string][]models.HistoryPoint
	national     []models.HistoryPoint

	states []StateRef
	digest string
}

type sourceSpec struct {
	name     string
	path     string
	required []string
	optional bool
}

// Load reads every source concurrently and joins them by district key
func Load(ctx context.Context, src Sources) (*Dataset, error) {
	specs := []sourceSpec{
		{SourceDemographic, src.Demographic, []string{"state", "district", "population", "senior_population"}, false},
		{SourceBiometric, src.Biometric, []string{"state", "district", "transaction_volume", "error_count"}, false},
		{SourceEnrolment, src.Enrolment, []string{"state", "district", "enrollment_count"}, true},
		{SourceCenters, src.Centers, []string{"center_id", "name", "state", "district", "lat", "lon", "rated_capacity", "device_count", "utilization"}, true},
		{SourceHistory, src.History, []string{"state", "district", "date", "volume"}, true},
	}

	raw := make([][]byte, len(specs))
	tables := make([]*table, len(specs))

	for _, spec := range specs {
		if spec.path == "" && !spec.optional {
			return nil, &LoadError{Source: spec.name, Reason: "required file not configured"}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		if spec.path == "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(spec.path)
			if err != nil {
				return &LoadError{Source: spec.name, Reason: "cannot read " + spec.path, Err: err}
			}
			t, err := parseTable(spec.name, data, spec.required)
			if err != nil {
				return err
			}
			raw[i] = data
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &Dataset{
		districts:    make(map[string]models.DistrictRecord),
		centersByKey: make(map[string][]models.CenterRecord),
		capacity:     make(map[string]float64),
		history:      make(map[string][]models.HistoryPoint),
		stateHistory: make(map[string][]models.HistoryPoint),
	}

	if err := ds.joinDemographic(tables[0]); err != nil {
		return nil, err
	}
	if err := ds.joinBiometric(tables[1]); err != nil {
		return nil, err
	}
	if tables[2] != nil {
		if err := ds.joinEnrolment(tables[2]); err != nil {
			return nil, err
		}
	}
	if tables[3] != nil {
		if err := ds.joinCenters(tables[3]); err != nil {
			return nil, err
		}
	}
	if tables[4] != nil {
		if err := ds.joinHistory(tables[4]); err != nil {
			return nil, err
		}
	}
	ds.index()
	ds.digest = digest(specs, raw)

	log.Printf("[Dataset] Loaded %d districts, %d centers, %d history series (digest %s)",
		len(ds.keys), len(ds.centers), len(ds.history), ds.digest[:12])

	return ds, nil
}

func digest(specs []sourceSpec, raw [][]byte) string {
	h := sha256.New()
	for i, spec := range specs {
		fmt.Fprintf(h, "%s:%d\n", spec.name, len(raw[i]))
		h.Write(raw[i])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (ds *Dataset) joinDemographic(t *table) error {
	for i := range t.rows {
		state, err := t.str(i, "state")
		if err != nil {
			return err
		}
		district, err := t.str(i, "district")
		if err != nil {
			return err
		}
		population, err := t.count(i, "population")
		if err != nil {
			return err
		}
		seniors, err := t.count(i, "senior_population")
		if err != nil {
			return err
		}
		if seniors > population {
			return t.fail(i, "senior_population", "exceeds population", nil)
		}

		rec := models.DistrictRecord{
			Key:              models.DistrictKey(state, district),
			State:            state,
			District:         district,
			PincodeGroup:     t.value(i, "pincode_group"),
			Population:       population,
			SeniorPopulation: seniors,
			PeriodDays:       1,
		}
		if existing, ok := ds.districts[rec.Key]; ok {
			if existing != rec {
				return t.fail(i, "district", "key "+rec.Key+" appears twice with different values", nil)
			}
			continue
		}
		ds.districts[rec.Key] = rec
	}
	return nil
}

type activity struct {
	volume, errors int64
	days           int
}

func (ds *Dataset) joinBiometric(t *table) error {
	seen := make(map[string]activity)
	for i := range t.rows {
		key, err := ds.lookup(t, i)
		if err != nil {
			return err
		}
		volume, err := t.count(i, "transaction_volume")
		if err != nil {
			return err
		}
		errs, err := t.count(i, "error_count")
		if err != nil {
			return err
		}
		days := int64(1)
		if t.has("period_days") && t.value(i, "period_days") != "" {
			if days, err = t.count(i, "period_days"); err != nil {
				return err
			}
			if days == 0 {
				return t.fail(i, "period_days", "must be positive", nil)
			}
		}

		act := activity{volume: volume, errors: errs, days: int(days)}
		if prev, ok := seen[key]; ok {
			if prev != act {
				return t.fail(i, "district", "key "+key+" appears twice with different values", nil)
			}
			continue
		}
		seen[key] = act

		rec := ds.districts[key]
		rec.TransactionVolume = volume
		rec.ErrorCount = errs
		rec.PeriodDays = int(days)
		ds.districts[key] = rec
	}

	keys := make([]string, 0, len(ds.districts))
	for key := range ds.districts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, ok := seen[key]; !ok {
			return &LoadError{Source: t.source, Field: "district", Reason: "no row for district " + key}
		}
	}
	return nil
}

func (ds *Dataset) joinEnrolment(t *table) error {
	seen := make(map[string]int64)
	for i := range t.rows {
		key, err := ds.lookup(t, i)
		if err != nil {
			return err
		}
		count, err := t.count(i, "enrollment_count")
		if err != nil {
			return err
		}
		if prev, ok := seen[key]; ok {
			if prev != count {
				return t.fail(i, "district", "key "+key+" appears twice with different values", nil)
			}
			continue
		}
		seen[key] = count

		rec := ds.districts[key]
		rec.EnrollmentCount = count
		ds.districts[key] = rec
	}
	return nil
}

func (ds *Dataset) joinCenters(t *table) error {
	byID := make(map[string]models.CenterRecord)
	for i := range t.rows {
		key, err := ds.lookup(t, i)
		if err != nil {
			return err
		}
		id, err := t.str(i, "center_id")
		if err != nil {
			return err
		}
		lat, err := t.number(i, "lat")
		if err != nil {
			return err
		}
		lon, err := t.number(i, "lon")
		if err != nil {
			return err
		}
		if !spatial.ValidCoordinate(lat, lon) {
			return t.fail(i, "lat", "coordinate out of range", nil)
		}
		capacity, err := t.number(i, "rated_capacity")
		if err != nil {
			return err
		}
		if capacity < 0 {
			return t.fail(i, "rated_capacity", "negative value", nil)
		}
		devices, err := t.count(i, "device_count")
		if err != nil {
			return err
		}
		utilization, err := t.number(i, "utilization")
		if err != nil {
			return err
		}
		if utilization < 0 {
			return t.fail(i, "utilization", "negative value", nil)
		}

		district := ds.districts[key]
		c := models.CenterRecord{
			ID:            id,
			Name:          t.value(i, "name"),
			State:         district.State,
			District:      district.District,
			Key:           key,
			Latitude:      lat,
			Longitude:     lon,
			RatedCapacity: capacity,
			DeviceCount:   int(devices),
			Utilization:   utilization,
		}
		if prev, ok := byID[id]; ok {
			if prev != c {
				return t.fail(i, "center_id", "center "+id+" appears twice with different values", nil)
			}
			continue
		}
		byID[id] = c
		ds.centers = append(ds.centers, c)
	}
	return nil
}

func (ds *Dataset) joinHistory(t *table) error {
	byKey := make(map[string]map[time.Time]float64)
	for i := range t.rows {
		key, err := ds.lookup(t, i)
		if err != nil {
			return err
		}
		date, err := t.date(i, "date")
		if err != nil {
			return err
		}
		volume, err := t.number(i, "volume")
		if err != nil {
			return err
		}
		if volume < 0 {
			return t.fail(i, "volume", "negative value", nil)
		}

		points, ok := byKey[key]
		if !ok {
			points = make(map[time.Time]float64)
			byKey[key] = points
		}
		if prev, ok := points[date]; ok {
			if prev != volume {
				return t.fail(i, "volume", fmt.Sprintf("%s on %s appears twice with different volumes", key, date.Format("2006-01-02")), nil)
			}
			continue
		}
		points[date] = volume
	}

	for key, points := range byKey {
		ds.history[key] = sortedSeries(points)
	}
	return nil
}

// lookup resolves the district a non-demographic row refers to
func (ds *Dataset) lookup(t *table, i int) (string, error) {
	state, err := t.str(i, "state")
	if err != nil {
		return "", err
	}
	district, err := t.str(i, "district")
	if err != nil {
		return "", err
	}
	key := models.DistrictKey(state, district)
	if _, ok := ds.districts[key]; !ok {
		return "", t.fail(i, "district", "unknown district "+key, nil)
	}
	return key, nil
}

// index builds the sorted views and the state and national series
func (ds *Dataset) index() {
	ds.keys = make([]string, 0, len(ds.districts))
	for key := range ds.districts {
		ds.keys = append(ds.keys, key)
	}
	sort.Strings(ds.keys)

	sort.Slice(ds.centers, func(i, j int) bool { return ds.centers[i].ID < ds.centers[j].ID })
	for _, c := range ds.centers {
		ds.centersByKey[c.Key] = append(ds.centersByKey[c.Key], c)
		ds.capacity[c.Key] += c.RatedCapacity
	}

	stateSums := make(map[string]map[time.Time]float64)
	nationalSums := make(map[time.Time]float64)
	seen := make(map[string]bool)
	for _, key := range ds.keys {
		rec := ds.districts[key]
		slug := models.Slug(rec.State)
		if !seen[slug] {
			seen[slug] = true
			ds.states = append(ds.states, StateRef{Slug: slug, Name: rec.State})
		}
		for _, p := range ds.history[key] {
			if stateSums[slug] == nil {
				stateSums[slug] = make(map[time.Time]float64)
			}
			stateSums[slug][p.Date] += p.Volume
			nationalSums[p.Date] += p.Volume
		}
	}
	sort.Slice(ds.states, func(i, j int) bool { return ds.states[i].Slug < ds.states[j].Slug })

	for slug, sums := range stateSums {
		ds.stateHistory[slug] = sortedSeries(sums)
	}
	ds.national = sortedSeries(nationalSums)
}

func sortedSeries(points map[time.Time]float64) []models.HistoryPoint {
	series := make([]models.HistoryPoint, 0, len(points))
	for date, volume := range points {
		series = append(series, models.HistoryPoint{Date: date, Volume: volume})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series
}

// District returns the record for a district key
func (ds *Dataset) District(key string) (models.DistrictRecord, bool) {
	rec, ok := ds.districts[key]
	return rec, ok
}

// Districts returns every district sorted by key
func (ds *Dataset) Districts() []models.DistrictRecord {
	out := make([]models.DistrictRecord, len(ds.keys))
	for i, key := range ds.keys {
		out[i] = ds.districts[key]
	}
	return out
}

// Centers returns every center sorted by id
func (ds *Dataset) Centers() []models.CenterRecord {
	return append([]models.CenterRecord(nil), ds.centers...)
}

// CentersIn returns the centers of one district sorted by id
func (ds *Dataset) CentersIn(key string) []models.CenterRecord {
	return append([]models.CenterRecord(nil), ds.centersByKey[key]...)
}

// Capacity returns the summed rated capacity of a district's centers
func (ds *Dataset) Capacity(key string) float64 {
	return ds.capacity[key]
}

// History returns the volume series of a district, oldest first
func (ds *Dataset) History(key string) []models.HistoryPoint {
	return append([]models.HistoryPoint(nil), ds.history[key]...)
}

// StateHistory returns the per-date sum over a state's districts
func (ds *Dataset) StateHistory(stateSlug string) []models.HistoryPoint {
	return append([]models.HistoryPoint(nil), ds.stateHistory[stateSlug]...)
}

// NationalHistory returns the per-date sum over all districts
func (ds *Dataset) NationalHistory() []models.HistoryPoint {
	return append([]models.HistoryPoint(nil), ds.national...)
}

// States returns the states present, sorted by slug
func (ds *Dataset) States() []StateRef {
	return append([]StateRef(nil), ds.states...)
}

// Digest is the sha256 of the raw inputs in source order
func (ds *Dataset) Digest() string {
	return ds.digest
}

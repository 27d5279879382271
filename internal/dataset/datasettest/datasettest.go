// Package datasettest writes a small multi-state dataset for tests
package datasettest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jengzang/sankhya-backend-go/internal/dataset"
)

// HistoryDays is the length of the generated daily series
const HistoryDays = 21

// HistoryStart is the first day of the generated series
var HistoryStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const demographic = `state,district,population,senior_population,pincode_group
Bihar,Patna,2000000,180000,800
Bihar,Gaya,1500000,120000,823
Bihar,Muzaffarpur,1200000,96000,842
Kerala,Ernakulam,3300000,500000,682
Kerala,Idukki,1100000,190000,685
Goa,North Goa,820000,90000,403
`

const biometric = `state,district,transaction_volume,error_count,period_days
Bihar,Patna,900000,9000,30
Bihar,Gaya,150000,3000,30
Bihar,Muzaffarpur,60000,1200,30
Kerala,Ernakulam,1200000,6000,30
Kerala,Idukki,9000,90,30
Goa,North Goa,180000,900,30
`

const enrolment = `state,district,enrollment_count
Bihar,Patna,4000
Bihar,Gaya,900
Kerala,Ernakulam,2500
Goa,North Goa,700
`

const centers = `center_id,name,state,district,lat,lon,rated_capacity,device_count,utilization
PAT-001,Patna Main,Bihar,Patna,25.594,85.137,1000,10,980
PAT-002,Patna City,Bihar,Patna,25.611,85.144,800,8,720
GAY-001,Gaya Central,Bihar,Gaya,24.796,85.003,1000,10,150
ERN-001,Kochi,Kerala,Ernakulam,9.981,76.283,3500,35,3400
IDK-001,Painavu,Kerala,Idukki,9.850,76.970,600,6,0
NGO-001,Panaji,Goa,North Goa,15.496,73.827,500,5,300
`

// history generates a weekly Patna pattern, a final-day Gaya surge, a
// rising Ernakulam trend and a three-day Idukki series
func history() string {
	var b strings.Builder
	b.WriteString("state,district,date,volume\n")
	for d := 0; d < HistoryDays; d++ {
		date := HistoryStart.AddDate(0, 0, d).Format("2006-01-02")

		patna := 1000 + 10*d
		if d%7 == 6 {
			patna -= 200
		}
		gaya := 200
		if d == HistoryDays-1 {
			gaya = 400
		}
		fmt.Fprintf(&b, "Bihar,Patna,%s,%d\n", date, patna)
		fmt.Fprintf(&b, "Bihar,Gaya,%s,%d\n", date, gaya)
		fmt.Fprintf(&b, "Kerala,Ernakulam,%s,%d\n", date, 800+5*d)
		if d >= HistoryDays-3 {
			fmt.Fprintf(&b, "Kerala,Idukki,%s,50\n", date)
		}
	}
	return b.String()
}

// WriteDir writes the fixture CSVs into dir
func WriteDir(t testing.TB, dir string) {
	t.Helper()
	files := map[string]string{
		dataset.DemographicFile: demographic,
		dataset.BiometricFile:   biometric,
		dataset.EnrolmentFile:   enrolment,
		dataset.CentersFile:     centers,
		dataset.HistoryFile:     history(),
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

// Dir writes the fixture into a fresh temp dir and returns it
func Dir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	WriteDir(t, dir)
	return dir
}

// Load writes and loads the fixture
func Load(t testing.TB) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(context.Background(), dataset.SourcesFromDir(Dir(t)))
	require.NoError(t, err)
	return ds
}

// Package export renders a snapshot artifact as an XLSX report
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jengzang/sankhya-backend-go/internal/models"
)

// Sheet names in workbook order
const (
	SheetSummary         = "Summary"
	SheetDistricts       = "Districts"
	SheetForecasts       = "Forecasts"
	SheetRecommendations = "Recommendations"
	SheetNeeds           = "Needs"
	SheetAnomalies       = "Anomalies"
)

// Workbook builds the report. The caller must Close the returned file.
func Workbook(a *models.Artifact) (*excelize.File, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DCE6F1"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	tables := []struct {
		sheet   string
		headers []string
		rows    [][]interface{}
		width   float64
	}{
		{SheetSummary, summaryHeaders, summaryRows(a), 16},
		{SheetDistricts, districtHeaders, districtRows(a), 14},
		{SheetForecasts, forecastHeaders, forecastRows(a), 14},
		{SheetRecommendations, recommendationHeaders, recommendationRows(a), 16},
		{SheetNeeds, needHeaders, needRows(a), 16},
		{SheetAnomalies, anomalyHeaders, anomalyRows(a), 14},
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", t.sheet, err)
		}
		if err := writeTable(f, t.sheet, t.headers, t.rows, header, t.width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write sheet %s: %w", t.sheet, err)
		}
	}

	return f, nil
}

// Write streams the report to w
func Write(w io.Writer, a *models.Artifact) error {
	f, err := Workbook(a)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveAs writes the report to path
func SaveAs(path string, a *models.Artifact) error {
	f, err := Workbook(a)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]interface{}, style int, width float64) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, width); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

var summaryHeaders = []string{
	"Scope", "Label", "Districts", "Mean DSI", "Critical", "Medium", "Low",
	"Blue Zones", "DEZ", "Centers", "Dead Centers", "Asset Efficiency %",
	"Population", "Senior Population", "Transactions",
}

func summaryRows(a *models.Artifact) [][]interface{} {
	row := func(s models.Summary) []interface{} {
		return []interface{}{
			s.Scope, s.Label, s.Districts, s.MeanDSI, s.CriticalDistricts, s.MediumDistricts, s.LowDistricts,
			s.BlueZones, s.DigitalExclusionZones, s.Centers, s.DeadCenters, s.AssetEfficiency,
			s.Population, s.SeniorPopulation, s.TransactionVolume,
		}
	}
	rows := [][]interface{}{row(a.National)}
	for _, s := range a.States {
		rows = append(rows, row(s))
	}
	return rows
}

var districtHeaders = []string{
	"Key", "State", "District", "DSI", "Tier", "Unserved", "Capacity", "Centers",
	"Senior Ratio", "Blue Zone", "Activity/Capita", "DEZ",
}

func districtRows(a *models.Artifact) [][]interface{} {
	rows := make([][]interface{}, 0, len(a.Districts))
	for _, d := range a.Districts {
		rows = append(rows, []interface{}{
			d.Key, d.State, d.District, d.DSI.Score, string(d.DSI.Tier), d.DSI.Unserved, d.Capacity, d.Centers,
			d.Zones.SeniorRatio, d.Zones.IsBlueZone, d.Zones.ActivityPerCapita, d.Zones.IsDigitalExclusionZone,
		})
	}
	return rows
}

var forecastHeaders = []string{
	"Entity", "Scope", "Model", "Degraded", "Offset", "Date", "Predicted", "Lower", "Upper", "Confidence",
}

func forecastRows(a *models.Artifact) [][]interface{} {
	var rows [][]interface{}
	for _, s := range a.Forecasts {
		for _, p := range s.Points {
			rows = append(rows, []interface{}{
				s.Entity, s.Scope, s.Model, s.Degraded, p.Offset, p.Date, p.Predicted, p.Lower, p.Upper, p.Confidence,
			})
		}
	}
	return rows
}

var recommendationHeaders = []string{
	"From", "From State", "To", "To State", "Units", "From %", "To %",
	"From % After", "To % After", "Distance km", "Priority",
}

func recommendationRows(a *models.Artifact) [][]interface{} {
	rows := make([][]interface{}, 0, len(a.Recommendations))
	for _, r := range a.Recommendations {
		rows = append(rows, []interface{}{
			r.FromCenterID, r.FromState, r.ToCenterID, r.ToState, r.Units, r.FromUtilization, r.ToUtilization,
			r.FromUtilizationAfter, r.ToUtilizationAfter, r.DistanceKm, r.Priority,
		})
	}
	return rows
}

var needHeaders = []string{
	"State", "Peak Demand", "Peak Date", "Capacity", "Centers", "Shortfall", "Per Center", "Additional Centers", "Priority",
}

func needRows(a *models.Artifact) [][]interface{} {
	rows := make([][]interface{}, 0, len(a.Needs))
	for _, n := range a.Needs {
		rows = append(rows, []interface{}{
			n.Label, n.PeakDemand, n.PeakDate, n.CurrentCapacity, n.CurrentCenters, n.Shortfall,
			n.CapacityPerCenter, n.AdditionalCentersNeeded, n.Priority,
		})
	}
	return rows
}

var anomalyHeaders = []string{"Key", "State", "District", "Latest", "Baseline", "Deviation %", "Type", "Severity"}

func anomalyRows(a *models.Artifact) [][]interface{} {
	rows := make([][]interface{}, 0, len(a.Anomalies))
	for _, an := range a.Anomalies {
		rows = append(rows, []interface{}{
			an.Key, an.State, an.District, an.Latest, an.Baseline, an.DeviationPct, an.Type, an.Severity,
		})
	}
	return rows
}

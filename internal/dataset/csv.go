package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// table is a parsed CSV source with columns addressed by header name
type table struct {
	source string
	header map[string]int
	rows   [][]string
	lines  []int
}

func parseTable(source string, data []byte, required []string) (*table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	head, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &LoadError{Source: source, Reason: "empty file"}
	}
	if err != nil {
		return nil, &LoadError{Source: source, Line: 1, Reason: "malformed header", Err: err}
	}

	t := &table{source: source, header: make(map[string]int, len(head))}
	for i, name := range head {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		t.header[name] = i
	}
	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			return nil, &LoadError{Source: source, Line: 1, Field: col, Reason: "missing required column"}
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line, _ := reader.FieldPos(0)
		if err != nil {
			return nil, &LoadError{Source: source, Line: line, Reason: "malformed row", Err: err}
		}
		if blank(record) {
			continue
		}
		t.rows = append(t.rows, record)
		t.lines = append(t.lines, line)
	}

	return t, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (t *table) has(field string) bool {
	_, ok := t.header[field]
	return ok
}

func (t *table) value(i int, field string) string {
	idx, ok := t.header[field]
	if !ok || idx >= len(t.rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.rows[i][idx])
}

func (t *table) fail(i int, field, reason string, err error) error {
	return &LoadError{Source: t.source, Line: t.lines[i], Field: field, Reason: reason, Err: err}
}

func (t *table) str(i int, field string) (string, error) {
	v := t.value(i, field)
	if v == "" {
		return "", t.fail(i, field, "missing value", nil)
	}
	return v, nil
}

func (t *table) count(i int, field string) (int64, error) {
	v := t.value(i, field)
	if v == "" {
		return 0, t.fail(i, field, "missing value", nil)
	}
	// Spreadsheet exports write whole numbers as "1200.0"
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, t.fail(i, field, "not an integer", err)
		}
		n = int64(f)
	}
	if n < 0 {
		return 0, t.fail(i, field, "negative value", nil)
	}
	return n, nil
}

func (t *table) number(i int, field string) (float64, error) {
	v := t.value(i, field)
	if v == "" {
		return 0, t.fail(i, field, "missing value", nil)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, t.fail(i, field, "not a number", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, t.fail(i, field, "not a finite number", nil)
	}
	return f, nil
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

func (t *table) date(i int, field string) (time.Time, error) {
	v := t.value(i, field)
	if v == "" {
		return time.Time{}, t.fail(i, field, "missing value", nil)
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, v); err == nil {
			return d, nil
		}
	}
	return time.Time{}, t.fail(i, field, "unrecognised date", nil)
}

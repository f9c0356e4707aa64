// Package ingest loads the air quality CSV dataset and keeps the store's
// in-memory table refreshed from it.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"airdash/internal/models"
)

// ErrDataUnavailable indicates the source CSV is missing or malformed.
var ErrDataUnavailable = errors.New("air quality dataset unavailable")

var requiredColumns = []string{
	"Date",
	"Country",
	"City",
	models.FieldAQI,
	models.FieldPM25,
	models.FieldPM10,
	models.FieldNO2,
	models.FieldSO2,
	models.FieldCO,
	models.FieldO3,
	models.FieldTemperature,
	models.FieldHumidity,
	models.FieldWindSpeed,
}

type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and cleans the dataset: rows with any missing or unparsable
// cell are dropped entirely, and the result is sorted by
// (country, city, date) ascending.
func (l *Loader) Load() ([]models.Observation, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDataUnavailable, l.path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads observations from CSV data. Exposed separately so tests can
// feed in-memory fixtures.
func Parse(r io.Reader) ([]models.Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrDataUnavailable, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrDataUnavailable, name)
		}
	}

	var rows []models.Observation
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row: %v", ErrDataUnavailable, err)
		}

		obs, ok := parseRow(record, cols)
		if !ok {
			continue
		}
		rows = append(rows, obs)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Country != rows[j].Country {
			return rows[i].Country < rows[j].Country
		}
		if rows[i].City != rows[j].City {
			return rows[i].City < rows[j].City
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	return rows, nil
}

// parseRow converts one CSV record. Any missing or malformed cell rejects
// the whole row; there is no partial-row tolerance.
func parseRow(record []string, cols map[string]int) (models.Observation, bool) {
	cell := func(name string) (string, bool) {
		idx := cols[name]
		if idx >= len(record) {
			return "", false
		}
		v := strings.TrimSpace(record[idx])
		if v == "" {
			return "", false
		}
		return v, true
	}

	var obs models.Observation
	var ok bool

	if obs.Country, ok = cell("Country"); !ok {
		return obs, false
	}
	if obs.City, ok = cell("City"); !ok {
		return obs, false
	}

	dateStr, ok := cell("Date")
	if !ok {
		return obs, false
	}
	date, err := time.Parse(models.DateFormat, dateStr)
	if err != nil {
		return obs, false
	}
	obs.Date = date

	numeric := []struct {
		name string
		dst  *float64
	}{
		{models.FieldAQI, &obs.AQI},
		{models.FieldPM25, &obs.PM25},
		{models.FieldPM10, &obs.PM10},
		{models.FieldNO2, &obs.NO2},
		{models.FieldSO2, &obs.SO2},
		{models.FieldCO, &obs.CO},
		{models.FieldO3, &obs.O3},
		{models.FieldTemperature, &obs.Temperature},
		{models.FieldHumidity, &obs.Humidity},
		{models.FieldWindSpeed, &obs.WindSpeed},
	}
	for _, n := range numeric {
		raw, ok := cell(n.name)
		if !ok {
			return obs, false
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return obs, false
		}
		*n.dst = v
	}

	return obs, true
}

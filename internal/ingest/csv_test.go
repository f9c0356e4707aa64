package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"airdash/internal/models"
)

const testHeader = "Date,Country,City,AQI,PM2.5 (µg/m³),PM10 (µg/m³),NO2 (ppb),SO2 (ppb),CO (ppm),O3 (ppb),Temperature (°C),Humidity (%),Wind Speed (m/s)"

func TestParse_SortsByCountryCityDate(t *testing.T) {
	csv := testHeader + "\n" +
		"2024-01-02,India,Delhi,180,90,120,40,10,1.2,30,22,60,2.1\n" +
		"2024-01-01,Brazil,Sao Paulo,70,20,35,25,5,0.6,40,28,70,3.0\n" +
		"2024-01-01,India,Delhi,175,85,115,38,9,1.1,28,21,58,1.8\n" +
		"2024-01-01,India,Agra,120,60,80,30,8,0.9,35,23,55,2.5\n"

	rows, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4", len(rows))
	}

	want := []struct {
		country, city, date string
	}{
		{"Brazil", "Sao Paulo", "2024-01-01"},
		{"India", "Agra", "2024-01-01"},
		{"India", "Delhi", "2024-01-01"},
		{"India", "Delhi", "2024-01-02"},
	}
	for i, w := range want {
		got := rows[i]
		if got.Country != w.country || got.City != w.city || got.Date.Format(models.DateFormat) != w.date {
			t.Errorf("rows[%d] = %s/%s/%s, want %s/%s/%s",
				i, got.Country, got.City, got.Date.Format(models.DateFormat),
				w.country, w.city, w.date)
		}
	}
}

func TestParse_DropsIncompleteRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"missing AQI", "2024-01-01,India,Delhi,,90,120,40,10,1.2,30,22,60,2.1"},
		{"missing city", "2024-01-01,India,,180,90,120,40,10,1.2,30,22,60,2.1"},
		{"bad number", "2024-01-01,India,Delhi,abc,90,120,40,10,1.2,30,22,60,2.1"},
		{"bad date", "01/01/2024,India,Delhi,180,90,120,40,10,1.2,30,22,60,2.1"},
		{"short record", "2024-01-01,India,Delhi,180,90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csv := testHeader + "\n" +
				tt.row + "\n" +
				"2024-01-02,India,Delhi,180,90,120,40,10,1.2,30,22,60,2.1\n"
			rows, err := Parse(strings.NewReader(csv))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(rows) != 1 {
				t.Fatalf("len(rows) = %d, want 1 (bad row dropped)", len(rows))
			}
		})
	}
}

func TestParse_ValuesRoundTrip(t *testing.T) {
	csv := testHeader + "\n" +
		"2024-03-15,India,Delhi,180.5,90.2,120.1,40.3,10.4,1.2,30.6,22.7,60.8,2.1\n"
	rows, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	o := rows[0]
	if o.AQI != 180.5 || o.PM25 != 90.2 || o.WindSpeed != 2.1 {
		t.Errorf("parsed values wrong: AQI=%v PM25=%v WindSpeed=%v", o.AQI, o.PM25, o.WindSpeed)
	}
}

func TestParse_MissingColumn(t *testing.T) {
	csv := "Date,Country,City\n2024-01-01,India,Delhi\n"
	_, err := Parse(strings.NewReader(csv))
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "missing.csv"))
	_, err := l.Load()
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

type captureSink struct {
	rows []models.Observation
	err  error
}

func (c *captureSink) Replace(rows []models.Observation) error {
	c.rows = rows
	return c.err
}

func TestRefresher_ReloadOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	csv := testHeader + "\n" +
		"2024-01-01,India,Delhi,180,90,120,40,10,1.2,30,22,60,2.1\n" +
		"2024-01-02,India,Delhi,170,85,110,38,9,1.1,28,21,58,1.8\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	sink := &captureSink{}
	r := NewRefresher(NewLoader(path), sink, 0)

	n, err := r.ReloadOnce()
	if err != nil {
		t.Fatalf("ReloadOnce: %v", err)
	}
	if n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}
	if len(sink.rows) != 2 {
		t.Errorf("sink received %d rows, want 2", len(sink.rows))
	}
}

func TestRefresher_ReloadOnce_MissingFile(t *testing.T) {
	sink := &captureSink{}
	r := NewRefresher(NewLoader(filepath.Join(t.TempDir(), "nope.csv")), sink, 0)
	if _, err := r.ReloadOnce(); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

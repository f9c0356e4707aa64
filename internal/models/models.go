package models

import (
	"errors"
	"time"
)

// Field names match the CSV column headers so API consumers can use the
// same identifiers for filtering and forecasting targets.
const (
	FieldAQI         = "AQI"
	FieldPM25        = "PM2.5 (µg/m³)"
	FieldPM10        = "PM10 (µg/m³)"
	FieldNO2         = "NO2 (ppb)"
	FieldSO2         = "SO2 (ppb)"
	FieldCO          = "CO (ppm)"
	FieldO3          = "O3 (ppb)"
	FieldTemperature = "Temperature (°C)"
	FieldHumidity    = "Humidity (%)"
	FieldWindSpeed   = "Wind Speed (m/s)"
)

// ErrUnknownField is returned when a requested column is not part of the dataset.
var ErrUnknownField = errors.New("unknown field")

// Observation is a single cleaned dataset row. Rows with any missing value
// are dropped at load time, so every field here is always populated.
type Observation struct {
	Country     string
	City        string
	Date        time.Time
	AQI         float64
	PM25        float64
	PM10        float64
	NO2         float64
	SO2         float64
	CO          float64
	O3          float64
	Temperature float64
	Humidity    float64
	WindSpeed   float64
}

var pollutants = []string{
	FieldPM25,
	FieldPM10,
	FieldNO2,
	FieldSO2,
	FieldCO,
	FieldO3,
}

var weatherFields = []string{
	FieldTemperature,
	FieldHumidity,
	FieldWindSpeed,
}

// Pollutants returns the fixed ordered list of tracked pollutant fields.
// Callers get a copy; the canonical order also decides tie-breaks in
// comparative analysis.
func Pollutants() []string {
	out := make([]string, len(pollutants))
	copy(out, pollutants)
	return out
}

// WeatherFields returns the tracked weather variable fields.
func WeatherFields() []string {
	out := make([]string, len(weatherFields))
	copy(out, weatherFields)
	return out
}

// NumericFields returns every numeric column: AQI, the six pollutants and
// the three weather variables, in that order.
func NumericFields() []string {
	out := make([]string, 0, 1+len(pollutants)+len(weatherFields))
	out = append(out, FieldAQI)
	out = append(out, pollutants...)
	out = append(out, weatherFields...)
	return out
}

// IsPollutant reports whether name is one of the six tracked pollutants.
func IsPollutant(name string) bool {
	for _, p := range pollutants {
		if p == name {
			return true
		}
	}
	return false
}

// Value returns the named numeric column of an observation.
func Value(o Observation, field string) (float64, error) {
	switch field {
	case FieldAQI:
		return o.AQI, nil
	case FieldPM25:
		return o.PM25, nil
	case FieldPM10:
		return o.PM10, nil
	case FieldNO2:
		return o.NO2, nil
	case FieldSO2:
		return o.SO2, nil
	case FieldCO:
		return o.CO, nil
	case FieldO3:
		return o.O3, nil
	case FieldTemperature:
		return o.Temperature, nil
	case FieldHumidity:
		return o.Humidity, nil
	case FieldWindSpeed:
		return o.WindSpeed, nil
	}
	return 0, ErrUnknownField
}

// Column extracts one numeric column across a row slice.
func Column(rows []Observation, field string) ([]float64, error) {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		v, err := Value(r, field)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// MonthlyMean is the average AQI for one (year, month) bucket.
// JSON keys mirror the dashboard's expected record shape.
type MonthlyMean struct {
	Year  int     `json:"Year"`
	Month int     `json:"Month"`
	AQI   float64 `json:"AQI"`
}

// YearlyMean is the average AQI for one calendar year.
type YearlyMean struct {
	Year int     `json:"Year"`
	AQI  float64 `json:"AQI"`
}

// DateFormat is the day-precision format used throughout the API and store.
const DateFormat = "2006-01-02"

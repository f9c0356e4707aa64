// Package compare benchmarks AQI behavior across a set of selected cities
// or countries.
package compare

import (
	"errors"
	"strings"

	"gonum.org/v1/gonum/stat"

	"airdash/internal/models"
	"airdash/internal/trend"
)

// ErrInvalidSelection indicates an empty or malformed comparison request.
var ErrInvalidSelection = errors.New("invalid comparative selection")

// Comparison modes.
const (
	ModeCity    = "city"
	ModeCountry = "country"
)

// Summary is the comparative block for one selection.
type Summary struct {
	Name                  string               `json:"name"`
	MeanAQI               float64              `json:"mean_aqi"`
	MaxAQI                float64              `json:"max_aqi"`
	MinAQI                float64              `json:"min_aqi"`
	StdDevAQI             float64              `json:"std_dev_aqi"`
	DominantPollutant     string               `json:"dominant_pollutant"`
	MostVariablePollutant string               `json:"most_variable_pollutant"`
	MonthlyAvgAQI         []models.MonthlyMean `json:"monthly_avg_aqi"`
	YearlyAvgAQI          []models.YearlyMean  `json:"yearly_avg_aqi"`
	RecentAQI             *float64             `json:"recent_aqi"`
}

// Fetch resolves one selection name to its observations.
type Fetch func(name string) ([]models.Observation, error)

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Compare builds a Summary per selection. Selections with no matching rows
// are silently skipped; a request with no usable selections at all is
// still a valid (empty) result.
func (e *Engine) Compare(mode string, selections []string, fetch Fetch) ([]Summary, error) {
	if mode != ModeCity && mode != ModeCountry {
		return nil, ErrInvalidSelection
	}
	if len(selections) == 0 {
		return nil, ErrInvalidSelection
	}
	for _, sel := range selections {
		if strings.TrimSpace(sel) == "" {
			return nil, ErrInvalidSelection
		}
	}

	out := []Summary{}
	for _, name := range selections {
		rows, err := fetch(name)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}
		out = append(out, summarize(name, rows))
	}
	return out, nil
}

func summarize(name string, rows []models.Observation) Summary {
	aqi := make([]float64, len(rows))
	for i, r := range rows {
		aqi[i] = r.AQI
	}

	s := Summary{
		Name:    name,
		MeanAQI: stat.Mean(aqi, nil),
		MaxAQI:  aqi[0],
		MinAQI:  aqi[0],
	}
	for _, v := range aqi {
		if v > s.MaxAQI {
			s.MaxAQI = v
		}
		if v < s.MinAQI {
			s.MinAQI = v
		}
	}
	if len(aqi) > 1 {
		s.StdDevAQI = stat.StdDev(aqi, nil)
	}

	s.DominantPollutant, s.MostVariablePollutant = pollutantProfile(rows)

	s.MonthlyAvgAQI = trend.MonthlyMeans(rows)
	s.YearlyAvgAQI = trend.YearlyMeans(rows)
	if n := len(s.MonthlyAvgAQI); n > 0 {
		recent := s.MonthlyAvgAQI[n-1].AQI
		s.RecentAQI = &recent
	}

	return s
}

// pollutantProfile picks the pollutant with the highest mean and the one
// with the highest standard deviation. Ties resolve to the earlier entry
// in the canonical pollutant order.
func pollutantProfile(rows []models.Observation) (dominant, mostVariable string) {
	var bestMean, bestStd float64
	for _, name := range models.Pollutants() {
		col, err := models.Column(rows, name)
		if err != nil {
			continue
		}
		mean := stat.Mean(col, nil)
		var std float64
		if len(col) > 1 {
			std = stat.StdDev(col, nil)
		}
		if dominant == "" || mean > bestMean {
			dominant = name
			bestMean = mean
		}
		if mostVariable == "" || std > bestStd {
			mostVariable = name
			bestStd = std
		}
	}
	return dominant, mostVariable
}

// Package forecast fits a per-city additive trend+seasonality model to an
// AQI or pollutant series, extends it over a future horizon with
// uncertainty bounds, flags anomalous forecast points, and optionally
// applies an emission-reduction scenario to the future trajectory.
package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"airdash/internal/models"
)

// ErrInsufficientData is returned when a series has too few points to fit.
var ErrInsufficientData = errors.New("insufficient data for forecasting")

// MinPoints is the minimum chronological points required to fit a model.
const MinPoints = 20

// DefaultPeriods is the forecast horizon used when the caller does not
// specify one.
const DefaultPeriods = 30

const anomalyPercentile = 90

// z-score for a 95% interval.
const intervalZ = 1.96

// Point is one predicted value, historical or future.
type Point struct {
	Date       string  `json:"Date"`
	Predicted  float64 `json:"predicted"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	Type       string  `json:"type"` // "historical" or "forecast"
}

// ScenarioPoint is one step of the emission-reduction trajectory.
type ScenarioPoint struct {
	Date     string  `json:"Date"`
	Adjusted float64 `json:"adjusted"`
}

// Result is the full forecast payload for one (city, target) pair.
type Result struct {
	City             string          `json:"city"`
	Target           string          `json:"target"`
	Points           []Point         `json:"forecast"`
	Anomalies        []Point         `json:"anomalies"`
	AnomalyThreshold *float64        `json:"anomaly_threshold"`
	Scenario         []ScenarioPoint `json:"scenario,omitempty"`
	ReductionApplied *float64        `json:"emission_reduction,omitempty"`
}

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Forecast runs the full pipeline over one city's chronologically sorted
// observations. A city with no rows at all yields an empty result, not an
// error; a known target with 1..19 points is ErrInsufficientData.
func (e *Engine) Forecast(city string, obs []models.Observation, target string, periods int, reduction *float64) (*Result, error) {
	if target == "" {
		target = models.FieldAQI
	}
	if target != models.FieldAQI && !models.IsPollutant(target) {
		return nil, fmt.Errorf("%w: %q is not a forecastable series", models.ErrUnknownField, target)
	}
	if periods <= 0 {
		periods = DefaultPeriods
	}

	values, err := models.Column(obs, target)
	if err != nil {
		return nil, err
	}

	res := &Result{
		City:      city,
		Target:    target,
		Points:    []Point{},
		Anomalies: []Point{},
	}
	if len(obs) == 0 {
		return res, nil
	}
	if len(values) < MinPoints {
		return nil, fmt.Errorf("%w: %s has %d points, need %d", ErrInsufficientData, city, len(values), MinPoints)
	}

	dates := make([]time.Time, len(obs))
	for i, o := range obs {
		dates[i] = o.Date
	}

	model := Fit(dates, values)
	lastDate := dates[len(dates)-1]

	// Historical predictions cover the observed dates; the forecast bucket
	// continues in daily steps past the last observed date. The boundary
	// date itself is historical.
	var historical, future []Point
	for _, d := range dates {
		historical = append(historical, model.Predict(d, "historical"))
	}
	for i := 1; i <= periods; i++ {
		future = append(future, model.Predict(lastDate.AddDate(0, 0, i), "forecast"))
	}
	res.Points = append(res.Points, historical...)
	res.Points = append(res.Points, future...)

	res.AnomalyThreshold, res.Anomalies = detectAnomalies(historical, future)

	if reduction != nil {
		res.Scenario = scenario(values[len(values)-1], *reduction, future)
		res.ReductionApplied = reduction
	}

	return res, nil
}

// detectAnomalies flags forecast points whose prediction strictly exceeds
// the 90th percentile of the historical predictions. With an empty
// historical or forecast bucket there is nothing to compare against and
// the threshold stays nil.
func detectAnomalies(historical, future []Point) (*float64, []Point) {
	anomalies := []Point{}
	if len(historical) == 0 || len(future) == 0 {
		return nil, anomalies
	}

	predicted := make([]float64, len(historical))
	for i, p := range historical {
		predicted[i] = p.Predicted
	}
	threshold, err := stats.Percentile(predicted, anomalyPercentile)
	if err != nil {
		return nil, anomalies
	}

	for _, p := range future {
		if p.Predicted > threshold {
			anomalies = append(anomalies, p)
		}
	}
	return &threshold, anomalies
}

// scenario applies a flat emission reduction: the last known value scaled
// by (1 - reduction), held constant across the horizon. This is a
// constant-offset what-if, deliberately not a refit of the model.
func scenario(lastValue, reduction float64, future []Point) []ScenarioPoint {
	adjusted := lastValue * (1 - reduction)
	out := make([]ScenarioPoint, len(future))
	for i, p := range future {
		out[i] = ScenarioPoint{Date: p.Date, Adjusted: adjusted}
	}
	return out
}

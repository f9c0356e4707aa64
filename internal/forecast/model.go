package forecast

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"airdash/internal/models"
)

// Model is an additive trend + seasonality fit: an OLS linear trend over
// the day index plus a mean residual offset per calendar month, with a
// single residual sigma for the uncertainty band.
type Model struct {
	intercept float64
	slope     float64
	seasonal  [13]float64 // indexed by time.Month, 1..12
	sigma     float64
	start     time.Time
}

// Fit builds the additive model from a chronologically sorted series.
// Callers guarantee at least MinPoints values.
func Fit(dates []time.Time, values []float64) *Model {
	m := &Model{start: dates[0]}

	xs := make([]float64, len(dates))
	for i, d := range dates {
		xs[i] = dayIndex(m.start, d)
	}
	m.intercept, m.slope = stat.LinearRegression(xs, values, nil, false)

	// Seasonal offsets are the mean detrended residual per calendar month.
	var sums, counts [13]float64
	residuals := make([]float64, len(values))
	for i, v := range values {
		residuals[i] = v - (m.intercept + m.slope*xs[i])
		month := int(dates[i].Month())
		sums[month] += residuals[i]
		counts[month]++
	}
	for month := 1; month <= 12; month++ {
		if counts[month] > 0 {
			m.seasonal[month] = sums[month] / counts[month]
		}
	}

	// Sigma over the final residuals, after removing the seasonal part.
	final := make([]float64, len(values))
	for i := range values {
		final[i] = residuals[i] - m.seasonal[int(dates[i].Month())]
	}
	if len(final) > 1 {
		m.sigma = stat.StdDev(final, nil)
	}

	return m
}

// Predict evaluates the model at one date with its 95% uncertainty band.
func (m *Model) Predict(date time.Time, kind string) Point {
	x := dayIndex(m.start, date)
	yhat := m.intercept + m.slope*x + m.seasonal[int(date.Month())]
	band := intervalZ * m.sigma
	return Point{
		Date:       date.Format(models.DateFormat),
		Predicted:  yhat,
		LowerBound: yhat - band,
		UpperBound: yhat + band,
		Type:       kind,
	}
}

func dayIndex(start, d time.Time) float64 {
	return d.Sub(start).Hours() / 24
}

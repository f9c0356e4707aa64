// Package trend extracts per-city AQI trends: monthly and yearly means,
// pollution spikes, regression-based trend classification, seasonal
// highlights, and health-impact labeling.
package trend

import (
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"airdash/internal/models"
	"airdash/internal/refdata"
)

// Trend classifications. A slope steeper than ±0.5 AQI/year moves a city
// out of "stable"; fewer than 2 yearly points cannot be classified at all.
const (
	TrendImproving        = "improving"
	TrendDeteriorating    = "deteriorating"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient data"
)

const slopeThreshold = 0.5

type Engine struct {
	ref *refdata.Reference
}

func New(ref *refdata.Reference) *Engine {
	return &Engine{ref: ref}
}

// SeasonalHighlights reports the months with the highest and lowest
// cross-year average AQI.
type SeasonalHighlights struct {
	SpikeMonths []MonthPattern `json:"spike_months"`
	DropMonths  []MonthPattern `json:"drop_months"`
}

// MonthPattern is the cross-year average AQI for one calendar month.
type MonthPattern struct {
	Month int     `json:"Month"`
	AQI   float64 `json:"AQI"`
}

// CityTrend is the full trend block for one city.
type CityTrend struct {
	MonthlyAvgAQI []models.MonthlyMean `json:"monthly_avg_aqi"`
	YearlyAvgAQI  []models.YearlyMean  `json:"yearly_avg_aqi"`
	Spikes        []models.MonthlyMean `json:"spikes"`
	Trend         string               `json:"trend"`
	HealthImpact  string               `json:"health_impact"`
	Seasonal      *SeasonalHighlights  `json:"seasonal,omitempty"`
}

// CityTrends computes the trend block from one city's observations.
func (e *Engine) CityTrends(obs []models.Observation) CityTrend {
	monthly := MonthlyMeans(obs)
	yearly := YearlyMeans(obs)

	ct := CityTrend{
		MonthlyAvgAQI: monthly,
		YearlyAvgAQI:  yearly,
		Spikes:        []models.MonthlyMean{},
		Trend:         ClassifyTrend(yearly),
		HealthImpact:  "Unknown",
		Seasonal:      SeasonalPattern(monthly),
	}

	// Spike threshold comes from the raw daily rows, not the monthly means.
	daily := make([]float64, len(obs))
	for i, o := range obs {
		daily[i] = o.AQI
	}
	if threshold, err := stats.Percentile(daily, 90); err == nil {
		for _, m := range monthly {
			if m.AQI > threshold {
				ct.Spikes = append(ct.Spikes, m)
			}
		}
	}

	if len(monthly) > 0 {
		ct.HealthImpact = HealthImpact(monthly[len(monthly)-1].AQI)
	}

	return ct
}

// MonthlyMeans groups observations by (year, month) and averages AQI,
// returned in chronological order.
func MonthlyMeans(obs []models.Observation) []models.MonthlyMean {
	type key struct{ year, month int }
	sums := make(map[key]float64)
	counts := make(map[key]int)
	for _, o := range obs {
		k := key{o.Date.Year(), int(o.Date.Month())}
		sums[k] += o.AQI
		counts[k]++
	}

	out := make([]models.MonthlyMean, 0, len(sums))
	for k, sum := range sums {
		out = append(out, models.MonthlyMean{Year: k.year, Month: k.month, AQI: sum / float64(counts[k])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// YearlyMeans groups observations by year and averages AQI.
func YearlyMeans(obs []models.Observation) []models.YearlyMean {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, o := range obs {
		sums[o.Date.Year()] += o.AQI
		counts[o.Date.Year()]++
	}

	out := make([]models.YearlyMean, 0, len(sums))
	for year, sum := range sums {
		out = append(out, models.YearlyMean{Year: year, AQI: sum / float64(counts[year])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// ClassifyTrend fits an ordinary least-squares slope of yearly mean AQI
// against year and maps it to a classification.
func ClassifyTrend(yearly []models.YearlyMean) string {
	if len(yearly) < 2 {
		return TrendInsufficientData
	}

	xs := make([]float64, len(yearly))
	ys := make([]float64, len(yearly))
	for i, y := range yearly {
		xs[i] = float64(y.Year)
		ys[i] = y.AQI
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)

	switch {
	case slope < -slopeThreshold:
		return TrendImproving
	case slope > slopeThreshold:
		return TrendDeteriorating
	default:
		return TrendStable
	}
}

// SeasonalPattern averages the monthly means by calendar month across years
// and reports the top-2 and bottom-2 months. Needs at least 2 distinct
// months; returns nil otherwise.
func SeasonalPattern(monthly []models.MonthlyMean) *SeasonalHighlights {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, m := range monthly {
		sums[m.Month] += m.AQI
		counts[m.Month]++
	}
	if len(sums) < 2 {
		return nil
	}

	byMonth := make([]MonthPattern, 0, len(sums))
	for month, sum := range sums {
		byMonth = append(byMonth, MonthPattern{Month: month, AQI: sum / float64(counts[month])})
	}
	sort.Slice(byMonth, func(i, j int) bool { return byMonth[i].AQI > byMonth[j].AQI })

	top := 2
	highlights := &SeasonalHighlights{
		SpikeMonths: append([]MonthPattern(nil), byMonth[:top]...),
		DropMonths:  append([]MonthPattern(nil), byMonth[len(byMonth)-top:]...),
	}
	// Bottom months in ascending AQI order.
	sort.Slice(highlights.DropMonths, func(i, j int) bool {
		return highlights.DropMonths[i].AQI < highlights.DropMonths[j].AQI
	})
	return highlights
}

// HealthImpact maps an AQI value onto the standard six-band classification.
// The bands partition [0, inf) with inclusive upper bounds.
func HealthImpact(aqi float64) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

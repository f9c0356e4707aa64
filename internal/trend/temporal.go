package trend

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"airdash/internal/models"
)

// Holiday effect classifications. A ±2 AQI deadband around the non-holiday
// mean separates a genuine shift from noise.
const (
	EffectImproved         = "improved"
	EffectWorsened         = "worsened"
	EffectNoChange         = "no_change"
	EffectInsufficientData = "insufficient_data"
)

const holidayDeadband = 2.0

// TemporalPattern is the per-city temporal analysis block.
type TemporalPattern struct {
	WeekdayAvgAQI  []WeekdayMean  `json:"weekday_avg_aqi"`
	WeekdayMeanAQI *float64       `json:"weekday_mean_aqi"`
	WeekendMeanAQI *float64       `json:"weekend_mean_aqi"`
	DailyAvgAQI    []DailyMean    `json:"daily_avg_aqi"`
	WeeklyAvgAQI   []WeeklyMean   `json:"weekly_avg_aqi"`
	MonthlyPattern []MonthPattern `json:"monthly_pattern"`
	HolidayEffect  HolidayEffect  `json:"holiday_effect"`
	ExtremeEvents  []ExtremeEvent `json:"extreme_events"`
	YearOverYear   []YearChange   `json:"year_over_year"`
	MonthOverMonth []MonthChange  `json:"month_over_month"`
}

type WeekdayMean struct {
	Weekday string  `json:"weekday"`
	AQI     float64 `json:"AQI"`
}

type DailyMean struct {
	Date string  `json:"Date"`
	AQI  float64 `json:"AQI"`
}

type WeeklyMean struct {
	Year int     `json:"Year"`
	Week int     `json:"Week"`
	AQI  float64 `json:"AQI"`
}

type HolidayEffect struct {
	HolidayAvgAQI    *float64 `json:"holiday_avg_aqi"`
	NonHolidayAvgAQI *float64 `json:"non_holiday_avg_aqi"`
	Effect           string   `json:"effect"`
}

type ExtremeEvent struct {
	Date string  `json:"Date"`
	AQI  float64 `json:"AQI"`
	Note string  `json:"note"`
}

type YearChange struct {
	Year      int      `json:"Year"`
	AQI       float64  `json:"AQI"`
	ChangePct *float64 `json:"change_pct"`
}

type MonthChange struct {
	Year      int      `json:"Year"`
	Month     int      `json:"Month"`
	AQI       float64  `json:"AQI"`
	ChangePct *float64 `json:"change_pct"`
}

// TemporalPatterns mines weekday/weekend, daily, weekly and calendar
// patterns plus holiday and extreme-event effects from one city's rows.
func (e *Engine) TemporalPatterns(obs []models.Observation) TemporalPattern {
	monthly := MonthlyMeans(obs)
	tp := TemporalPattern{
		WeekdayAvgAQI:  weekdayMeans(obs),
		DailyAvgAQI:    dailyMeans(obs),
		WeeklyAvgAQI:   weeklyMeans(obs),
		MonthlyPattern: monthlyPattern(monthly),
		HolidayEffect:  e.holidayEffect(obs),
		ExtremeEvents:  e.extremeEvents(obs),
		YearOverYear:   yearOverYear(YearlyMeans(obs)),
		MonthOverMonth: monthOverMonth(monthly),
	}

	var weekdaySum, weekendSum float64
	var weekdayN, weekendN int
	for _, o := range obs {
		if isWeekend(o.Date) {
			weekendSum += o.AQI
			weekendN++
		} else {
			weekdaySum += o.AQI
			weekdayN++
		}
	}
	if weekdayN > 0 {
		v := weekdaySum / float64(weekdayN)
		tp.WeekdayMeanAQI = &v
	}
	if weekendN > 0 {
		v := weekendSum / float64(weekendN)
		tp.WeekendMeanAQI = &v
	}

	return tp
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

func weekdayMeans(obs []models.Observation) []WeekdayMean {
	sums := make(map[time.Weekday]float64)
	counts := make(map[time.Weekday]int)
	for _, o := range obs {
		sums[o.Date.Weekday()] += o.AQI
		counts[o.Date.Weekday()]++
	}

	order := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	out := make([]WeekdayMean, 0, len(sums))
	for _, wd := range order {
		if counts[wd] == 0 {
			continue
		}
		out = append(out, WeekdayMean{Weekday: wd.String(), AQI: sums[wd] / float64(counts[wd])})
	}
	return out
}

func dailyMeans(obs []models.Observation) []DailyMean {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, o := range obs {
		d := o.Date.Format(models.DateFormat)
		sums[d] += o.AQI
		counts[d]++
	}

	out := make([]DailyMean, 0, len(sums))
	for d, sum := range sums {
		out = append(out, DailyMean{Date: d, AQI: sum / float64(counts[d])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func weeklyMeans(obs []models.Observation) []WeeklyMean {
	type key struct{ year, week int }
	sums := make(map[key]float64)
	counts := make(map[key]int)
	for _, o := range obs {
		y, w := o.Date.ISOWeek()
		k := key{y, w}
		sums[k] += o.AQI
		counts[k]++
	}

	out := make([]WeeklyMean, 0, len(sums))
	for k, sum := range sums {
		out = append(out, WeeklyMean{Year: k.year, Week: k.week, AQI: sum / float64(counts[k])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Week < out[j].Week
	})
	return out
}

func monthlyPattern(monthly []models.MonthlyMean) []MonthPattern {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, m := range monthly {
		sums[m.Month] += m.AQI
		counts[m.Month]++
	}

	out := make([]MonthPattern, 0, len(sums))
	for month, sum := range sums {
		out = append(out, MonthPattern{Month: month, AQI: sum / float64(counts[month])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// holidayEffect compares mean AQI on calendar holidays against all other
// days, with a deadband so tiny differences read as no change.
func (e *Engine) holidayEffect(obs []models.Observation) HolidayEffect {
	var holidaySum, otherSum float64
	var holidayN, otherN int
	for _, o := range obs {
		if e.ref.IsHoliday(o.Date.Format(models.DateFormat)) {
			holidaySum += o.AQI
			holidayN++
		} else {
			otherSum += o.AQI
			otherN++
		}
	}

	he := HolidayEffect{Effect: EffectInsufficientData}
	if holidayN > 0 {
		v := holidaySum / float64(holidayN)
		he.HolidayAvgAQI = &v
	}
	if otherN > 0 {
		v := otherSum / float64(otherN)
		he.NonHolidayAvgAQI = &v
	}
	if he.HolidayAvgAQI == nil || he.NonHolidayAvgAQI == nil {
		return he
	}

	diff := *he.HolidayAvgAQI - *he.NonHolidayAvgAQI
	switch {
	case diff < -holidayDeadband:
		he.Effect = EffectImproved
	case diff > holidayDeadband:
		he.Effect = EffectWorsened
	default:
		he.Effect = EffectNoChange
	}
	return he
}

// extremeEvents flags rows above the city's own 99th percentile and
// annotates those matching the documented event calendar.
func (e *Engine) extremeEvents(obs []models.Observation) []ExtremeEvent {
	daily := make([]float64, len(obs))
	for i, o := range obs {
		daily[i] = o.AQI
	}
	threshold, err := stats.Percentile(daily, 99)
	if err != nil {
		return []ExtremeEvent{}
	}

	events := []ExtremeEvent{}
	for _, o := range obs {
		if o.AQI <= threshold {
			continue
		}
		date := o.Date.Format(models.DateFormat)
		note := "unusual AQI spike"
		if _, ok := e.ref.KnownEvent(date); ok {
			note = "known extreme event"
		}
		events = append(events, ExtremeEvent{Date: date, AQI: o.AQI, Note: note})
	}
	return events
}

func yearOverYear(yearly []models.YearlyMean) []YearChange {
	out := make([]YearChange, 0, len(yearly))
	for i, y := range yearly {
		yc := YearChange{Year: y.Year, AQI: y.AQI}
		if i > 0 && yearly[i-1].AQI != 0 {
			pct := (y.AQI - yearly[i-1].AQI) / yearly[i-1].AQI * 100
			yc.ChangePct = &pct
		}
		out = append(out, yc)
	}
	return out
}

func monthOverMonth(monthly []models.MonthlyMean) []MonthChange {
	out := make([]MonthChange, 0, len(monthly))
	for i, m := range monthly {
		mc := MonthChange{Year: m.Year, Month: m.Month, AQI: m.AQI}
		if i > 0 && monthly[i-1].AQI != 0 {
			pct := (m.AQI - monthly[i-1].AQI) / monthly[i-1].AQI * 100
			mc.ChangePct = &pct
		}
		out = append(out, mc)
	}
	return out
}

package trend

import (
	"testing"
	"time"

	"airdash/internal/models"
	"airdash/internal/refdata"
)

func TestTemporalPatterns_WeekdayWeekendSplit(t *testing.T) {
	// 2024-01-06/07 is a weekend, 2024-01-08/09 are weekdays.
	rows := []models.Observation{
		obs(t, "2024-01-06", 40),
		obs(t, "2024-01-07", 60),
		obs(t, "2024-01-08", 100),
		obs(t, "2024-01-09", 120),
	}
	e := New(refdata.Default())
	tp := e.TemporalPatterns(rows)

	if tp.WeekendMeanAQI == nil || *tp.WeekendMeanAQI != 50 {
		t.Errorf("WeekendMeanAQI = %v, want 50", tp.WeekendMeanAQI)
	}
	if tp.WeekdayMeanAQI == nil || *tp.WeekdayMeanAQI != 110 {
		t.Errorf("WeekdayMeanAQI = %v, want 110", tp.WeekdayMeanAQI)
	}
	if len(tp.WeekdayAvgAQI) != 4 {
		t.Errorf("len(WeekdayAvgAQI) = %d, want 4 distinct weekdays", len(tp.WeekdayAvgAQI))
	}
	if len(tp.DailyAvgAQI) != 4 {
		t.Errorf("len(DailyAvgAQI) = %d, want 4", len(tp.DailyAvgAQI))
	}
}

func TestHolidayEffect(t *testing.T) {
	e := New(refdata.Default())

	tests := []struct {
		name       string
		holidayAQI float64
		want       string
	}{
		{"worsened", 105, EffectWorsened},
		{"improved", 95, EffectImproved},
		{"within deadband", 101, EffectNoChange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []models.Observation{
				obs(t, "2024-01-01", tt.holidayAQI), // New Year's Day
				obs(t, "2024-01-02", 100),
				obs(t, "2024-01-03", 100),
			}
			he := e.holidayEffect(rows)
			if he.Effect != tt.want {
				t.Errorf("Effect = %q, want %q", he.Effect, tt.want)
			}
			if he.HolidayAvgAQI == nil || *he.HolidayAvgAQI != tt.holidayAQI {
				t.Errorf("HolidayAvgAQI = %v, want %v", he.HolidayAvgAQI, tt.holidayAQI)
			}
			if he.NonHolidayAvgAQI == nil || *he.NonHolidayAvgAQI != 100 {
				t.Errorf("NonHolidayAvgAQI = %v, want 100", he.NonHolidayAvgAQI)
			}
		})
	}
}

func TestHolidayEffect_NoHolidays(t *testing.T) {
	e := New(refdata.Default())
	rows := []models.Observation{
		obs(t, "2024-01-02", 100),
		obs(t, "2024-01-03", 100),
	}
	he := e.holidayEffect(rows)
	if he.Effect != EffectInsufficientData {
		t.Errorf("Effect = %q, want %q", he.Effect, EffectInsufficientData)
	}
	if he.HolidayAvgAQI != nil {
		t.Errorf("HolidayAvgAQI = %v, want nil", *he.HolidayAvgAQI)
	}
}

func TestExtremeEvents(t *testing.T) {
	// One huge outlier above the city's own 99th percentile, placed on a
	// documented event date; a second on an ordinary date.
	var rows []models.Observation
	for day := 1; day <= 28; day++ {
		rows = append(rows, obs(t, time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC).Format(models.DateFormat), 50))
	}
	rows = append(rows,
		obs(t, "2024-03-15", 400), // Saharan dust transport event
		obs(t, "2024-04-01", 390),
	)

	e := New(refdata.Default())
	events := e.extremeEvents(rows)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Date != "2024-03-15" {
		t.Errorf("Date = %q, want 2024-03-15", events[0].Date)
	}
	if events[0].Note != "known extreme event" {
		t.Errorf("Note = %q, want known extreme event", events[0].Note)
	}
}

func TestExtremeEvents_UnknownSpike(t *testing.T) {
	var rows []models.Observation
	for day := 1; day <= 28; day++ {
		rows = append(rows, obs(t, time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC).Format(models.DateFormat), 50))
	}
	rows = append(rows, obs(t, "2024-04-02", 400))

	e := New(refdata.Default())
	events := e.extremeEvents(rows)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Note != "unusual AQI spike" {
		t.Errorf("Note = %q, want unusual AQI spike", events[0].Note)
	}
}

func TestYearOverYear(t *testing.T) {
	yearly := []models.YearlyMean{
		{Year: 2022, AQI: 100},
		{Year: 2023, AQI: 110},
		{Year: 2024, AQI: 99},
	}
	got := yearOverYear(yearly)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ChangePct != nil {
		t.Errorf("first year ChangePct = %v, want nil", *got[0].ChangePct)
	}
	if got[1].ChangePct == nil || *got[1].ChangePct != 10 {
		t.Errorf("2023 ChangePct = %v, want 10", got[1].ChangePct)
	}
	if got[2].ChangePct == nil || *got[2].ChangePct != -10 {
		t.Errorf("2024 ChangePct = %v, want -10", got[2].ChangePct)
	}
}

func TestMonthOverMonth_ZeroPrevious(t *testing.T) {
	monthly := []models.MonthlyMean{
		{Year: 2024, Month: 1, AQI: 0},
		{Year: 2024, Month: 2, AQI: 50},
	}
	got := monthOverMonth(monthly)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].ChangePct != nil {
		t.Errorf("ChangePct after zero month = %v, want nil", *got[1].ChangePct)
	}
}

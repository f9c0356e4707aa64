package trend

import (
	"testing"
	"time"

	"airdash/internal/models"
	"airdash/internal/refdata"
)

func obs(t *testing.T, date string, aqi float64) models.Observation {
	t.Helper()
	d, err := time.Parse(models.DateFormat, date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	return models.Observation{Country: "India", City: "Delhi", Date: d, AQI: aqi}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		yearly []models.YearlyMean
		want   string
	}{
		{
			"improving",
			[]models.YearlyMean{{Year: 2021, AQI: 100}, {Year: 2022, AQI: 95}, {Year: 2023, AQI: 90}},
			TrendImproving,
		},
		{
			"deteriorating",
			[]models.YearlyMean{{Year: 2021, AQI: 90}, {Year: 2022, AQI: 95}, {Year: 2023, AQI: 100}},
			TrendDeteriorating,
		},
		{
			"stable",
			[]models.YearlyMean{{Year: 2021, AQI: 90}, {Year: 2022, AQI: 90.2}, {Year: 2023, AQI: 90.4}},
			TrendStable,
		},
		{
			"single year",
			[]models.YearlyMean{{Year: 2023, AQI: 90}},
			TrendInsufficientData,
		},
		{
			"no data",
			nil,
			TrendInsufficientData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrend(tt.yearly); got != tt.want {
				t.Errorf("ClassifyTrend = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHealthImpact(t *testing.T) {
	tests := []struct {
		aqi  float64
		want string
	}{
		{0, "Good"},
		{50, "Good"},
		{51, "Moderate"},
		{100, "Moderate"},
		{101, "Unhealthy for Sensitive Groups"},
		{150, "Unhealthy for Sensitive Groups"},
		{151, "Unhealthy"},
		{200, "Unhealthy"},
		{201, "Very Unhealthy"},
		{300, "Very Unhealthy"},
		{301, "Hazardous"},
		{999, "Hazardous"},
	}
	for _, tt := range tests {
		if got := HealthImpact(tt.aqi); got != tt.want {
			t.Errorf("HealthImpact(%v) = %q, want %q", tt.aqi, got, tt.want)
		}
	}
}

func TestMonthlyMeans(t *testing.T) {
	rows := []models.Observation{
		obs(t, "2023-01-10", 100),
		obs(t, "2023-01-20", 120),
		obs(t, "2023-02-05", 80),
		obs(t, "2024-01-05", 60),
	}
	got := MonthlyMeans(rows)
	want := []models.MonthlyMean{
		{Year: 2023, Month: 1, AQI: 110},
		{Year: 2023, Month: 2, AQI: 80},
		{Year: 2024, Month: 1, AQI: 60},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestYearlyMeans(t *testing.T) {
	rows := []models.Observation{
		obs(t, "2023-01-10", 100),
		obs(t, "2023-06-10", 200),
		obs(t, "2024-01-10", 50),
	}
	got := YearlyMeans(rows)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Year != 2023 || got[0].AQI != 150 {
		t.Errorf("got[0] = %+v, want 2023/150", got[0])
	}
	if got[1].Year != 2024 || got[1].AQI != 50 {
		t.Errorf("got[1] = %+v, want 2024/50", got[1])
	}
}

func TestCityTrends_Spikes(t *testing.T) {
	// Nine quiet January days and three extreme February days. The February
	// monthly mean sits above the 90th percentile of the raw daily values.
	var rows []models.Observation
	for day := 1; day <= 9; day++ {
		rows = append(rows, obs(t, time.Date(2023, 1, day, 0, 0, 0, 0, time.UTC).Format(models.DateFormat), 50))
	}
	rows = append(rows,
		obs(t, "2023-02-01", 190),
		obs(t, "2023-02-02", 200),
		obs(t, "2023-02-03", 210),
	)

	e := New(refdata.Default())
	ct := e.CityTrends(rows)

	if len(ct.Spikes) != 1 {
		t.Fatalf("len(Spikes) = %d, want 1", len(ct.Spikes))
	}
	if ct.Spikes[0].Month != 2 || ct.Spikes[0].AQI != 200 {
		t.Errorf("spike = %+v, want Feb/200", ct.Spikes[0])
	}
	if ct.Trend != TrendInsufficientData {
		t.Errorf("Trend = %q, want %q for a single year", ct.Trend, TrendInsufficientData)
	}
	if ct.HealthImpact != "Unhealthy" {
		t.Errorf("HealthImpact = %q, want Unhealthy (latest month mean 200)", ct.HealthImpact)
	}
}

func TestSeasonalPattern(t *testing.T) {
	monthly := []models.MonthlyMean{
		{Year: 2023, Month: 1, AQI: 100},
		{Year: 2023, Month: 4, AQI: 60},
		{Year: 2023, Month: 7, AQI: 40},
		{Year: 2023, Month: 11, AQI: 150},
	}
	got := SeasonalPattern(monthly)
	if got == nil {
		t.Fatal("SeasonalPattern returned nil")
	}
	if len(got.SpikeMonths) != 2 || got.SpikeMonths[0].Month != 11 || got.SpikeMonths[1].Month != 1 {
		t.Errorf("SpikeMonths = %+v, want Nov then Jan", got.SpikeMonths)
	}
	if len(got.DropMonths) != 2 || got.DropMonths[0].Month != 7 || got.DropMonths[1].Month != 4 {
		t.Errorf("DropMonths = %+v, want Jul then Apr", got.DropMonths)
	}
}

func TestSeasonalPattern_SingleMonth(t *testing.T) {
	monthly := []models.MonthlyMean{
		{Year: 2023, Month: 1, AQI: 100},
		{Year: 2024, Month: 1, AQI: 120},
	}
	if got := SeasonalPattern(monthly); got != nil {
		t.Errorf("SeasonalPattern = %+v, want nil with one distinct month", got)
	}
}

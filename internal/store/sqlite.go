// Package store keeps the cleaned dataset in an in-memory SQLite table.
// The table is replaced wholesale on each reload; there is no on-disk
// persistence and no incremental update path.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"airdash/internal/models"
)

type Store struct {
	db *sql.DB

	mu       sync.RWMutex
	loadedAt time.Time
	rowCount int
}

// Open creates the in-memory database and applies the schema. A single
// connection is enforced so every statement sees the same :memory: database.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Replace swaps the full dataset in one transaction.
func (s *Store) Replace(rows []models.Observation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM observations`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear observations: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO observations (country, city, date, aqi, pm25, pm10, no2, so2, co, o3, temperature, humidity, wind_speed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range rows {
		if _, err := stmt.Exec(
			o.Country, o.City, o.Date.Format(models.DateFormat),
			o.AQI, o.PM25, o.PM10, o.NO2, o.SO2, o.CO, o.O3,
			o.Temperature, o.Humidity, o.WindSpeed,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}

	s.mu.Lock()
	s.loadedAt = time.Now().UTC()
	s.rowCount = len(rows)
	s.mu.Unlock()

	return nil
}

// RowCount returns the number of rows loaded by the last Replace.
func (s *Store) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rowCount
}

// LoadedAt returns when the dataset was last replaced; zero before any load.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *Store) Countries() ([]string, error) {
	return s.distinct(`SELECT DISTINCT country FROM observations ORDER BY country`)
}

// Cities returns the distinct city names, optionally restricted to a country.
func (s *Store) Cities(country string) ([]string, error) {
	if country == "" {
		return s.distinct(`SELECT DISTINCT city FROM observations ORDER BY city`)
	}
	return s.distinct(`SELECT DISTINCT city FROM observations WHERE country = ? ORDER BY city`, country)
}

func (s *Store) distinct(query string, args ...any) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Filter narrows a Select query. Zero values mean "no constraint";
// Start and End are inclusive yyyy-mm-dd date strings.
type Filter struct {
	Country string
	City    string
	Start   string
	End     string
}

// Select returns matching observations sorted by (country, city, date).
func (s *Store) Select(f Filter) ([]models.Observation, error) {
	var where []string
	var args []any
	if f.Country != "" {
		where = append(where, "country = ?")
		args = append(args, f.Country)
	}
	if f.City != "" {
		where = append(where, "city = ?")
		args = append(args, f.City)
	}
	if f.Start != "" {
		where = append(where, "date >= ?")
		args = append(args, f.Start)
	}
	if f.End != "" {
		where = append(where, "date <= ?")
		args = append(args, f.End)
	}

	query := `
		SELECT country, city, date, aqi, pm25, pm10, no2, so2, co, o3, temperature, humidity, wind_speed
		FROM observations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY country, city, date"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		var o models.Observation
		var date string
		if err := rows.Scan(&o.Country, &o.City, &date, &o.AQI, &o.PM25, &o.PM10, &o.NO2, &o.SO2, &o.CO, &o.O3, &o.Temperature, &o.Humidity, &o.WindSpeed); err != nil {
			return nil, err
		}
		o.Date, err = time.Parse(models.DateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) CityObservations(city string) ([]models.Observation, error) {
	return s.Select(Filter{City: city})
}

func (s *Store) CountryObservations(country string) ([]models.Observation, error) {
	return s.Select(Filter{Country: country})
}

// MonthlyMeanAQI returns per-(year, month) average AQI for a city, in
// chronological order.
func (s *Store) MonthlyMeanAQI(city string) ([]models.MonthlyMean, error) {
	rows, err := s.db.Query(`
		SELECT CAST(SUBSTR(date, 1, 4) AS INTEGER) AS year,
		       CAST(SUBSTR(date, 6, 2) AS INTEGER) AS month,
		       AVG(aqi)
		FROM observations
		WHERE city = ?
		GROUP BY year, month
		ORDER BY year, month
	`, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MonthlyMean
	for rows.Next() {
		var m models.MonthlyMean
		if err := rows.Scan(&m.Year, &m.Month, &m.AQI); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// YearlyMeanAQI returns per-year average AQI for a city.
func (s *Store) YearlyMeanAQI(city string) ([]models.YearlyMean, error) {
	rows, err := s.db.Query(`
		SELECT CAST(SUBSTR(date, 1, 4) AS INTEGER) AS year, AVG(aqi)
		FROM observations
		WHERE city = ?
		GROUP BY year
		ORDER BY year
	`, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.YearlyMean
	for rows.Next() {
		var y models.YearlyMean
		if err := rows.Scan(&y.Year, &y.AQI); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// PollutantStat is the per-pollutant aggregate for one city.
type PollutantStat struct {
	Average float64
	Max     float64
}

// PollutantStats returns average and max concentration per pollutant for a
// city, keyed by pollutant field name.
func (s *Store) PollutantStats(city string) (map[string]PollutantStat, error) {
	row := s.db.QueryRow(`
		SELECT AVG(pm25), MAX(pm25), AVG(pm10), MAX(pm10), AVG(no2), MAX(no2),
		       AVG(so2), MAX(so2), AVG(co), MAX(co), AVG(o3), MAX(o3)
		FROM observations
		WHERE city = ?
	`, city)

	stats := make([]sql.NullFloat64, 12)
	dests := make([]any, 12)
	for i := range stats {
		dests[i] = &stats[i]
	}
	if err := row.Scan(dests...); err != nil {
		return nil, err
	}

	out := make(map[string]PollutantStat, len(models.Pollutants()))
	for i, name := range models.Pollutants() {
		avg, max := stats[2*i], stats[2*i+1]
		if !avg.Valid || !max.Valid {
			continue
		}
		out[name] = PollutantStat{Average: avg.Float64, Max: max.Float64}
	}
	return out, nil
}

// Summary is the dataset-wide dashboard summary.
type Summary struct {
	Rows         int                `json:"rows"`
	Countries    int                `json:"countries"`
	Cities       int                `json:"cities"`
	AverageAQI   *float64           `json:"average_aqi"`
	LatestDate   string             `json:"latest_date,omitempty"`
	PollutantAvg map[string]float64 `json:"-"`
}

// Summarize computes the dashboard summary in SQL.
func (s *Store) Summarize() (*Summary, error) {
	var sum Summary
	var avg sql.NullFloat64
	var latest sql.NullString
	err := s.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT country), COUNT(DISTINCT city), AVG(aqi), MAX(date)
		FROM observations
	`).Scan(&sum.Rows, &sum.Countries, &sum.Cities, &avg, &latest)
	if err != nil {
		return nil, err
	}
	if avg.Valid {
		sum.AverageAQI = &avg.Float64
	}
	if latest.Valid {
		sum.LatestDate = latest.String
	}

	sum.PollutantAvg = make(map[string]float64)
	if sum.Rows > 0 {
		row := s.db.QueryRow(`SELECT AVG(pm25), AVG(pm10), AVG(no2), AVG(so2), AVG(co), AVG(o3) FROM observations`)
		avgs := make([]float64, 6)
		dests := make([]any, 6)
		for i := range avgs {
			dests[i] = &avgs[i]
		}
		if err := row.Scan(dests...); err != nil {
			return nil, err
		}
		for i, name := range models.Pollutants() {
			sum.PollutantAvg[name] = avgs[i]
		}
	}
	return &sum, nil
}

// CountryExtreme names the highest- and lowest-AQI city within one country.
type CountryExtreme struct {
	HighestCity string  `json:"highest_aqi_city"`
	HighestAQI  float64 `json:"highest_aqi_value"`
	LowestCity  string  `json:"lowest_aqi_city"`
	LowestAQI   float64 `json:"lowest_aqi_value"`
}

// CountryExtremes returns per-country AQI extremes, keyed by country name.
// Ties on AQI resolve to the first city in scan order.
func (s *Store) CountryExtremes() (map[string]CountryExtreme, error) {
	out := make(map[string]CountryExtreme)

	rows, err := s.db.Query(`
		SELECT o.country, o.city, o.aqi
		FROM observations o
		JOIN (SELECT country, MAX(aqi) AS max_aqi FROM observations GROUP BY country) hi
		  ON o.country = hi.country AND o.aqi = hi.max_aqi
		GROUP BY o.country
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var country, city string
		var aqi float64
		if err := rows.Scan(&country, &city, &aqi); err != nil {
			return nil, err
		}
		e := out[country]
		e.HighestCity = city
		e.HighestAQI = aqi
		out[country] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`
		SELECT o.country, o.city, o.aqi
		FROM observations o
		JOIN (SELECT country, MIN(aqi) AS min_aqi FROM observations GROUP BY country) lo
		  ON o.country = lo.country AND o.aqi = lo.min_aqi
		GROUP BY o.country
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var country, city string
		var aqi float64
		if err := rows.Scan(&country, &city, &aqi); err != nil {
			return nil, err
		}
		e := out[country]
		e.LowestCity = city
		e.LowestAQI = aqi
		out[country] = e
	}
	return out, rows.Err()
}

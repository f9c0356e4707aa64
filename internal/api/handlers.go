package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"airdash/internal/compare"
	"airdash/internal/models"
	"airdash/internal/refdata"
	"airdash/internal/stats"
	"airdash/internal/store"
)

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.store.Countries()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countries)
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	cities, err := s.store.Cities(r.URL.Query().Get("country"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cities)
}

func (s *Server) handlePollutants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Pollutants())
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pollutant := q.Get("pollutant")
	if pollutant != "" && !models.IsPollutant(pollutant) {
		writeError(w, models.ErrUnknownField)
		return
	}

	rows, err := s.store.Select(store.Filter{
		Country: q.Get("country"),
		City:    q.Get("city"),
		Start:   q.Get("start_date"),
		End:     q.Get("end_date"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		entry := map[string]any{
			"Date":    row.Date.Format(models.DateFormat),
			"City":    row.City,
			"Country": row.Country,
			"AQI":     row.AQI,
		}
		if pollutant != "" {
			v, _ := models.Value(row, pollutant)
			entry[pollutant] = v
		} else {
			for _, name := range models.Pollutants() {
				v, _ := models.Value(row, name)
				entry[name] = v
			}
		}
		result = append(result, entry)
	}
	writeJSON(w, http.StatusOK, result)
}

// eachCity runs fn over every city's observations, building a response map
// keyed by city name.
func (s *Server) eachCity(fn func(obs []models.Observation) any) (map[string]any, error) {
	cities, err := s.store.Cities("")
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(cities))
	for _, city := range cities {
		obs, err := s.store.CityObservations(city)
		if err != nil {
			return nil, err
		}
		if len(obs) == 0 {
			continue
		}
		out[city] = fn(obs)
	}
	return out, nil
}

func (s *Server) handleCityTrends(w http.ResponseWriter, r *http.Request) {
	result, err := s.eachCity(func(obs []models.Observation) any {
		return s.trends.CityTrends(obs)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTemporalPatterns(w http.ResponseWriter, r *http.Request) {
	result, err := s.eachCity(func(obs []models.Observation) any {
		return s.trends.TemporalPatterns(obs)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type compositionEntry struct {
	Average                float64  `json:"average"`
	Max                    float64  `json:"max"`
	PercentageContribution *float64 `json:"percentage_contribution"`
}

func (s *Server) handleComposition(w http.ResponseWriter, r *http.Request) {
	cities, err := s.store.Cities("")
	if err != nil {
		writeError(w, err)
		return
	}

	result := make(map[string]map[string]compositionEntry, len(cities))
	for _, city := range cities {
		pstats, err := s.store.PollutantStats(city)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(pstats) == 0 {
			continue
		}
		result[city] = composition(pstats)
	}
	writeJSON(w, http.StatusOK, result)
}

// composition converts per-pollutant averages into shares of the combined
// average. Shares are null when the combined average is zero.
func composition(pstats map[string]store.PollutantStat) map[string]compositionEntry {
	var total float64
	for _, ps := range pstats {
		total += ps.Average
	}
	out := make(map[string]compositionEntry, len(pstats))
	for name, ps := range pstats {
		entry := compositionEntry{Average: ps.Average, Max: ps.Max}
		if total > 0 {
			pct := stats.Round3(ps.Average / total * 100)
			entry.PercentageContribution = &pct
		}
		out[name] = entry
	}
	return out
}

type timelapseMonth struct {
	Year       int                         `json:"Year"`
	Month      int                         `json:"Month"`
	Pollutants map[string]compositionEntry `json:"pollutants"`
}

type timelapseResponse struct {
	Cities        map[string][]timelapseMonth      `json:"cities"`
	PollutantInfo map[string]refdata.PollutantInfo `json:"pollutant_info"`
}

func (s *Server) handleCompositionTimelapse(w http.ResponseWriter, r *http.Request) {
	byCity, err := s.eachCity(func(obs []models.Observation) any {
		return monthlyComposition(obs)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := timelapseResponse{
		Cities:        make(map[string][]timelapseMonth, len(byCity)),
		PollutantInfo: s.ref.PollutantMetadata(),
	}
	for city, months := range byCity {
		resp.Cities[city] = months.([]timelapseMonth)
	}
	writeJSON(w, http.StatusOK, resp)
}

func monthlyComposition(obs []models.Observation) []timelapseMonth {
	type key struct{ year, month int }
	groups := make(map[key][]models.Observation)
	for _, o := range obs {
		k := key{o.Date.Year(), int(o.Date.Month())}
		groups[k] = append(groups[k], o)
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]timelapseMonth, 0, len(keys))
	for _, k := range keys {
		rows := groups[k]
		pstats := make(map[string]store.PollutantStat, len(models.Pollutants()))
		for _, name := range models.Pollutants() {
			col, err := models.Column(rows, name)
			if err != nil || len(col) == 0 {
				continue
			}
			ps := store.PollutantStat{Max: col[0]}
			var sum float64
			for _, v := range col {
				sum += v
				if v > ps.Max {
					ps.Max = v
				}
			}
			ps.Average = sum / float64(len(col))
			pstats[name] = ps
		}
		out = append(out, timelapseMonth{
			Year:       k.year,
			Month:      k.month,
			Pollutants: composition(pstats),
		})
	}
	return out
}

type pairwiseCorrelation struct {
	Pearson  *float64 `json:"pearson"`
	Spearman *float64 `json:"spearman"`
}

type cityCorrelation struct {
	Pairwise      map[string]pairwiseCorrelation `json:"pairwise"`
	HeatmapFields []string                       `json:"heatmap_fields"`
	Heatmap       [][]*float64                   `json:"heatmap"`
	TimeLag       map[string]map[string]*float64 `json:"time_lag"`
	Partial       map[string]*float64            `json:"partial"`
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	result, err := s.eachCity(func(obs []models.Observation) any {
		return correlate(obs)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func correlate(obs []models.Observation) cityCorrelation {
	fields := models.NumericFields()
	aqi, _ := models.Column(obs, models.FieldAQI)

	out := cityCorrelation{
		Pairwise:      make(map[string]pairwiseCorrelation),
		HeatmapFields: fields,
		TimeLag:       make(map[string]map[string]*float64),
		Partial:       make(map[string]*float64),
	}

	columns := make([][]float64, len(fields))
	for i, name := range fields {
		columns[i], _ = models.Column(obs, name)
	}
	out.Heatmap = stats.Heatmap(columns)

	for i, name := range fields {
		if name == models.FieldAQI {
			continue
		}
		out.Pairwise[name] = pairwiseCorrelation{
			Pearson:  stats.Pearson(aqi, columns[i]),
			Spearman: stats.Spearman(aqi, columns[i]),
		}

		lags := make(map[string]*float64, 5)
		for lag := 1; lag <= 5; lag++ {
			lags[strconv.Itoa(lag)] = stats.TimeLag(aqi, columns[i], lag)
		}
		out.TimeLag[name] = lags
	}

	controls := make([][]float64, 0, len(models.Pollutants()))
	for _, name := range models.Pollutants() {
		col, _ := models.Column(obs, name)
		controls = append(controls, col)
	}
	for _, name := range models.WeatherFields() {
		col, _ := models.Column(obs, name)
		out.Partial[name] = stats.Partial(aqi, col, controls)
	}

	return out
}

type comparativeRequest struct {
	Mode       string   `json:"mode"`
	Selections []string `json:"selections"`
}

func (s *Server) handleComparative(w http.ResponseWriter, r *http.Request) {
	var req comparativeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, compare.ErrInvalidSelection)
		return
	}

	fetch := s.store.CityObservations
	if req.Mode == compare.ModeCountry {
		fetch = s.store.CountryObservations
	}

	result, err := s.compares.Compare(req.Mode, req.Selections, fetch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type forecastRequest struct {
	City              string   `json:"city"`
	Pollutant         string   `json:"pollutant"`
	Periods           int      `json:"periods"`
	EmissionReduction *float64 `json:"emission_reduction"`
}

func parseForecastRequest(r *http.Request) (forecastRequest, error) {
	var req forecastRequest
	if r.Method == http.MethodPost {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}

	q := r.URL.Query()
	req.City = q.Get("city")
	req.Pollutant = q.Get("pollutant")
	if v := q.Get("periods"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, err
		}
		req.Periods = n
	}
	if v := q.Get("emission_reduction"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, err
		}
		req.EmissionReduction = &f
	}
	return req, nil
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	req, err := parseForecastRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.City == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "city is required"})
		return
	}

	obs, err := s.store.CityObservations(req.City)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.forecasts.Forecast(req.City, obs, req.Pollutant, req.Periods, req.EmissionReduction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "reload not configured"})
		return
	}
	rows, err := s.refresher.ReloadOnce()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rows": rows})
}

type summaryResponse struct {
	store.Summary
	DominantPollutant string                          `json:"dominant_pollutant"`
	CountryExtremes   map[string]store.CountryExtreme `json:"country_extremes"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summarize()
	if err != nil {
		writeError(w, err)
		return
	}
	extremes, err := s.store.CountryExtremes()
	if err != nil {
		writeError(w, err)
		return
	}

	resp := summaryResponse{Summary: *summary, CountryExtremes: extremes}
	var best float64
	for _, name := range models.Pollutants() {
		avg, ok := summary.PollutantAvg[name]
		if !ok {
			continue
		}
		if resp.DominantPollutant == "" || avg > best {
			resp.DominantPollutant = name
			best = avg
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status   string `json:"status"`
	Rows     int    `json:"rows"`
	LoadedAt string `json:"loaded_at,omitempty"`
	Stale    bool   `json:"stale"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Rows: s.store.RowCount()}
	if t := s.store.LoadedAt(); !t.IsZero() {
		resp.LoadedAt = t.UTC().Format(time.RFC3339)
	}
	if resp.Rows == 0 {
		resp.Status = "degraded"
		resp.Stale = true
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

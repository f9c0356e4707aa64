// Package refdata holds static reference metadata: pollutant health and
// source descriptions plus the holiday and known-event calendars used by
// the temporal analysis. Everything is built once at startup and read-only
// afterwards.
package refdata

import "airdash/internal/models"

// PollutantInfo is descriptive metadata for one pollutant. It is display
// text for the dashboard, not derived from the dataset.
type PollutantInfo struct {
	HealthRisks []string `json:"health_risks"`
	Sources     []string `json:"sources"`
}

// Reference is the immutable lookup bundle injected into the engines.
type Reference struct {
	pollutantInfo map[string]PollutantInfo
	holidays      map[string]string
	knownEvents   map[string]string
}

// Default builds the standard reference set.
func Default() *Reference {
	return &Reference{
		pollutantInfo: map[string]PollutantInfo{
			models.FieldPM25: {
				HealthRisks: []string{"Respiratory irritation", "Aggravated asthma", "Cardiovascular disease", "Premature mortality"},
				Sources:     []string{"Vehicle exhaust", "Industrial combustion", "Wildfires", "Residential wood burning"},
			},
			models.FieldPM10: {
				HealthRisks: []string{"Coughing and wheezing", "Reduced lung function", "Bronchitis"},
				Sources:     []string{"Road dust", "Construction", "Agriculture", "Mining"},
			},
			models.FieldNO2: {
				HealthRisks: []string{"Airway inflammation", "Increased respiratory infections", "Asthma development"},
				Sources:     []string{"Vehicle emissions", "Power plants", "Industrial boilers"},
			},
			models.FieldSO2: {
				HealthRisks: []string{"Bronchoconstriction", "Eye irritation", "Aggravated cardiovascular disease"},
				Sources:     []string{"Coal combustion", "Oil refineries", "Metal smelting", "Volcanic activity"},
			},
			models.FieldCO: {
				HealthRisks: []string{"Reduced oxygen delivery", "Headaches and dizziness", "Cardiovascular stress"},
				Sources:     []string{"Vehicle exhaust", "Incomplete combustion", "Residential heating"},
			},
			models.FieldO3: {
				HealthRisks: []string{"Chest pain", "Throat irritation", "Lung tissue damage", "Worsened asthma"},
				Sources:     []string{"Photochemical reactions of NOx and VOCs", "Vehicle and industrial emissions under sunlight"},
			},
		},
		holidays: map[string]string{
			"2023-01-01": "New Year's Day",
			"2023-05-01": "Labour Day",
			"2023-07-04": "Independence Day",
			"2023-11-12": "Diwali",
			"2023-12-25": "Christmas Day",
			"2023-12-31": "New Year's Eve",
			"2024-01-01": "New Year's Day",
			"2024-02-10": "Lunar New Year",
			"2024-05-01": "Labour Day",
			"2024-10-31": "Diwali",
			"2024-12-25": "Christmas Day",
		},
		knownEvents: map[string]string{
			"2023-06-07": "North American wildfire smoke episode",
			"2023-11-03": "Post-harvest crop burning peak",
			"2024-03-15": "Saharan dust transport event",
			"2024-06-20": "Regional heat wave ozone episode",
		},
	}
}

// PollutantInfo returns the metadata for a pollutant field name.
func (r *Reference) PollutantInfo(name string) (PollutantInfo, bool) {
	info, ok := r.pollutantInfo[name]
	return info, ok
}

// PollutantMetadata returns the full pollutant metadata table, keyed by field name.
func (r *Reference) PollutantMetadata() map[string]PollutantInfo {
	out := make(map[string]PollutantInfo, len(r.pollutantInfo))
	for k, v := range r.pollutantInfo {
		out[k] = v
	}
	return out
}

// IsHoliday reports whether a yyyy-mm-dd date string is on the holiday calendar.
func (r *Reference) IsHoliday(date string) bool {
	_, ok := r.holidays[date]
	return ok
}

// HolidayName returns the holiday name for a date, if any.
func (r *Reference) HolidayName(date string) (string, bool) {
	name, ok := r.holidays[date]
	return name, ok
}

// KnownEvent returns the description of a documented extreme event on the
// given date, if any.
func (r *Reference) KnownEvent(date string) (string, bool) {
	name, ok := r.knownEvents[date]
	return name, ok
}

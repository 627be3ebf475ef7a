// Package model defines the record types returned by the lookup service.
package model

// County is one distinct (county, state, county code) tuple a ZIP code
// resolves to. A single ZIP can span county lines and resolve to several.
type County struct {
	County            string `json:"county"`
	StateAbbreviation string `json:"state_abbreviation"`
	CountyCode        string `json:"county_code"`
}

// StateCodePrefix returns the first two characters of the county code,
// which encode the state in the rankings table's state_code column.
func (c County) StateCodePrefix() string {
	if len(c.CountyCode) < 2 {
		return c.CountyCode
	}
	return c.CountyCode[:2]
}

// HealthRecord is one row of the county_health_rankings table. Every field
// is a string at the response boundary; SQL NULL scans to "".
type HealthRecord struct {
	ConfidenceIntervalLowerBound string `json:"confidence_interval_lower_bound"`
	ConfidenceIntervalUpperBound string `json:"confidence_interval_upper_bound"`
	County                       string `json:"county"`
	CountyCode                   string `json:"county_code"`
	DataReleaseYear              string `json:"data_release_year"`
	Denominator                  string `json:"denominator"`
	FIPSCode                     string `json:"fipscode"`
	MeasureID                    string `json:"measure_id"`
	MeasureName                  string `json:"measure_name"`
	Numerator                    string `json:"numerator"`
	RawValue                     string `json:"raw_value"`
	State                        string `json:"state"`
	StateCode                    string `json:"state_code"`
	YearSpan                     string `json:"year_span"`
}

package api

import (
	"encoding/json"

	"github.com/sells-group/county-health-api/internal/catalog"
)

// RejectKind enumerates why a county-data request was refused.
type RejectKind int

const (
	RejectBadJSON RejectKind = iota
	RejectMissingZip
	RejectInvalidZip
	RejectMissingMeasure
	RejectInvalidMeasure
)

// CountyDataRequest is a validated lookup request.
type CountyDataRequest struct {
	Zip         string
	MeasureName string
}

// Rejection carries the client-facing message for a failed validation.
// ValidMeasures is set only for RejectInvalidMeasure.
type Rejection struct {
	Kind          RejectKind
	Message       string
	ValidMeasures []string
}

// validateCountyData checks the raw request body and returns either a
// validated request, the teapot short-circuit, or a rejection. The body is
// decoded into a generic map so that, say, a numeric zip is reported as an
// invalid zip rather than a decode failure. No storage is touched here.
func validateCountyData(body []byte) (CountyDataRequest, bool, *Rejection) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return CountyDataRequest{}, false, &Rejection{
			Kind:    RejectBadJSON,
			Message: "Content-Type must be application/json",
		}
	}

	// Teapot easter egg: checked before, and bypassing, all other rules.
	if coffee, ok := payload["coffee"].(string); ok && coffee == "teapot" {
		return CountyDataRequest{}, true, nil
	}

	zipVal, ok := payload["zip"]
	if !ok {
		return CountyDataRequest{}, false, &Rejection{
			Kind:    RejectMissingZip,
			Message: "zip is required",
		}
	}
	zip, ok := zipVal.(string)
	if !ok || !isFiveDigits(zip) {
		return CountyDataRequest{}, false, &Rejection{
			Kind:    RejectInvalidZip,
			Message: "zip must be a 5-digit string",
		}
	}

	measureVal, ok := payload["measure_name"]
	if !ok {
		return CountyDataRequest{}, false, &Rejection{
			Kind:    RejectMissingMeasure,
			Message: "measure_name is required",
		}
	}
	measure, ok := measureVal.(string)
	if !ok || !catalog.Valid(measure) {
		return CountyDataRequest{}, false, &Rejection{
			Kind:          RejectInvalidMeasure,
			Message:       "Invalid measure_name",
			ValidMeasures: catalog.Sorted(),
		}
	}

	return CountyDataRequest{Zip: zip, MeasureName: measure}, false, nil
}

func isFiveDigits(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

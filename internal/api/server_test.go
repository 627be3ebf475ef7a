package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/county-health-api/internal/model"
	"github.com/sells-group/county-health-api/internal/store"
)

// stubStore is an in-memory Store for handler tests. Any of the err fields
// forces the corresponding call to fail.
type stubStore struct {
	counties map[string][]model.County
	records  map[string][]model.HealthRecord // keyed by county name
	tables   map[string]store.TableInfo

	countiesErr error
	recordsErr  error
	tablesErr   error
	pingErr     error
}

func (s *stubStore) CountiesForZip(_ context.Context, zip string) ([]model.County, error) {
	if s.countiesErr != nil {
		return nil, s.countiesErr
	}
	return s.counties[zip], nil
}

func (s *stubStore) HealthRecords(_ context.Context, county model.County, _ string) ([]model.HealthRecord, error) {
	if s.recordsErr != nil {
		return nil, s.recordsErr
	}
	return s.records[county.County], nil
}

func (s *stubStore) Tables(_ context.Context) (map[string]store.TableInfo, error) {
	if s.tablesErr != nil {
		return nil, s.tablesErr
	}
	return s.tables, nil
}

func (s *stubStore) Ping(_ context.Context) error { return s.pingErr }
func (s *stubStore) Close() error                 { return nil }

func newTestRouter(st *stubStore) http.Handler {
	return NewServer(st).Router()
}

func postCountyData(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/county_data", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCountyData_Success(t *testing.T) {
	st := &stubStore{
		counties: map[string][]model.County{
			"10001": {{County: "New York", StateAbbreviation: "NY", CountyCode: "36061"}},
		},
		records: map[string][]model.HealthRecord{
			"New York": {{
				County:      "New York",
				State:       "NY",
				MeasureName: "Adult obesity",
				Numerator:   "123",
				RawValue:    "0.22",
				YearSpan:    "2014-2018",
			}},
		},
	}
	rr := postCountyData(t, newTestRouter(st), `{"zip":"10001","measure_name":"Adult obesity"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var records []map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "123", records[0]["numerator"])
	assert.Equal(t, "0.22", records[0]["raw_value"])
	assert.Equal(t, "", records[0]["fipscode"], "missing values render as empty strings")
}

func TestCountyData_MultiCountyZipConcatenatesInOrder(t *testing.T) {
	st := &stubStore{
		counties: map[string][]model.County{
			"02139": {
				{County: "Middlesex", StateAbbreviation: "MA", CountyCode: "MA01"},
				{County: "Suffolk", StateAbbreviation: "MA", CountyCode: "MA02"},
			},
		},
		records: map[string][]model.HealthRecord{
			"Middlesex": {{County: "Middlesex", YearSpan: "2014-2018"}},
			"Suffolk":   {{County: "Suffolk", YearSpan: "2015-2019"}},
		},
	}
	rr := postCountyData(t, newTestRouter(st), `{"zip":"02139","measure_name":"Adult obesity"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var records []map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Middlesex", records[0]["county"])
	assert.Equal(t, "Suffolk", records[1]["county"])
}

func TestCountyData_UnknownZipIs404(t *testing.T) {
	rr := postCountyData(t, newTestRouter(&stubStore{}), `{"zip":"99999","measure_name":"Adult obesity"}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "No data found for the given parameters", body["error"])
}

func TestCountyData_KnownZipNoRecordsIs404(t *testing.T) {
	st := &stubStore{
		counties: map[string][]model.County{
			"10001": {{County: "New York", StateAbbreviation: "NY", CountyCode: "36061"}},
		},
	}
	rr := postCountyData(t, newTestRouter(st), `{"zip":"10001","measure_name":"Adult obesity"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCountyData_ValidationFailures(t *testing.T) {
	router := newTestRouter(&stubStore{})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad json", `not json`, "Content-Type must be application/json"},
		{"missing zip", `{"measure_name":"Adult obesity"}`, "zip is required"},
		{"bad zip", `{"zip":"123","measure_name":"Adult obesity"}`, "zip must be a 5-digit string"},
		{"missing measure", `{"zip":"10001"}`, "measure_name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postCountyData(t, router, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestCountyData_OversizedBodyIs400(t *testing.T) {
	huge := `{"zip":"10001","measure_name":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	rr := postCountyData(t, newTestRouter(&stubStore{}), huge)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Bad request", body["error"])
}

func TestCountyData_InvalidMeasureIncludesCatalog(t *testing.T) {
	rr := postCountyData(t, newTestRouter(&stubStore{}), `{"zip":"10001","measure_name":"Bogus"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body struct {
		Error         string   `json:"error"`
		ValidMeasures []string `json:"valid_measures"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Invalid measure_name", body.Error)
	assert.Len(t, body.ValidMeasures, 12)
}

func TestCountyData_TeapotIs418WithEmptyBody(t *testing.T) {
	router := newTestRouter(&stubStore{countiesErr: errors.New("should never be reached")})

	for _, body := range []string{
		`{"coffee":"teapot"}`,
		`{"coffee":"teapot","zip":"10001","measure_name":"Adult obesity"}`,
		`{"coffee":"teapot","zip":"invalid"}`,
	} {
		rr := postCountyData(t, router, body)
		assert.Equal(t, http.StatusTeapot, rr.Code, "body: %s", body)
		assert.Empty(t, rr.Body.Bytes(), "body: %s", body)
	}
}

func TestCountyData_StorageFaultIs500(t *testing.T) {
	st := &stubStore{countiesErr: errors.New("sqlite: disk I/O error")}
	rr := postCountyData(t, newTestRouter(st), `{"zip":"10001","measure_name":"Adult obesity"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Database error occurred", body["error"])
	assert.NotContains(t, rr.Body.String(), "sqlite", "internal detail must not leak")
}

func TestCountyData_RecordLookupFaultIs500(t *testing.T) {
	st := &stubStore{
		counties: map[string][]model.County{
			"10001": {{County: "New York", StateAbbreviation: "NY", CountyCode: "36061"}},
		},
		recordsErr: errors.New("sqlite: no such table"),
	}
	rr := postCountyData(t, newTestRouter(st), `{"zip":"10001","measure_name":"Adult obesity"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestMeasures_SortedAndInvariant(t *testing.T) {
	router := newTestRouter(&stubStore{})

	var first []string
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/measures", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string][]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body["measures"], 12)

		if first == nil {
			first = body["measures"]
		} else {
			assert.Equal(t, first, body["measures"])
		}
	}
	assert.Equal(t, "Adult obesity", first[0])
}

func TestTables(t *testing.T) {
	st := &stubStore{
		tables: map[string]store.TableInfo{
			"zip_county": {
				Columns: []string{"zip", "county", "state"},
				Types:   map[string]string{"zip": "TEXT", "county": "TEXT", "state": "TEXT"},
			},
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/tables", nil)
	rr := httptest.NewRecorder()
	newTestRouter(st).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]store.TableInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []string{"zip", "county", "state"}, body["zip_county"].Columns)
	assert.Equal(t, "TEXT", body["zip_county"].Types["zip"])
}

func TestTables_StorageFaultIs500(t *testing.T) {
	st := &stubStore{tablesErr: errors.New("boom")}
	req := httptest.NewRequest(http.MethodGet, "/tables", nil)
	rr := httptest.NewRecorder()
	newTestRouter(st).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Database error occurred")
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	newTestRouter(&stubStore{}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestFallback_UnknownRouteIs404JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	newTestRouter(&stubStore{}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Not found", body["error"])
}

func TestFallback_WrongMethodIs405JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/county_data", nil)
	rr := httptest.NewRecorder()
	newTestRouter(&stubStore{}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestRequestID_Echoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/measures", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()
	newTestRouter(&stubStore{}).ServeHTTP(rr, req)

	assert.Equal(t, "req-42", rr.Header().Get("X-Request-ID"))
}

func TestRequestID_GeneratedWhenAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/measures", nil)
	rr := httptest.NewRecorder()
	newTestRouter(&stubStore{}).ServeHTTP(rr, req)

	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

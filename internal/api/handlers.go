package api

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/county-health-api/internal/catalog"
	"github.com/sells-group/county-health-api/internal/model"
)

// maxBodyBytes caps the request body; lookup payloads are a few dozen bytes.
const maxBodyBytes = 1 << 20

// handleCountyData serves POST /county_data: validate, resolve the ZIP to
// county tuples, then collect ranking rows per county in resolution order.
func (s *Server) handleCountyData(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}

	req, teapot, rej := validateCountyData(body)
	if teapot {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	if rej != nil {
		if rej.Kind == RejectInvalidMeasure {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":          rej.Message,
				"valid_measures": rej.ValidMeasures,
			})
			return
		}
		writeError(w, http.StatusBadRequest, rej.Message)
		return
	}

	ctx := r.Context()
	counties, err := s.store.CountiesForZip(ctx, req.Zip)
	if err != nil {
		s.storageError(w, r, err)
		return
	}

	records := []model.HealthRecord{}
	for _, county := range counties {
		recs, err := s.store.HealthRecords(ctx, county, req.MeasureName)
		if err != nil {
			s.storageError(w, r, err)
			return
		}
		records = append(records, recs...)
	}

	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "No data found for the given parameters")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleMeasures serves GET /measures. Always succeeds.
func (s *Server) handleMeasures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"measures": catalog.Sorted()})
}

// handleTables serves GET /tables with schema information for diagnostics.
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.Tables(r.Context())
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleHealth serves GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// storageError logs the fault with full detail server-side and answers with
// an opaque generic message; no query or table detail reaches the client.
func (s *Server) storageError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("storage fault",
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Database error occurred")
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agbru/qsag/internal/config"
	apperrors "github.com/agbru/qsag/internal/errors"
	"github.com/agbru/qsag/internal/logging"
	"github.com/agbru/qsag/internal/qpoly"
	"github.com/agbru/qsag/internal/service"
	"github.com/agbru/qsag/pkg/models"
)

// maxBodyBytes bounds the size of a POST /sag body.
const maxBodyBytes = 1 << 20

// handleHealth responds to health check requests.
// It returns a 200 OK status with a JSON payload indicating the service is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// handleFamilies returns the registered polynomial families.
func (s *Server) handleFamilies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, FamiliesResponse{Families: s.service.Families()})
}

// handleCache reports the cache counters on GET and empties every cache on
// DELETE.
func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		stats := s.service.CacheStats()
		reports := make([]models.CacheReport, 0, len(stats))
		for _, st := range stats {
			reports = append(reports, service.CacheReport(st))
		}
		s.writeJSONResponse(w, http.StatusOK, reports)
	case http.MethodDelete:
		s.service.ClearCaches()
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSag builds a sag map. The surface is read from the query string on
// GET and from a models.SagRequest JSON body on POST.
func (s *Server) handleSag(w http.ResponseWriter, r *http.Request) {
	var (
		body models.SagRequest
		err  error
	)
	switch r.Method {
	case http.MethodGet:
		body, err = parseSagQuery(r)
	case http.MethodPost:
		body, err = decodeSagBody(w, r)
	default:
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err != nil {
		var reqErr requestError
		if errors.As(err, &reqErr) {
			s.writeErrorResponse(w, reqErr.StatusCode, reqErr.Message)
		} else {
			s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	s.applyDefaults(&body)
	if !s.hasFamily(body.Family) {
		s.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Unknown family '%s'", body.Family))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	req := qpoly.Request{Coefs: qpoly.Coefficients(body.Coefs), Samples: body.Samples, RhoMax: body.RhoMax}
	surface := logging.Surface(body.Family, req.Samples, req.RhoMax)
	res, err := s.service.Build(ctx, body.Family, req)
	if err != nil {
		s.writeBuildError(w, err, surface)
		return
	}
	s.logger.Debug("sag built", append(surface,
		logging.Int("terms", req.Coefs.Active()),
		logging.Duration("build", res.Duration))...)
	s.writeJSONResponse(w, http.StatusOK, res.Summary(req, body.IncludeMap))
}

// parseSagQuery reads a SagRequest from the URL query parameters 'family',
// 'coefs', 'samples', 'rho_max' and 'map'.
func parseSagQuery(r *http.Request) (models.SagRequest, error) {
	q := r.URL.Query()
	req := models.SagRequest{Family: q.Get("family")}

	coefs, err := config.ParseCoefficients(q.Get("coefs"))
	if err != nil {
		return req, requestError{Message: "Invalid 'coefs' parameter: " + err.Error(), StatusCode: http.StatusBadRequest}
	}
	req.Coefs = coefs

	if v := q.Get("samples"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, requestError{Message: "Invalid 'samples' parameter: must be an integer", StatusCode: http.StatusBadRequest}
		}
		req.Samples = n
	}
	if v := q.Get("rho_max"); v != "" {
		rho, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, requestError{Message: "Invalid 'rho_max' parameter: must be a number", StatusCode: http.StatusBadRequest}
		}
		req.RhoMax = rho
	}
	if v := q.Get("map"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return req, requestError{Message: "Invalid 'map' parameter: must be a boolean", StatusCode: http.StatusBadRequest}
		}
		req.IncludeMap = include
	}
	return req, nil
}

// decodeSagBody reads a SagRequest from a JSON body.
func decodeSagBody(w http.ResponseWriter, r *http.Request) (models.SagRequest, error) {
	var req models.SagRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, requestError{Message: "Request body too large", StatusCode: http.StatusRequestEntityTooLarge}
		}
		return req, requestError{Message: "Invalid JSON body: " + err.Error(), StatusCode: http.StatusBadRequest}
	}
	return req, nil
}

// applyDefaults fills unset fields from the server configuration.
func (s *Server) applyDefaults(req *models.SagRequest) {
	if req.Family == "" {
		req.Family = s.cfg.Family
		if req.Family == "" || req.Family == "all" {
			req.Family = qpoly.FamilyQbfs
		}
	}
	if req.Samples == 0 {
		req.Samples = s.cfg.Samples
		if req.Samples == 0 {
			req.Samples = qpoly.DefaultSamples
		}
	}
	if req.RhoMax == 0 {
		req.RhoMax = s.cfg.RhoMax
		if req.RhoMax == 0 {
			req.RhoMax = qpoly.DefaultRhoMax
		}
	}
}

func (s *Server) hasFamily(name string) bool {
	for _, f := range s.service.Families() {
		if f == name {
			return true
		}
	}
	return false
}

// writeBuildError maps a service error to its HTTP status. Only unexpected
// failures are logged, tagged with the surface that caused them.
func (s *Server) writeBuildError(w http.ResponseWriter, err error, surface []logging.Field) {
	switch {
	case errors.Is(err, service.ErrMaxSamplesExceeded):
		s.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Value of 'samples' exceeds maximum allowed (%d). This limit prevents resource exhaustion.", s.securityConfig.MaxSamples))
	case errors.Is(err, service.ErrMaxOrderExceeded):
		s.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Polynomial order exceeds maximum allowed (%d).", s.securityConfig.MaxOrder))
	case errors.Is(err, service.ErrCacheBudgetExceeded):
		s.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Request exceeds the cache budget of %d bytes; lower 'samples' or the highest order.", s.securityConfig.MaxCacheBytes))
	case errors.Is(err, apperrors.ErrInvalidInput):
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case apperrors.IsContextError(err):
		s.writeErrorResponse(w, http.StatusGatewayTimeout, "Build did not complete in time")
	default:
		s.logger.Error("sag build failed", err, surface...)
		s.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSONResponse writes data as JSON with the correct content type.
//
// Parameters:
//   - w: The HTTP response writer.
//   - statusCode: The HTTP status code to write.
//   - data: The data to be encoded as JSON.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding JSON response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response.
//
// Parameters:
//   - w: The HTTP response writer.
//   - statusCode: The HTTP status code to write.
//   - message: The error message to be included in the response body.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	errResp := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	s.writeJSONResponse(w, statusCode, errResp)
}

// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hylla/slaboard/internal/adapters/server/common"
)

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	reader    common.DashboardReader
	refresher common.Refresher
	router    chi.Router
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter from a dashboard reader and optional refresher.
func NewHandler(reader common.DashboardReader, refresher common.Refresher) *Handler {
	h := &Handler{
		reader:    reader,
		refresher: refresher,
	}
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(strings.TrimRight(r.URL.Path, "/"), "/refresh") {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		writeMethodNotAllowed(w, http.MethodGet)
	})

	r.Get("/overview", h.handleOverview)
	r.Get("/state", h.handleState)
	r.Route("/areas", func(r chi.Router) {
		r.Get("/", h.handleListAreas)
		r.Get("/{area}", h.handleArea)
		r.Get("/{area}/apps/{app}", h.handleApplication)
	})
	r.Get("/activities/{id}", h.handleActivity)
	r.Get("/consistency", h.handleConsistency)
	r.Get("/trends", h.handleTrends)
	r.Post("/refresh", h.handleRefresh)
	h.router = r
	return h
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "dashboard service is not configured",
		})
		return
	}
	h.router.ServeHTTP(w, r)
}

// handleOverview serves GET `/overview`.
func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	view, err := h.reader.Overview(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleState serves GET `/state`.
func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.reader.State(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleListAreas serves GET `/areas`.
func (h *Handler) handleListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.reader.BusinessAreas(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"areas": areas,
	})
}

// handleArea serves GET `/areas/{area}`.
func (h *Handler) handleArea(w http.ResponseWriter, r *http.Request) {
	view, err := h.reader.BusinessArea(r.Context(), urlParam(r, "area"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleApplication serves GET `/areas/{area}/apps/{app}`.
func (h *Handler) handleApplication(w http.ResponseWriter, r *http.Request) {
	view, err := h.reader.Application(r.Context(), urlParam(r, "area"), urlParam(r, "app"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleActivity serves GET `/activities/{id}`.
func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	view, err := h.reader.Activity(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleConsistency serves GET `/consistency`.
func (h *Handler) handleConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.reader.Consistency(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleTrends serves GET `/trends`.
func (h *Handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := common.TrendRequest{
		BusinessArea: strings.TrimSpace(q.Get("business_area")),
		AppID:        strings.TrimSpace(q.Get("app_id")),
		ActivityID:   strings.TrimSpace(q.Get("activity_id")),
		ActivityName: strings.TrimSpace(q.Get("activity_name")),
	}
	view, err := h.reader.Trends(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleRefresh serves POST `/refresh`.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		writeJSONError(w, http.StatusNotImplemented, APIError{
			Code:    "not_implemented",
			Message: "refresh is not available",
		})
		return
	}
	res, err := h.refresher.Refresh(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// urlParam returns one trimmed route parameter, decoded exactly once.
// chi routes on RawPath when the request carries one, so only those params are still escaped.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(raw); err == nil {
			raw = unescaped
		}
	}
	return strings.TrimSpace(raw)
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
			Hint:    "An activity scope takes activity_id only; app_id requires business_area.",
		})
	case errors.Is(err, common.ErrUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

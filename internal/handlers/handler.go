package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/unitel-app/unitel/internal/app"
	"github.com/unitel-app/unitel/internal/metrics"
	"github.com/unitel-app/unitel/internal/store"
	"github.com/unitel-app/unitel/internal/transfer"
)

type RecordHandler struct {
	service *app.Service
}

func NewRecordHandler(service *app.Service) *RecordHandler {
	return &RecordHandler{
		service: service,
	}
}

// authorize runs the required-header gate, extracts the owner id and checks
// the bearer token. Returns "" when the response has already been written.
func (h *RecordHandler) authorize(w http.ResponseWriter, r *http.Request) string {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return ""
	}

	owner := r.Header.Get(h.service.Config.API.UserIDHeader)
	if owner == "" {
		http.Error(w, "Invalid user id specified", http.StatusUnauthorized)
		return ""
	}

	if err := h.service.ValidateAuthAndOwner(r, owner); err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return ""
	}

	return owner
}

func (h *RecordHandler) observe(r *http.Request) func() {
	start := time.Now()
	return func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.Pattern,
			r.Method,
			"200",
		).Observe(duration)
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		logger.Debug.Printf("Failed to decode request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// respondError maps service failures onto the API's error taxonomy:
// validation problems are 400, ownership misses are a distinct 404,
// everything else is a generic 500 with detail only in the logs.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalid), errors.Is(err, transfer.ErrBadPayload):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Record not found", http.StatusNotFound)
	default:
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Request failed", http.StatusInternalServerError)
	}
}

package handlers

import (
	"net/http"

	"github.com/unitel-app/unitel/internal/transfer"
)

func (h *RecordHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	var payload transfer.ImportPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	result, err := h.service.ImportJSON(r.Context(), owner, payload)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *RecordHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	payload, err := h.service.ExportJSON(owner)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

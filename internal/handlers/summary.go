package handlers

import (
	"net/http"
)

func (h *RecordHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	summary, err := h.service.Summary(r.Context(), owner)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

package handlers

import (
	"net/http"

	"github.com/unitel-app/unitel/internal/app"
	"github.com/unitel-app/unitel/internal/models"
)

func (h *RecordHandler) HandleListMarks(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	overview, err := h.service.ListMarks(r.Context(), owner, r.PathValue("semesterID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

func (h *RecordHandler) HandleCreateMarks(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	// weightage defaults to full contribution unless the payload says otherwise
	record := models.MarksRecord{Weightage: 100}
	if !decodeBody(w, r, &record) {
		return
	}
	record.Owner = owner
	record.SemesterID = r.PathValue("semesterID")

	created, err := h.service.CreateMarks(r.Context(), &record)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (h *RecordHandler) HandleUpdateMarks(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	var patch app.MarksPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	updated, err := h.service.UpdateMarks(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *RecordHandler) HandleDeleteMarks(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	if err := h.service.DeleteMarks(r.Context(), owner, r.PathValue("id")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

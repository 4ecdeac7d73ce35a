package handlers

import (
	"net/http"

	"github.com/unitel-app/unitel/internal/app"
	"github.com/unitel-app/unitel/internal/models"
)

func (h *RecordHandler) HandleListSemesters(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	semesters, err := h.service.ListSemesters(r.Context(), owner)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rows": semesters,
	})
}

func (h *RecordHandler) HandleCreateSemester(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	var sem models.Semester
	if !decodeBody(w, r, &sem) {
		return
	}
	sem.Owner = owner

	created, err := h.service.CreateSemester(r.Context(), &sem)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (h *RecordHandler) HandleUpdateSemester(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	var patch app.SemesterPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	updated, err := h.service.UpdateSemester(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *RecordHandler) HandleDeleteSemester(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	if err := h.service.DeleteSemester(r.Context(), owner, r.PathValue("id")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

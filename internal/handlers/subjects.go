package handlers

import (
	"net/http"

	"github.com/unitel-app/unitel/internal/app"
	"github.com/unitel-app/unitel/internal/models"
)

func (h *RecordHandler) HandleListSubjects(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	subjects, err := h.service.ListSubjects(r.Context(), owner, r.PathValue("semesterID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rows": subjects,
	})
}

func (h *RecordHandler) HandleCreateSubject(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	var sub models.Subject
	if !decodeBody(w, r, &sub) {
		return
	}
	sub.Owner = owner
	sub.SemesterID = r.PathValue("semesterID")

	created, err := h.service.CreateSubject(r.Context(), &sub)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (h *RecordHandler) HandleUpdateSubject(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	var patch app.SubjectPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	updated, err := h.service.UpdateSubject(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *RecordHandler) HandleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	if err := h.service.DeleteSubject(r.Context(), owner, r.PathValue("id")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

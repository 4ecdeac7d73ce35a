package handlers

import (
	"net/http"

	"github.com/unitel-app/unitel/internal/app"
	"github.com/unitel-app/unitel/internal/models"
)

func (h *RecordHandler) HandleListAttendance(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	records, err := h.service.ListAttendance(r.Context(), owner, r.PathValue("semesterID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rows": records,
	})
}

func (h *RecordHandler) HandleCreateAttendance(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	var record models.AttendanceRecord
	if !decodeBody(w, r, &record) {
		return
	}
	record.Owner = owner
	record.SemesterID = r.PathValue("semesterID")

	created, err := h.service.CreateAttendance(r.Context(), &record)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (h *RecordHandler) HandleUpdateAttendance(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	var patch app.AttendancePatch
	if !decodeBody(w, r, &patch) {
		return
	}

	updated, err := h.service.UpdateAttendance(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *RecordHandler) HandleDeleteAttendance(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	if err := h.service.DeleteAttendance(r.Context(), owner, r.PathValue("id")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

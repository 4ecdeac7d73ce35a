package handlers

import (
	"net/http"
)

func (h *RecordHandler) HandleListExamTypes(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	types, err := h.service.ExamTypes.List(r.Context(), owner)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"exam_types": types,
	})
}

func (h *RecordHandler) HandleAddExamType(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Name == "" {
		http.Error(w, "Exam type name is required", http.StatusBadRequest)
		return
	}

	if err := h.service.ExamTypes.Add(r.Context(), owner, body.Name); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *RecordHandler) HandleRemoveExamType(w http.ResponseWriter, r *http.Request) {
	defer h.observe(r)()

	owner := h.authorize(w, r)
	if owner == "" {
		return
	}

	if err := h.service.ExamTypes.Remove(r.Context(), owner, r.PathValue("name")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

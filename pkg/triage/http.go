package triage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/medicast/triage/pkg/common/logger"
	"github.com/medicast/triage/pkg/common/models"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/patients", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/patients/admit", h.handleAdmit).Methods(http.MethodPost)
	router.HandleFunc("/patients/simulate", h.handleSimulate).Methods(http.MethodPost)
	router.HandleFunc("/patients/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/patients/{id}", h.handleUpdate).Methods(http.MethodPut)
	router.HandleFunc("/patients/{id}", h.handleDelete).Methods(http.MethodDelete)
	router.HandleFunc("/hospital-state", h.handleHospitalState).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.List(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list patients")
		writeError(w, http.StatusInternalServerError, "Error fetching patients")
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, err, "Error fetching patient")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) handleAdmit(w http.ResponseWriter, r *http.Request) {
	var req AdmitRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Admit(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "Error admitting patient")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *HTTPHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch PatientPatch
	if !h.decode(w, r, &patch) {
		return
	}

	result, err := h.service.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		h.writeServiceError(w, err, "Error updating patient")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, err, "Error deleting patient")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Patient deleted successfully",
		"patient": p,
	})
}

func (h *HTTPHandler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	// A step runs to completion even if the caller goes away.
	report, err := h.service.RunStep(context.WithoutCancel(r.Context()))
	if err != nil {
		logger.Log.WithError(err).Error("simulation step failed")
		writeError(w, http.StatusInternalServerError, "Simulation failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *HTTPHandler) handleHospitalState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.HospitalState(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to load hospital state")
		writeError(w, http.StatusInternalServerError, "Error fetching hospital state")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body required")
			return false
		}
		logger.Log.WithError(err).Warn("invalid patient payload")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Patient not found")
	default:
		logger.Log.WithError(err).Error(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Error("failed to write json response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Message: message})
}

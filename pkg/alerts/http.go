package alerts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/medicast/triage/pkg/common/logger"
	"github.com/medicast/triage/pkg/common/models"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/alerts", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/alerts/{id}/read", h.handleMarkRead).Methods(http.MethodPut)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var filter Filter
	query := r.URL.Query()

	if raw := query.Get("read"); raw != "" {
		read, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "read must be true or false")
			return
		}
		filter.Read = &read
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	alerts, err := h.service.List(r.Context(), filter)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list alerts")
		writeError(w, http.StatusInternalServerError, "Error fetching alerts")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *HTTPHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	alert, err := h.service.MarkRead(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Alert not found")
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("failed to mark alert read")
		writeError(w, http.StatusInternalServerError, "Error updating alert")
		return
	}
	writeJSON(w, http.StatusOK, alert)
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

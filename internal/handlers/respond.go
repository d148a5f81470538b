// Package handlers contains HTTP request handlers for the report API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chatreport/report-server/internal/services"
	"go.uber.org/zap"
)

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a classified service error to its status code.
// Causes of internal errors go to the log, never to the client.
func respondServiceError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	status := http.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindBadRequest:
		status = http.StatusBadRequest
	case services.KindUnauthorized:
		status = http.StatusUnauthorized
	case services.KindNotFound:
		status = http.StatusNotFound
	default:
		logger.Errorw("Request failed", "op", op, "error", err)
	}
	respondError(w, status, services.PublicMessage(err))
}

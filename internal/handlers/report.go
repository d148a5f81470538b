package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/chatreport/report-server/internal/middleware"
	"github.com/chatreport/report-server/internal/models"
	"github.com/chatreport/report-server/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReportHandler handles report endpoints
type ReportHandler struct {
	svc    *services.ReportService
	logger *zap.SugaredLogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *services.ReportService, logger *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{svc: svc, logger: logger}
}

// Routes returns the report endpoints. Callers mount it behind RequireAuth.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	r.Get("/", h.List)
	r.Get("/activity", h.Activity)
	return r
}

// Submit handles POST /api/v1/reports
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.ReportSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.svc.Submit(r.Context(), middleware.UserIDFromContext(r.Context()), &req)
	if err != nil {
		respondServiceError(w, h.logger, "submit report", err)
		return
	}

	respondJSON(w, http.StatusCreated, report)
}

// List handles GET /api/v1/reports (admin)
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.List(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, h.logger, "list reports", err)
		return
	}

	respondJSON(w, http.StatusOK, reports)
}

// Activity handles GET /api/v1/reports/activity?limit=N (admin)
func (h *ReportHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	logs, err := h.svc.Activity(r.Context(), middleware.UserIDFromContext(r.Context()), limit)
	if err != nil {
		respondServiceError(w, h.logger, "report activity", err)
		return
	}

	respondJSON(w, http.StatusOK, logs)
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dvloznov/price-tracker/internal/api/middleware"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/jobs"
	"github.com/rs/zerolog"
)

// ReportsHandler handles report export endpoints.
type ReportsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	enabled   bool
	log       zerolog.Logger
}

// NewReportsHandler creates a new reports handler. When enabled is false (no
// bucket configured) export requests are answered with 503.
func NewReportsHandler(publisher jobs.Publisher, store jobs.JobStore, enabled bool, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		publisher: publisher,
		store:     store,
		enabled:   enabled,
		log:       log,
	}
}

// CreateReport handles POST /api/price-history/reports
func (h *ReportsHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Report export is not configured")
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Missing user")
		return
	}

	var req struct {
		Period       string  `json:"period"`
		ThresholdPct float64 `json:"threshold"`
	}
	// An empty body selects the defaults.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	period, err := domain.ParseChangePeriod(req.Period)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid period: must be 30d or 90d")
		return
	}
	if req.ThresholdPct < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid threshold: must be a positive number")
		return
	}

	job := &jobs.ExportReportJob{
		UserID:       userID,
		Period:       string(period),
		ThresholdPct: req.ThresholdPct,
	}
	if err := h.publisher.PublishExportReport(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue report export")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue report export")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("user_id", userID).Msg("Report export enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"period": job.Period,
		"status": string(job.Status),
	})
}

// GetReport handles GET /api/price-history/reports/{job_id}
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request, jobID string) {
	userID := middleware.UserIDFromContext(r.Context())

	job, err := h.store.GetJob(r.Context(), jobID)
	// Other users' jobs are reported as missing.
	if errors.Is(err, jobs.ErrJobNotFound) || (err == nil && job.UserID != userID) {
		middleware.WriteError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get report job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

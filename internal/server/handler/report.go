package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/takudzwam/pamsika/internal/service"
)

// ReportHandler serves the complaint endpoint.
type ReportHandler struct {
	reports *service.Reports
	logger  *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(reports *service.Reports, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// reportRequest is the JSON body for filing a report.
type reportRequest struct {
	ReporterID  string `json:"reporter_id"`
	ReportedID  string `json:"reported_id"`
	OfferID     string `json:"offer_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

// File records a report against another participant.
// POST /api/reports
func (h *ReportHandler) File(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if req.ReporterID == "" || req.ReportedID == "" {
		writeError(w, http.StatusBadRequest, "reporter_id and reported_id are required")
		return
	}

	report, err := h.reports.File(r.Context(), service.ReportInput{
		ReporterID:  req.ReporterID,
		ReportedID:  req.ReportedID,
		OfferID:     req.OfferID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "report filing failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"report_id": report.ID,
		"message":   "Report submitted",
	})
}

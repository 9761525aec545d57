package api

import (
	"errors"
	"net/http"

	"github.com/psatprep/backend/internal/app"
	"github.com/psatprep/backend/internal/domain/report"
)

// ── Request / Response types ────────────────────────────────────────────────

type SubmitReportRequest struct {
	Reason string `json:"reason"`
}

type AnalyzeReportsResponse struct {
	Reports  int    `json:"reports"`
	Analysis string `json:"analysis"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /questions/{questionID}/reports
func (h *Handler) submitReport(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var req SubmitReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rep, err := h.app.SubmitReport(r.PathValue("questionID"), req.Reason)
	if err == nil {
		respondJSON(w, http.StatusCreated, rep)
		return
	}
	if errors.Is(err, app.ErrQuestionNotFound) {
		h.respondDomainError(w, err)
		return
	}
	respondError(w, http.StatusBadRequest, err.Error())
}

// GET /reports
func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reports := h.app.Reports()
	if reports == nil {
		reports = []report.Report{}
	}
	respondJSON(w, http.StatusOK, reports)
}

// DELETE /reports
func (h *Handler) clearReports(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.app.ClearReports()
	w.WriteHeader(http.StatusNoContent)
}

// POST /reports/analyze
func (h *Handler) analyzeReports(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	items := h.app.ReportedQuestions()
	h.mu.Unlock()

	if len(items) == 0 {
		respondError(w, http.StatusConflict, "no reports to analyze")
		return
	}

	text, err := h.generation.AnalyzeReports(r.Context(), items)
	if err != nil {
		h.respondGenerateError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, AnalyzeReportsResponse{
		Reports:  len(items),
		Analysis: text,
	})
}

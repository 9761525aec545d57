package api

import (
	"net/http"
	"time"

	"github.com/psatprep/backend/internal/domain/question"
)

// ── Request / Response types ────────────────────────────────────────────────

type DashboardResponse struct {
	TotalQuestions  int     `json:"total_questions"`
	Solved          int     `json:"solved"`
	OverallAccuracy float64 `json:"overall_accuracy"`
	AttemptedToday  int     `json:"attempted_today"`
	WeakCount       int     `json:"weak_count"`
	StarredCount    int     `json:"starred_count"`
	MathCount       int     `json:"math_count"`
	LangCount       int     `json:"lang_count"`
	MathAccuracy    float64 `json:"math_accuracy"`
	LangAccuracy    float64 `json:"lang_accuracy"`
	SessionCount    int     `json:"session_count"`
	DaysToExam      *int    `json:"days_to_exam,omitempty"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /dashboard
func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	bank := h.app.Bank
	ledger := h.app.Ledger

	weak := 0
	for _, q := range bank.All() {
		if ledger.IsWeak(q.ID) {
			weak++
		}
	}

	math := bank.FilterByCategory(question.CategoryMath)
	lang := bank.FilterByCategory(question.CategoryLang)

	resp := DashboardResponse{
		TotalQuestions:  bank.Len(),
		Solved:          ledger.SolvedCount(bank.All()),
		OverallAccuracy: ledger.OverallAccuracy(),
		AttemptedToday:  ledger.AttemptedToday(time.Now()),
		WeakCount:       weak,
		StarredCount:    len(bank.StarredIDs()),
		MathCount:       len(math),
		LangCount:       len(lang),
		MathAccuracy:    ledger.CategoryAccuracy(math),
		LangAccuracy:    ledger.CategoryAccuracy(lang),
		SessionCount:    h.app.History.Len(),
	}

	if !h.examDate.IsZero() {
		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		days := int(h.examDate.Sub(today).Hours() / 24)
		resp.DaysToExam = &days
	}

	respondJSON(w, http.StatusOK, resp)
}

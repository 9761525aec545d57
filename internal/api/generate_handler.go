package api

import (
	"net/http"

	"github.com/psatprep/backend/internal/domain/question"
	"github.com/psatprep/backend/internal/domain/studysession"
)

// ── Request / Response types ────────────────────────────────────────────────

const (
	defaultGenerateLevel = 2
	defaultGenerateCount = 5
	maxGenerateCount     = 10
)

type GenerateRequest struct {
	Category string `json:"category"`
	Level    int    `json:"level,omitempty"`
	Count    int    `json:"count,omitempty"`
}

type GenerateResponse struct {
	Questions []QuestionView       `json:"questions"`
	Session   SessionStateResponse `json:"session"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /generate
func (h *Handler) generateQuestions(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cat := question.Category(req.Category)
	if !cat.Valid() {
		respondError(w, http.StatusBadRequest, "invalid category")
		return
	}
	level := clamp(req.Level, defaultGenerateLevel, 1, 3)
	count := clamp(req.Count, defaultGenerateCount, 1, maxGenerateCount)

	qs, err := h.generation.Generate(r.Context(), cat, level, count)
	if err != nil {
		h.respondGenerateError(w, err)
		return
	}
	h.startReviewSession(w, qs)
}

// POST /generate/similar
func (h *Handler) generateSimilarQuestions(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cat := question.Category(req.Category)
	if !cat.Valid() {
		respondError(w, http.StatusBadRequest, "invalid category")
		return
	}
	count := clamp(req.Count, defaultGenerateCount, 1, maxGenerateCount)

	// Snapshot the wrong questions before releasing the lock for the
	// model call.
	h.mu.Lock()
	var wrong []question.Question
	for _, q := range h.app.Bank.All() {
		if h.app.Ledger.IsWrongLast(q.ID) {
			wrong = append(wrong, q)
		}
	}
	h.mu.Unlock()

	qs, err := h.generation.GenerateSimilar(r.Context(), wrong, cat, count)
	if err != nil {
		h.respondGenerateError(w, err)
		return
	}
	h.startReviewSession(w, qs)
}

// startReviewSession starts the review pass over a batch the
// generation service has already committed to the bank.
func (h *Handler) startReviewSession(w http.ResponseWriter, qs []question.Question) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.app.Session.StartWith(studysession.ModeAI, qs); err != nil {
		h.respondDomainError(w, err)
		return
	}

	views := make([]QuestionView, len(qs))
	for i, q := range qs {
		views[i] = h.questionView(q)
	}
	respondJSON(w, http.StatusCreated, GenerateResponse{
		Questions: views,
		Session:   h.sessionState(),
	})
}

// clamp applies the default for a zero value and bounds the rest.
func clamp(v, def, min, max int) int {
	if v == 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

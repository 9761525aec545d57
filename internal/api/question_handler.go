package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/psatprep/backend/internal/domain/question"
)

// ── Request / Response types ────────────────────────────────────────────────

type QuestionView struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Area        string   `json:"area"`
	Category    string   `json:"category"`
	Level       int      `json:"level"`
	Stem        string   `json:"stem"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
	Solution    string   `json:"solution,omitempty"`
	Refs        []string `json:"refs,omitempty"`
	IsAI        bool     `json:"is_ai"`
	Starred     bool     `json:"starred"`
	Attempts    int      `json:"attempts"`
	Correct     int      `json:"correct"`
	Weak        bool     `json:"weak"`
	WrongLast   bool     `json:"wrong_last"`
}

type ToggleStarResponse struct {
	ID      string `json:"id"`
	Starred bool   `json:"starred"`
}

// questionView projects a question plus its ledger state.
func (h *Handler) questionView(q question.Question) QuestionView {
	v := QuestionView{
		ID:          q.ID,
		Code:        q.Code,
		Area:        q.Area,
		Category:    string(q.ResolveCategory()),
		Level:       q.Level,
		Stem:        q.Stem,
		Options:     q.Options,
		AnswerIndex: q.AnswerIndex,
		Solution:    q.Solution,
		Refs:        q.Refs,
		IsAI:        q.IsAI,
		Starred:     h.app.Bank.IsStarred(q.ID),
		Weak:        h.app.Ledger.IsWeak(q.ID),
		WrongLast:   h.app.Ledger.IsWrongLast(q.ID),
	}
	if e, ok := h.app.Ledger.Entry(q.ID); ok {
		v.Attempts = e.Attempts
		v.Correct = e.Correct
	}
	return v
}

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /questions?category=MATH&level=2&status=weak&starred=true
func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	category := r.URL.Query().Get("category")
	level, _ := strconv.Atoi(r.URL.Query().Get("level"))
	status := r.URL.Query().Get("status")
	starredOnly := r.URL.Query().Get("starred") == "true"

	if category != "" && !question.Category(category).Valid() {
		respondError(w, http.StatusBadRequest, "invalid category")
		return
	}

	views := make([]QuestionView, 0)
	for _, q := range h.app.Bank.All() {
		if category != "" && q.ResolveCategory() != question.Category(category) {
			continue
		}
		if level != 0 && q.Level != level {
			continue
		}
		if starredOnly && !h.app.Bank.IsStarred(q.ID) {
			continue
		}
		switch status {
		case "weak":
			if !h.app.Ledger.IsWeak(q.ID) {
				continue
			}
		case "wrong":
			if !h.app.Ledger.IsWrongLast(q.ID) {
				continue
			}
		case "unsolved":
			if _, solved := h.app.Ledger.Entry(q.ID); solved {
				continue
			}
		}
		views = append(views, h.questionView(q))
	}

	sort.Slice(views, func(i, j int) bool { return views[i].Code < views[j].Code })
	respondJSON(w, http.StatusOK, views)
}

// GET /questions/{questionID}
func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	q, ok := h.app.Bank.Get(r.PathValue("questionID"))
	if !ok {
		respondError(w, http.StatusNotFound, "question not found")
		return
	}
	respondJSON(w, http.StatusOK, h.questionView(q))
}

// DELETE /questions/{questionID}
func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.app.DeleteQuestion(r.PathValue("questionID")); err != nil {
		h.respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /questions/{questionID}/star
func (h *Handler) toggleStar(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := r.PathValue("questionID")
	starred, err := h.app.ToggleStar(id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ToggleStarResponse{ID: id, Starred: starred})
}

package api

import (
	"errors"
	"net/http"

	"github.com/psatprep/backend/internal/domain/studysession"
)

// ── Request / Response types ────────────────────────────────────────────────

type StartSessionRequest struct {
	Mode       string `json:"mode"`
	QuestionID string `json:"question_id,omitempty"` // single mode only
}

type SessionStateResponse struct {
	State            string        `json:"state"`
	Mode             string        `json:"mode,omitempty"`
	Total            int           `json:"total"`
	Index            int           `json:"index"`
	Answered         int           `json:"answered"`
	ElapsedSeconds   int           `json:"elapsed_seconds"`
	TimeLimitMinutes int           `json:"time_limit_minutes"`
	Current          *QuestionView `json:"current,omitempty"`
	SelectedAnswer   *int          `json:"selected_answer,omitempty"`
}

type SubmitAnswerRequest struct {
	AnswerIndex int `json:"answer_index"`
}

type SubmitAnswerResponse struct {
	Correct     bool   `json:"correct"`
	Recorded    bool   `json:"recorded"`
	AnswerIndex int    `json:"answer_index"`
	Solution    string `json:"solution,omitempty"`
}

type AdvanceResponse struct {
	Finished bool                  `json:"finished"`
	Summary  *studysession.Summary `json:"summary,omitempty"`
	Session  *SessionStateResponse `json:"session,omitempty"`
}

// sessionState builds the state view. Caller holds the lock.
func (h *Handler) sessionState() SessionStateResponse {
	engine := h.app.Session
	resp := SessionStateResponse{
		State:            engine.State().String(),
		Total:            engine.Len(),
		Index:            engine.CurrentIndex(),
		Answered:         engine.AnsweredCount(),
		ElapsedSeconds:   engine.Elapsed(),
		TimeLimitMinutes: h.app.Settings().TimeLimitMinutes,
	}
	if engine.State() != studysession.StateIdle {
		resp.Mode = string(engine.Mode())
	}
	if q, err := engine.Current(); err == nil {
		view := h.questionView(q)
		resp.Current = &view
		if idx, answered := engine.SelectedAnswer(q.ID); answered {
			resp.SelectedAnswer = &idx
		}
	}
	return resp
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /session
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var req StartSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var err error
	switch mode := studysession.Mode(req.Mode); mode {
	case studysession.ModeSingle:
		if req.QuestionID == "" {
			respondError(w, http.StatusBadRequest, "question_id is required for single mode")
			return
		}
		err = h.app.Session.StartSingle(req.QuestionID)
	case studysession.ModeRandom, studysession.ModeMath, studysession.ModeLang,
		studysession.ModeWeakness, studysession.ModeWrong:
		err = h.app.Session.Start(mode, h.app.Settings())
	default:
		respondError(w, http.StatusBadRequest, "invalid mode")
		return
	}
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.sessionState())
}

// GET /session
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	respondJSON(w, http.StatusOK, h.sessionState())
}

// POST /session/answers
func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var req SubmitAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	outcome, err := h.app.Session.Answer(req.AnswerIndex)
	if errors.Is(err, studysession.ErrNotActive) {
		h.respondDomainError(w, err)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if outcome.Recorded {
		h.app.SaveProgress()
	}

	q, _ := h.app.Session.Current()
	respondJSON(w, http.StatusOK, SubmitAnswerResponse{
		Correct:     outcome.Correct,
		Recorded:    outcome.Recorded,
		AnswerIndex: q.AnswerIndex,
		Solution:    q.Solution,
	})
}

// POST /session/next
func (h *Handler) advanceSession(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	summary, finished, err := h.app.Session.Advance()
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondAdvance(w, summary, finished)
}

// POST /session/prev
func (h *Handler) retreatSession(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.app.Session.Retreat(); err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.sessionState())
}

// DELETE /session/current
func (h *Handler) removeCurrentQuestion(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	summary, finished, err := h.app.Session.RemoveCurrent()
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.app.SaveBank()
	h.respondAdvance(w, summary, finished)
}

// POST /session/finish
func (h *Handler) finishSession(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	summary, err := h.app.Session.Finish()
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.app.SaveProgress()
	respondJSON(w, http.StatusOK, AdvanceResponse{Finished: true, Summary: &summary})
}

// POST /session/review-mistakes
func (h *Handler) reviewMistakes(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.app.Session.ReviewMistakes(); err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.sessionState())
}

// GET /session/history
func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	records := h.app.History.Records()
	if records == nil {
		records = []studysession.HistoryRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

// respondAdvance writes either the finish summary or the new session
// state. Caller holds the lock.
func (h *Handler) respondAdvance(w http.ResponseWriter, summary studysession.Summary, finished bool) {
	if finished {
		h.app.SaveProgress()
		respondJSON(w, http.StatusOK, AdvanceResponse{Finished: true, Summary: &summary})
		return
	}
	state := h.sessionState()
	respondJSON(w, http.StatusOK, AdvanceResponse{Finished: false, Session: &state})
}

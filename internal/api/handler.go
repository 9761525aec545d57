// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/psatprep/backend/internal/app"
	"github.com/psatprep/backend/internal/domain/question"
	"github.com/psatprep/backend/internal/domain/studysession"
	"github.com/psatprep/backend/internal/generator"
	"github.com/psatprep/backend/internal/service"
	"github.com/psatprep/backend/internal/store"
)

// Handler holds all dependencies needed by HTTP handlers. One mutex
// serializes every request that touches domain state: the application
// serves a single user and the domain layer is not safe for concurrent
// use. Generation requests release the lock while the model call is in
// flight and reacquire it to commit.
type Handler struct {
	mu sync.Mutex

	app        *app.App
	claude     *generator.Claude
	generation *service.GenerationService
	kv         *store.KV
	logger     *slog.Logger
	examDate   time.Time // zero when no exam date is configured
}

// NewHandler creates a Handler and wires the generation service to
// commit through the handler lock.
func NewHandler(a *app.App, claude *generator.Claude, kv *store.KV, examDate time.Time, logger *slog.Logger) *Handler {
	h := &Handler{
		app:      a,
		claude:   claude,
		kv:       kv,
		logger:   logger,
		examDate: examDate,
	}
	h.generation = service.NewGenerationService(claude, lockedCommitter{h}, logger)
	return h
}

// lockedCommitter takes the handler lock around a batch commit, because
// the request that triggered the generation released it for the
// duration of the model call.
type lockedCommitter struct{ h *Handler }

func (c lockedCommitter) CommitQuestions(qs []question.Question) error {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	return c.h.app.CommitQuestions(qs)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError writes a JSON error body with the given status code.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON decodes the request body into dst. Returns false (and
// responds 400) when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// respondDomainError maps domain errors to HTTP statuses. Session
// preconditions are conflicts: the request was well-formed but the
// engine is in the wrong state for it.
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, studysession.ErrNoQuestions),
		errors.Is(err, studysession.ErrNoMistakes),
		errors.Is(err, studysession.ErrNotActive),
		errors.Is(err, studysession.ErrNotFinished):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrQuestionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// respondGenerateError maps generation failures. A missing credential
// is the caller's problem; everything else from the model endpoint is
// an upstream failure.
func (h *Handler) respondGenerateError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrGenerationBusy) {
		respondError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	var genErr *generator.GenerateError
	if errors.As(err, &genErr) {
		status := http.StatusBadGateway
		if genErr.Kind == generator.KindMissingCredential {
			status = http.StatusBadRequest
		}
		respondError(w, status, genErr.Error())
		return
	}
	h.respondDomainError(w, err)
}

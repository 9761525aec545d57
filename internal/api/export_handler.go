package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/psatprep/backend/internal/store"
)

// ── Request / Response types ────────────────────────────────────────────────

type ImportResult struct {
	Questions int `json:"questions"`
	Reports   int `json:"reports"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /export
func (h *Handler) exportAll(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	snapshot := h.app.Export()
	h.mu.Unlock()

	filename := fmt.Sprintf("psat_backup_%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	json.NewEncoder(w).Encode(snapshot)
}

// POST /import
func (h *Handler) importAll(w http.ResponseWriter, r *http.Request) {
	var snapshot map[string]json.RawMessage
	if !decodeJSON(w, r, &snapshot) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.app.Import(snapshot) {
		respondError(w, http.StatusBadRequest, "invalid backup data")
		return
	}

	// The backup may carry its own credential; apply it to the client.
	var key, model string
	h.kv.Load(store.KeyAPIKey, &key)
	h.kv.Load(store.KeyAPIModel, &model)
	h.claude.SetCredentials(key, model)

	respondJSON(w, http.StatusOK, ImportResult{
		Questions: h.app.Bank.Len(),
		Reports:   len(h.app.Reports()),
	})
}

// POST /reset
func (h *Handler) resetAll(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.app.Reset()
	w.WriteHeader(http.StatusNoContent)
}

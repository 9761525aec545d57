package api

import (
	"net/http"
	"strings"

	"github.com/psatprep/backend/internal/domain/studysession"
	"github.com/psatprep/backend/internal/store"
)

// ── Request / Response types ────────────────────────────────────────────────

type APIConfigRequest struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model,omitempty"`
}

type APIConfigResponse struct {
	Configured bool   `json:"configured"`
	Model      string `json:"model"`
	APIKey     string `json:"api_key,omitempty"` // masked, last four characters only
}

type APITestResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /settings
func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	respondJSON(w, http.StatusOK, h.app.Settings())
}

// PUT /settings
func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var patch studysession.Settings
	if !decodeJSON(w, r, &patch) {
		return
	}
	respondJSON(w, http.StatusOK, h.app.UpdateSettings(patch))
}

// GET /settings/api
func (h *Handler) getAPIConfig(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var key string
	h.kv.Load(store.KeyAPIKey, &key)

	respondJSON(w, http.StatusOK, APIConfigResponse{
		Configured: h.claude.HasCredential(),
		Model:      h.claude.Model(),
		APIKey:     maskKey(key),
	})
}

// PUT /settings/api
func (h *Handler) updateAPIConfig(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var req APIConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if key := strings.TrimSpace(req.APIKey); key != "" {
		h.kv.Save(store.KeyAPIKey, key)
		h.claude.SetCredentials(key, "")
	}
	if model := strings.TrimSpace(req.Model); model != "" {
		h.kv.Save(store.KeyAPIModel, model)
		h.claude.SetCredentials("", model)
	}

	var key string
	h.kv.Load(store.KeyAPIKey, &key)
	respondJSON(w, http.StatusOK, APIConfigResponse{
		Configured: h.claude.HasCredential(),
		Model:      h.claude.Model(),
		APIKey:     maskKey(key),
	})
}

// POST /settings/api/test
func (h *Handler) testAPIConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.claude.Ping(r.Context()); err != nil {
		h.respondGenerateError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, APITestResponse{
		Status: "ok",
		Model:  h.claude.Model(),
	})
}

// maskKey hides all but the last four characters of a credential.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

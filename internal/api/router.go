// internal/api/router.go
package api

import "net/http"

// RegisterRoutes attaches every API route to the mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Dashboard
	mux.HandleFunc("GET /dashboard", h.getDashboard)

	// Questions
	mux.HandleFunc("GET /questions", h.listQuestions)
	mux.HandleFunc("GET /questions/{questionID}", h.getQuestion)
	mux.HandleFunc("DELETE /questions/{questionID}", h.deleteQuestion)
	mux.HandleFunc("POST /questions/{questionID}/star", h.toggleStar)

	// Reports
	mux.HandleFunc("POST /questions/{questionID}/reports", h.submitReport)
	mux.HandleFunc("GET /reports", h.listReports)
	mux.HandleFunc("DELETE /reports", h.clearReports)
	mux.HandleFunc("POST /reports/analyze", h.analyzeReports)

	// Session
	mux.HandleFunc("POST /session", h.startSession)
	mux.HandleFunc("GET /session", h.getSession)
	mux.HandleFunc("POST /session/answers", h.submitAnswer)
	mux.HandleFunc("POST /session/next", h.advanceSession)
	mux.HandleFunc("POST /session/prev", h.retreatSession)
	mux.HandleFunc("DELETE /session/current", h.removeCurrentQuestion)
	mux.HandleFunc("POST /session/finish", h.finishSession)
	mux.HandleFunc("POST /session/review-mistakes", h.reviewMistakes)
	mux.HandleFunc("GET /session/history", h.getHistory)

	// Generation
	mux.HandleFunc("POST /generate", h.generateQuestions)
	mux.HandleFunc("POST /generate/similar", h.generateSimilarQuestions)

	// Settings
	mux.HandleFunc("GET /settings", h.getSettings)
	mux.HandleFunc("PUT /settings", h.updateSettings)
	mux.HandleFunc("GET /settings/api", h.getAPIConfig)
	mux.HandleFunc("PUT /settings/api", h.updateAPIConfig)
	mux.HandleFunc("POST /settings/api/test", h.testAPIConfig)

	// Backup
	mux.HandleFunc("GET /export", h.exportAll)
	mux.HandleFunc("POST /import", h.importAll)
	mux.HandleFunc("POST /reset", h.resetAll)
}

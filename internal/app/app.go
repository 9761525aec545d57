// Package app assembles the domain state of the practice application:
// the question bank, the answer ledger, the session engine, reports,
// and settings, all hydrated from and persisted to the key-value store.
package app

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/psatprep/backend/internal/domain/question"
	"github.com/psatprep/backend/internal/domain/questionbank"
	"github.com/psatprep/backend/internal/domain/report"
	"github.com/psatprep/backend/internal/domain/stats"
	"github.com/psatprep/backend/internal/domain/studysession"
	"github.com/psatprep/backend/internal/generator"
	"github.com/psatprep/backend/internal/store"
)

//go:embed questions.json
var bundledJSON []byte

// ErrQuestionNotFound is returned when an operation targets an id that
// is not in the active question set.
var ErrQuestionNotFound = errors.New("question not found")

// App owns the long-lived application state. It is not safe for
// concurrent use; the HTTP layer serializes access.
type App struct {
	kv     *store.KV
	logger *slog.Logger

	bundled []question.Question

	Bank    *questionbank.Bank
	Ledger  *stats.Ledger
	History *studysession.History
	Session *studysession.Engine

	settings studysession.Settings
	reports  []report.Report
}

// New parses the bundled question set and hydrates all state from the
// store.
func New(kv *store.KV, logger *slog.Logger) (*App, error) {
	var bundled []question.Question
	if err := json.Unmarshal(bundledJSON, &bundled); err != nil {
		return nil, fmt.Errorf("failed to parse bundled questions: %w", err)
	}

	a := &App{kv: kv, logger: logger, bundled: bundled}
	a.reload()
	return a, nil
}

// reload rebuilds every in-memory component from the store. A running
// session is discarded.
func (a *App) reload() {
	if a.Session != nil {
		a.Session.Close()
	}

	a.Bank = questionbank.New()
	a.Ledger = stats.NewLedger()
	a.History = studysession.NewHistory()
	a.settings = studysession.DefaultSettings()
	a.reports = nil

	var saved []question.Question
	a.kv.Load(store.KeyQuestions, &saved)
	var deleted, starred []string
	a.kv.Load(store.KeyDeleted, &deleted)
	a.kv.Load(store.KeyStarred, &starred)
	a.Bank.Load(a.bundled, saved, deleted, starred)
	a.kv.Save(store.KeyQuestions, a.Bank.All())

	var snapshot map[string]stats.Entry
	if a.kv.Load(store.KeyStats, &snapshot) {
		a.Ledger.Restore(snapshot)
	}

	var records []studysession.HistoryRecord
	if a.kv.Load(store.KeyHistory, &records) {
		a.History.Restore(records)
	}

	var patch studysession.Settings
	if a.kv.Load(store.KeySettings, &patch) {
		a.settings = a.settings.Merge(patch)
	}

	a.kv.Load(store.KeyReports, &a.reports)

	a.Session = studysession.NewEngine(a.Bank, a.Ledger, a.History)

	a.logger.Info("application state loaded",
		"questions", a.Bank.Len(),
		"reports", len(a.reports),
	)
}

// Close stops the session engine. The store is closed by its owner.
func (a *App) Close() {
	a.Session.Close()
}

// ── Questions ───────────────────────────────────────────────────────────────

// CommitQuestions adds a generated batch to the bank and persists the
// question set. The batch is all-or-nothing.
func (a *App) CommitQuestions(qs []question.Question) error {
	if err := a.Bank.AddAll(qs); err != nil {
		return err
	}
	a.kv.Save(store.KeyQuestions, a.Bank.All())
	return nil
}

// DeleteQuestion soft-deletes a question and persists both the active
// set and the deleted-id set, so the deletion survives restarts.
func (a *App) DeleteQuestion(id string) error {
	if _, ok := a.Bank.Get(id); !ok {
		return ErrQuestionNotFound
	}
	a.Bank.Delete(id)
	a.SaveBank()
	return nil
}

// SaveBank persists the active question set and the deleted-id set.
// Call it after any bank mutation made outside this package.
func (a *App) SaveBank() {
	a.kv.Save(store.KeyQuestions, a.Bank.All())
	a.kv.Save(store.KeyDeleted, a.Bank.DeletedIDs())
}

// ToggleStar flips the star on a question and persists the starred set.
func (a *App) ToggleStar(id string) (bool, error) {
	if _, ok := a.Bank.Get(id); !ok {
		return false, ErrQuestionNotFound
	}
	starred := a.Bank.ToggleStar(id)
	a.kv.Save(store.KeyStarred, a.Bank.StarredIDs())
	return starred, nil
}

// ── Progress ────────────────────────────────────────────────────────────────

// SaveProgress persists the ledger and the session history. Call it
// after answers are recorded or a session finishes.
func (a *App) SaveProgress() {
	a.kv.Save(store.KeyStats, a.Ledger.Snapshot())
	a.kv.Save(store.KeyHistory, a.History.Records())
}

// ── Settings ────────────────────────────────────────────────────────────────

// Settings returns the current session settings.
func (a *App) Settings() studysession.Settings {
	return a.settings
}

// UpdateSettings merges a partial update into the settings and persists
// the result. Zero fields in the patch keep their current values.
func (a *App) UpdateSettings(patch studysession.Settings) studysession.Settings {
	a.settings = a.settings.Merge(patch)
	a.kv.Save(store.KeySettings, a.settings)
	return a.settings
}

// ── Reports ─────────────────────────────────────────────────────────────────

// SubmitReport files an objection against an active question.
func (a *App) SubmitReport(questionID, reason string) (report.Report, error) {
	q, ok := a.Bank.Get(questionID)
	if !ok {
		return report.Report{}, ErrQuestionNotFound
	}
	r, err := report.New(q, reason)
	if err != nil {
		return report.Report{}, err
	}
	a.reports = append(a.reports, r)
	a.kv.Save(store.KeyReports, a.reports)
	return r, nil
}

// Reports returns a copy of the filed objections, oldest first.
func (a *App) Reports() []report.Report {
	out := make([]report.Report, len(a.reports))
	copy(out, a.reports)
	return out
}

// ClearReports discards every filed objection.
func (a *App) ClearReports() {
	a.reports = nil
	a.kv.Save(store.KeyReports, []report.Report{})
}

// ReportedQuestions pairs each report with its question. Reports whose
// question has since been deleted are skipped.
func (a *App) ReportedQuestions() []generator.ReportedQuestion {
	var items []generator.ReportedQuestion
	for _, r := range a.reports {
		if q, ok := a.Bank.Get(r.QuestionID); ok {
			items = append(items, generator.ReportedQuestion{Report: r, Question: q})
		}
	}
	return items
}

// ── Backup ──────────────────────────────────────────────────────────────────

// Export snapshots every known store key. Mutating operations persist
// as they happen, so the store is always current.
func (a *App) Export() map[string]json.RawMessage {
	return a.kv.ExportAll(store.KnownKeys())
}

// Import applies a backup snapshot and rebuilds all state from it.
func (a *App) Import(snapshot map[string]json.RawMessage) bool {
	if !a.kv.ImportAll(snapshot) {
		return false
	}
	a.reload()
	return true
}

// Reset wipes every known store key and rebuilds the initial state
// from the bundled question set.
func (a *App) Reset() {
	a.kv.Clear(store.KnownKeys())
	a.reload()
}

// Package store persists application state as JSON values under string
// keys, backed by a single SQLite table. Failures are logged and
// reported as booleans — the in-memory state stays authoritative and
// the app keeps running on a failed write.
package store

import (
	"database/sql"
	"encoding/json"
	"log/slog"

	_ "modernc.org/sqlite"
)

// Known keys. Absence of a key always yields the caller's default,
// never an error.
const (
	KeyQuestions = "psat_exam_questions"
	KeyStats     = "psat_exam_stats"
	KeyStarred   = "psat_exam_starred"
	KeyDeleted   = "psat_exam_deleted"
	KeyHistory   = "psat_exam_history"
	KeySettings  = "psat_exam_settings"
	KeyReports   = "psat_exam_reports"
	KeyAPIKey    = "psat_api_key"
	KeyAPIModel  = "psat_api_model"
)

// KnownKeys returns every key the store tracks, in export order.
func KnownKeys() []string {
	return []string{
		KeyQuestions, KeyStats, KeyStarred, KeyDeleted,
		KeyHistory, KeySettings, KeyReports, KeyAPIKey, KeyAPIModel,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// KV is the key-value persistence adapter.
type KV struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the backing database.
func Open(path string, logger *slog.Logger) (*KV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &KV{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *KV) Close() error {
	return s.db.Close()
}

// Save serializes v under key. Returns false (and logs) on failure.
func (s *KV) Save(key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("store: marshal failed", "key", key, "error", err)
		return false
	}
	if _, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(data),
	); err != nil {
		s.logger.Error("store: save failed", "key", key, "error", err)
		return false
	}
	return true
}

// Load deserializes the value under key into dst. Returns false when
// the key is absent or the stored value is malformed; dst is left
// untouched in both cases so the caller's default survives.
func (s *KV) Load(key string, dst any) bool {
	var raw string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		s.logger.Error("store: load failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Error("store: malformed value treated as absent", "key", key, "error", err)
		return false
	}
	return true
}

// Remove deletes a key. Removing an absent key succeeds.
func (s *KV) Remove(key string) bool {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		s.logger.Error("store: remove failed", "key", key, "error", err)
		return false
	}
	return true
}

// Clear removes every given key.
func (s *KV) Clear(keys []string) bool {
	ok := true
	for _, key := range keys {
		if !s.Remove(key) {
			ok = false
		}
	}
	return ok
}

// ExportAll snapshots the given keys into one map. Absent keys are
// omitted from the snapshot.
func (s *KV) ExportAll(keys []string) map[string]json.RawMessage {
	snapshot := make(map[string]json.RawMessage)
	for _, key := range keys {
		var raw string
		err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			s.logger.Error("store: export failed", "key", key, "error", err)
			continue
		}
		snapshot[key] = json.RawMessage(raw)
	}
	return snapshot
}

// ImportAll applies each known key present in the snapshot. Unknown
// keys are ignored.
func (s *KV) ImportAll(snapshot map[string]json.RawMessage) bool {
	ok := true
	for _, key := range KnownKeys() {
		raw, present := snapshot[key]
		if !present || len(raw) == 0 {
			continue
		}
		if !json.Valid(raw) {
			s.logger.Error("store: import skipped invalid value", "key", key)
			ok = false
			continue
		}
		if _, err := s.db.Exec(
			"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, string(raw),
		); err != nil {
			s.logger.Error("store: import failed", "key", key, "error", err)
			ok = false
		}
	}
	return ok
}

package studysession

// HistoryRecord summarizes one finished session.
type HistoryRecord struct {
	Date    int64 `json:"date"` // unix milliseconds
	Mode    Mode  `json:"mode"`
	Total   int   `json:"total"`
	Correct int   `json:"correct"`
	Seconds int   `json:"time"`
}

// maxHistory caps the append-only session log.
const maxHistory = 100

// History is the append-only log of finished sessions, capped at the
// most recent 100 records. Oldest records are discarded first.
type History struct {
	records []HistoryRecord
}

// NewHistory creates an empty history log.
func NewHistory() *History {
	return &History{}
}

// Append adds a record and evicts the oldest entries beyond the cap.
func (h *History) Append(r HistoryRecord) {
	h.records = append(h.records, r)
	if len(h.records) > maxHistory {
		h.records = h.records[len(h.records)-maxHistory:]
	}
}

// Records returns a copy of the log, oldest first.
func (h *History) Records() []HistoryRecord {
	out := make([]HistoryRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Len returns the number of stored records.
func (h *History) Len() int {
	return len(h.records)
}

// Restore replaces the log with a persisted snapshot, re-applying the cap.
func (h *History) Restore(records []HistoryRecord) {
	if len(records) > maxHistory {
		records = records[len(records)-maxHistory:]
	}
	h.records = append(h.records[:0], records...)
}

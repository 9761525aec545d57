// Package stats tracks per-question answer statistics and derives the
// weak / wrong-last classifications used for session selection.
package stats

import (
	"time"

	"github.com/psatprep/backend/internal/domain/question"
)

// Entry holds the counters for a single question. Created lazily on the
// first recorded answer, mutated on every answer after that.
type Entry struct {
	Attempts    int   `json:"attempts"`
	Correct     int   `json:"correct"`
	LastWrong   bool  `json:"lastWrong"`
	LastAttempt int64 `json:"lastAttempt"` // unix milliseconds
}

// Ledger maps question ids to their entries. It outlives any single
// session and is independently addressable by question id.
type Ledger struct {
	entries map[string]Entry
	now     func() time.Time
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// RecordAnswer increments the attempt counter for the question,
// increments the correct counter iff the answer was correct, and
// updates the last-result flag and last-attempt timestamp.
func (l *Ledger) RecordAnswer(id string, correct bool) {
	e := l.entries[id]
	e.Attempts++
	if correct {
		e.Correct++
		e.LastWrong = false
	} else {
		e.LastWrong = true
	}
	e.LastAttempt = l.now().UnixMilli()
	l.entries[id] = e
}

// Entry returns the entry for a question id, if one exists.
func (l *Ledger) Entry(id string) (Entry, bool) {
	e, ok := l.entries[id]
	return e, ok
}

// Accuracy returns correct/attempts for the question, or 0 when it has
// never been attempted. CategoryAccuracy intentionally uses a different
// default (0.5) for categories with no attempts.
func (l *Ledger) Accuracy(id string) float64 {
	e, ok := l.entries[id]
	if !ok || e.Attempts == 0 {
		return 0
	}
	return float64(e.Correct) / float64(e.Attempts)
}

// IsWeak reports whether the question has been attempted at least once
// with historical accuracy below 50%. Exactly 50% is not weak.
func (l *Ledger) IsWeak(id string) bool {
	e, ok := l.entries[id]
	return ok && e.Attempts > 0 && float64(e.Correct)/float64(e.Attempts) < 0.5
}

// IsWrongLast reports whether the most recent answer to the question
// was wrong.
func (l *Ledger) IsWrongLast(id string) bool {
	e, ok := l.entries[id]
	return ok && e.LastWrong
}

// TotalAttempted returns the number of distinct questions with at least
// one recorded answer.
func (l *Ledger) TotalAttempted() int {
	return len(l.entries)
}

// OverallAccuracy returns the aggregate accuracy across all entries,
// or 0 when nothing has been attempted.
func (l *Ledger) OverallAccuracy() float64 {
	attempts, correct := 0, 0
	for _, e := range l.entries {
		attempts += e.Attempts
		correct += e.Correct
	}
	if attempts == 0 {
		return 0
	}
	return float64(correct) / float64(attempts)
}

// CategoryAccuracy aggregates accuracy over the given questions,
// defaulting to the neutral prior 0.5 when none of them has been
// attempted.
func (l *Ledger) CategoryAccuracy(qs []question.Question) float64 {
	attempts, correct := 0, 0
	for _, q := range qs {
		if e, ok := l.entries[q.ID]; ok {
			attempts += e.Attempts
			correct += e.Correct
		}
	}
	if attempts == 0 {
		return 0.5
	}
	return float64(correct) / float64(attempts)
}

// SolvedCount returns how many of the given questions have an entry.
func (l *Ledger) SolvedCount(qs []question.Question) int {
	n := 0
	for _, q := range qs {
		if _, ok := l.entries[q.ID]; ok {
			n++
		}
	}
	return n
}

// AttemptedToday returns how many questions were last attempted on the
// same calendar day as now.
func (l *Ledger) AttemptedToday(now time.Time) int {
	y, m, d := now.Date()
	n := 0
	for _, e := range l.entries {
		if e.LastAttempt == 0 {
			continue
		}
		ey, em, ed := time.UnixMilli(e.LastAttempt).In(now.Location()).Date()
		if ey == y && em == m && ed == d {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of all entries for persistence.
func (l *Ledger) Snapshot() map[string]Entry {
	out := make(map[string]Entry, len(l.entries))
	for id, e := range l.entries {
		out[id] = e
	}
	return out
}

// Restore replaces the ledger contents with a persisted snapshot.
// Entries that violate the counter invariants are dropped — corrupted
// persisted data is treated as absent, never as an error.
func (l *Ledger) Restore(entries map[string]Entry) {
	l.entries = make(map[string]Entry, len(entries))
	for id, e := range entries {
		if id == "" || e.Attempts < 0 || e.Correct < 0 || e.Correct > e.Attempts {
			continue
		}
		l.entries[id] = e
	}
}

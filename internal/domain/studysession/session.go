// Package studysession runs one timed pass through a selected list of
// questions: selection by mode, answer recording, navigation, and
// finalization into a history record.
package studysession

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/psatprep/backend/internal/domain/question"
	"github.com/psatprep/backend/internal/domain/questionbank"
	"github.com/psatprep/backend/internal/domain/stats"
)

// Mode selects which questions a session runs over.
type Mode string

const (
	ModeRandom   Mode = "random"   // uniform shuffle of the whole bank, truncated
	ModeMath     Mode = "math"     // MATH category, shuffled and truncated
	ModeLang     Mode = "lang"     // LANG category, shuffled and truncated
	ModeWeakness Mode = "weakness" // all weak questions, unshuffled
	ModeWrong    Mode = "wrong"    // all wrong-last questions, unshuffled
	ModeSingle   Mode = "single"   // exactly one question
	ModeAI       Mode = "ai"       // review of freshly generated questions
)

// State is the session lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateActive
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return "idle"
	}
}

var (
	// ErrNoQuestions signals an empty selection. The session does not
	// start; this is a user-facing notice, not a fatal error.
	ErrNoQuestions = errors.New("no questions available")
	// ErrNoMistakes signals that a finished session has nothing to review.
	ErrNoMistakes = errors.New("no mistakes to review")
	// ErrNotActive is returned by operations that need a running session.
	ErrNotActive = errors.New("no active session")
	// ErrNotFinished is returned by ReviewMistakes before Finish.
	ErrNotFinished = errors.New("session is not finished")
)

// AnswerOutcome reports the result of an Answer call. Recorded is false
// when the question already had an answer this session — the first
// answer is final and repeats are no-ops.
type AnswerOutcome struct {
	Correct  bool
	Recorded bool
}

// Summary is the result of a finished session.
type Summary struct {
	Mode    Mode `json:"mode"`
	Total   int  `json:"total"`
	Correct int  `json:"correct"`
	Wrong   int  `json:"wrong"`
	Score   int  `json:"score"` // percentage, 0 when nothing was answered
	Seconds int  `json:"seconds"`
}

// Engine drives the session state machine Idle → Active → Finished.
// It borrows an immutable snapshot of questions from the bank per
// session and owns only the transient progress state plus the one
// elapsed-seconds ticker. The caller serializes access; the ticker
// goroutine only touches the elapsed counter, under its own mutex.
type Engine struct {
	bank    *questionbank.Bank
	ledger  *stats.Ledger
	history *History

	state     State
	mode      Mode
	questions []question.Question
	current   int
	answers   map[string]int

	tick    time.Duration
	tickMu  sync.Mutex
	elapsed int
	stop    chan struct{}
	done    chan struct{}

	now func() time.Time
}

// NewEngine creates an idle engine ticking once per second while a
// session is active.
func NewEngine(bank *questionbank.Bank, ledger *stats.Ledger, history *History) *Engine {
	return NewEngineWithInterval(bank, ledger, history, time.Second)
}

// NewEngineWithInterval creates an engine with a custom tick interval.
// Tests use short intervals; production code uses NewEngine.
func NewEngineWithInterval(bank *questionbank.Bank, ledger *stats.Ledger, history *History, tick time.Duration) *Engine {
	return &Engine{
		bank:    bank,
		ledger:  ledger,
		history: history,
		tick:    tick,
		now:     time.Now,
	}
}

// Start selects questions for the given mode and activates the session.
// Valid from Idle or Finished. An empty selection returns ErrNoQuestions
// and leaves the engine in its previous state with no timer running.
func (e *Engine) Start(mode Mode, settings Settings) error {
	var selected []question.Question

	switch mode {
	case ModeWeakness:
		for _, q := range e.bank.All() {
			if e.ledger.IsWeak(q.ID) {
				selected = append(selected, q)
			}
		}
	case ModeWrong:
		for _, q := range e.bank.All() {
			if e.ledger.IsWrongLast(q.ID) {
				selected = append(selected, q)
			}
		}
	case ModeMath:
		selected = shuffleTruncate(e.bank.FilterByCategory(question.CategoryMath), settings.QuestionCount)
	case ModeLang:
		selected = shuffleTruncate(e.bank.FilterByCategory(question.CategoryLang), settings.QuestionCount)
	default:
		selected = shuffleTruncate(e.bank.All(), settings.QuestionCount)
	}

	return e.activate(mode, selected)
}

// StartSingle activates a session over exactly one question.
func (e *Engine) StartSingle(id string) error {
	q, ok := e.bank.Get(id)
	if !ok {
		return ErrNoQuestions
	}
	return e.activate(ModeSingle, []question.Question{q})
}

// StartWith activates a session over an explicit question list, used
// for reviewing freshly generated questions and for mistake review.
func (e *Engine) StartWith(mode Mode, qs []question.Question) error {
	snapshot := make([]question.Question, len(qs))
	copy(snapshot, qs)
	return e.activate(mode, snapshot)
}

func (e *Engine) activate(mode Mode, selected []question.Question) error {
	if len(selected) == 0 {
		return ErrNoQuestions
	}

	e.stopTicker()
	e.state = StateActive
	e.mode = mode
	e.questions = selected
	e.current = 0
	e.answers = make(map[string]int)
	e.startTicker()
	return nil
}

// Answer records the choice for the current question and forwards the
// outcome to the ledger. The first answer per question is final: a
// repeated call records nothing and reports the stored outcome.
func (e *Engine) Answer(idx int) (AnswerOutcome, error) {
	if e.state != StateActive {
		return AnswerOutcome{}, ErrNotActive
	}
	if idx < 0 || idx >= question.OptionCount {
		return AnswerOutcome{}, errors.New("answer index out of range")
	}

	q := e.questions[e.current]
	if prev, answered := e.answers[q.ID]; answered {
		return AnswerOutcome{Correct: prev == q.AnswerIndex, Recorded: false}, nil
	}

	e.answers[q.ID] = idx
	correct := idx == q.AnswerIndex
	e.ledger.RecordAnswer(q.ID, correct)
	return AnswerOutcome{Correct: correct, Recorded: true}, nil
}

// Advance moves forward one question. On the last question it finishes
// the session instead and returns the summary.
func (e *Engine) Advance() (Summary, bool, error) {
	if e.state != StateActive {
		return Summary{}, false, ErrNotActive
	}
	if e.current < len(e.questions)-1 {
		e.current++
		return Summary{}, false, nil
	}
	summary, err := e.Finish()
	return summary, true, err
}

// Retreat moves back one question; at the first question it is a no-op.
func (e *Engine) Retreat() error {
	if e.state != StateActive {
		return ErrNotActive
	}
	if e.current > 0 {
		e.current--
	}
	return nil
}

// RemoveCurrent soft-deletes the current question from the bank and
// drops it from the session snapshot. When the snapshot empties the
// session finishes; otherwise the index clamps so the position stays
// stable relative to its neighbors.
func (e *Engine) RemoveCurrent() (Summary, bool, error) {
	if e.state != StateActive {
		return Summary{}, false, ErrNotActive
	}

	q := e.questions[e.current]
	e.bank.Delete(q.ID)
	e.questions = append(e.questions[:e.current], e.questions[e.current+1:]...)

	if len(e.questions) == 0 {
		summary, err := e.Finish()
		return summary, true, err
	}
	if e.current >= len(e.questions) {
		e.current = len(e.questions) - 1
	}
	return Summary{}, false, nil
}

// Finish stops the ticker, scores the session, and appends a history
// record. Unanswered questions count neither as correct nor as wrong;
// answers to questions deleted mid-session still count as answered.
func (e *Engine) Finish() (Summary, error) {
	if e.state != StateActive {
		return Summary{}, ErrNotActive
	}
	e.stopTicker()

	correct := 0
	for _, q := range e.questions {
		if ans, ok := e.answers[q.ID]; ok && ans == q.AnswerIndex {
			correct++
		}
	}
	total := len(e.answers)

	score := 0
	if total > 0 {
		score = int(math.Round(float64(correct) / float64(total) * 100))
	}

	summary := Summary{
		Mode:    e.mode,
		Total:   total,
		Correct: correct,
		Wrong:   total - correct,
		Score:   score,
		Seconds: e.Elapsed(),
	}

	e.history.Append(HistoryRecord{
		Date:    e.now().UnixMilli(),
		Mode:    e.mode,
		Total:   summary.Total,
		Correct: summary.Correct,
		Seconds: summary.Seconds,
	})

	e.state = StateFinished
	return summary, nil
}

// ReviewMistakes starts a new wrong-mode session over the questions of
// the just-finished session that were answered incorrectly.
func (e *Engine) ReviewMistakes() error {
	if e.state != StateFinished {
		return ErrNotFinished
	}

	var missed []question.Question
	for _, q := range e.questions {
		if ans, ok := e.answers[q.ID]; ok && ans != q.AnswerIndex {
			missed = append(missed, q)
		}
	}
	if len(missed) == 0 {
		return ErrNoMistakes
	}
	return e.activate(ModeWrong, missed)
}

// Close stops any running ticker. Safe to call in any state.
func (e *Engine) Close() {
	e.stopTicker()
}

// ── Queries ─────────────────────────────────────────────────────────────────

// State returns the lifecycle phase.
func (e *Engine) State() State { return e.state }

// Mode returns the mode of the current or last session.
func (e *Engine) Mode() Mode { return e.mode }

// Len returns the size of the session snapshot.
func (e *Engine) Len() int { return len(e.questions) }

// CurrentIndex returns the zero-based position in the snapshot.
func (e *Engine) CurrentIndex() int { return e.current }

// Current returns the question at the current position.
func (e *Engine) Current() (question.Question, error) {
	if e.state != StateActive {
		return question.Question{}, ErrNotActive
	}
	return e.questions[e.current], nil
}

// Questions returns a copy of the session snapshot.
func (e *Engine) Questions() []question.Question {
	out := make([]question.Question, len(e.questions))
	copy(out, e.questions)
	return out
}

// SelectedAnswer returns the recorded choice for a question id.
func (e *Engine) SelectedAnswer(id string) (int, bool) {
	idx, ok := e.answers[id]
	return idx, ok
}

// AnsweredCount returns how many questions have a recorded choice.
func (e *Engine) AnsweredCount() int { return len(e.answers) }

// Elapsed returns the elapsed seconds of the current or last session.
func (e *Engine) Elapsed() int {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	return e.elapsed
}

// ── Ticker ──────────────────────────────────────────────────────────────────

func (e *Engine) startTicker() {
	e.tickMu.Lock()
	e.elapsed = 0
	e.tickMu.Unlock()

	stop := make(chan struct{})
	done := make(chan struct{})
	e.stop, e.done = stop, done

	go func() {
		defer close(done)
		t := time.NewTicker(e.tick)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				e.tickMu.Lock()
				e.elapsed++
				e.tickMu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

// stopTicker cancels the ticker goroutine and waits for it to exit, so
// no tick can fire after Finish or after a replacement session starts.
func (e *Engine) stopTicker() {
	if e.stop == nil {
		return
	}
	close(e.stop)
	<-e.done
	e.stop, e.done = nil, nil
}

// shuffleTruncate returns a uniform random permutation of qs truncated
// to limit. A non-positive limit keeps everything.
func shuffleTruncate(qs []question.Question, limit int) []question.Question {
	shuffled := make([]question.Question, len(qs))
	copy(shuffled, qs)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if limit > 0 && limit < len(shuffled) {
		shuffled = shuffled[:limit]
	}
	return shuffled
}

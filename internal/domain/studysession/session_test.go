package studysession_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/psatprep/backend/internal/domain/question"
	"github.com/psatprep/backend/internal/domain/questionbank"
	"github.com/psatprep/backend/internal/domain/stats"
	"github.com/psatprep/backend/internal/domain/studysession"
)

func makePool(n int) []question.Question {
	qs := make([]question.Question, n)
	for i := range qs {
		area := "A"
		if i%2 == 1 {
			area = "B"
		}
		qs[i] = question.Question{
			ID:          fmt.Sprintf("Q%d", i+1),
			Area:        area,
			Level:       1 + i%3,
			Stem:        fmt.Sprintf("Stem %d", i+1),
			Options:     []string{"a", "b", "c", "d", "e"},
			AnswerIndex: i % 5,
		}
	}
	return qs
}

func newFixture(n int) (*studysession.Engine, *questionbank.Bank, *stats.Ledger, *studysession.History) {
	bank := questionbank.New()
	bank.Load(makePool(n), nil, nil, nil)
	ledger := stats.NewLedger()
	history := studysession.NewHistory()
	engine := studysession.NewEngineWithInterval(bank, ledger, history, time.Millisecond)
	return engine, bank, ledger, history
}

func mustStart(t *testing.T, e *studysession.Engine, mode studysession.Mode, settings studysession.Settings) {
	t.Helper()
	if err := e.Start(mode, settings); err != nil {
		t.Fatalf("start failed: %v", err)
	}
}

func TestStart_RandomNeverInventsOrDuplicates(t *testing.T) {
	engine, _, _, _ := newFixture(10)
	defer engine.Close()

	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{QuestionCount: 25})

	qs := engine.Questions()
	if len(qs) != 10 {
		t.Fatalf("expected all 10 pool questions, got %d", len(qs))
	}
	seen := make(map[string]bool)
	for _, q := range qs {
		if seen[q.ID] {
			t.Errorf("duplicate question id %s", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestStart_RandomTruncatesToQuestionCount(t *testing.T) {
	engine, _, _, _ := newFixture(40)
	defer engine.Close()

	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{QuestionCount: 25})

	if got := engine.Len(); got != 25 {
		t.Errorf("expected 25 questions, got %d", got)
	}
}

func TestStart_RandomizesOrder(t *testing.T) {
	engine, _, _, _ := newFixture(20)
	defer engine.Close()

	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})
	first := engine.Questions()

	// Statistically almost certain to see a different order within a
	// few restarts of a 20-question pool.
	for i := 0; i < 10; i++ {
		mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})
		if !sameOrder(first, engine.Questions()) {
			return
		}
	}
	t.Error("expected questions to be randomized across sessions")
}

func TestStart_CategoryFilters(t *testing.T) {
	engine, _, _, _ := newFixture(10)
	defer engine.Close()

	mustStart(t, engine, studysession.ModeMath, studysession.Settings{QuestionCount: 25})
	for _, q := range engine.Questions() {
		if q.ResolveCategory() != question.CategoryMath {
			t.Errorf("question %s is not MATH", q.ID)
		}
	}

	mustStart(t, engine, studysession.ModeLang, studysession.Settings{QuestionCount: 25})
	for _, q := range engine.Questions() {
		if q.ResolveCategory() != question.CategoryLang {
			t.Errorf("question %s is not LANG", q.ID)
		}
	}
}

func TestStart_WeaknessSelectsWeakOnly(t *testing.T) {
	engine, _, ledger, _ := newFixture(6)
	defer engine.Close()

	// Q1: 0/2 → weak. Q2: 1/2 → exactly 0.5, not weak. Q3: 1/1 → not weak.
	ledger.RecordAnswer("Q1", false)
	ledger.RecordAnswer("Q1", false)
	ledger.RecordAnswer("Q2", true)
	ledger.RecordAnswer("Q2", false)
	ledger.RecordAnswer("Q3", true)

	mustStart(t, engine, studysession.ModeWeakness, studysession.Settings{})

	qs := engine.Questions()
	if len(qs) != 1 || qs[0].ID != "Q1" {
		t.Errorf("expected exactly [Q1], got %v", ids(qs))
	}
}

func TestStart_EmptySelectionDoesNotActivate(t *testing.T) {
	engine, _, _, _ := newFixture(5)
	defer engine.Close()

	err := engine.Start(studysession.ModeWeakness, studysession.Settings{})
	if !errors.Is(err, studysession.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	if engine.State() != studysession.StateIdle {
		t.Errorf("expected engine to stay idle, got %v", engine.State())
	}
}

func TestStart_WrongMode(t *testing.T) {
	engine, _, ledger, _ := newFixture(4)
	defer engine.Close()

	ledger.RecordAnswer("Q2", false)
	ledger.RecordAnswer("Q3", true)

	mustStart(t, engine, studysession.ModeWrong, studysession.Settings{})

	qs := engine.Questions()
	if len(qs) != 1 || qs[0].ID != "Q2" {
		t.Errorf("expected exactly [Q2], got %v", ids(qs))
	}
}

func TestStartSingle(t *testing.T) {
	engine, _, _, _ := newFixture(5)
	defer engine.Close()

	if err := engine.StartSingle("Q3"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if engine.Len() != 1 {
		t.Errorf("expected 1 question, got %d", engine.Len())
	}
	if err := engine.StartSingle("missing"); !errors.Is(err, studysession.ErrNoQuestions) {
		t.Errorf("expected ErrNoQuestions for unknown id, got %v", err)
	}
}

func TestAnswer_FirstAnswerIsFinal(t *testing.T) {
	engine, _, ledger, _ := newFixture(3)
	defer engine.Close()

	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})
	q, _ := engine.Current()

	out, err := engine.Answer(q.AnswerIndex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Recorded || !out.Correct {
		t.Errorf("expected recorded correct answer, got %+v", out)
	}

	// A second answer must not overwrite or re-record.
	wrongIdx := (q.AnswerIndex + 1) % 5
	out, err = engine.Answer(wrongIdx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Recorded {
		t.Error("expected repeated answer to be a no-op")
	}
	if !out.Correct {
		t.Error("expected outcome to reflect the original answer")
	}

	e, _ := ledger.Entry(q.ID)
	if e.Attempts != 1 || e.Correct != 1 {
		t.Errorf("expected single ledger record, got attempts=%d correct=%d", e.Attempts, e.Correct)
	}
}

func TestAnswer_OutOfRange(t *testing.T) {
	engine, _, _, _ := newFixture(3)
	defer engine.Close()
	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})

	if _, err := engine.Answer(5); err == nil {
		t.Error("expected error for out-of-range index")
	}
	if _, err := engine.Answer(-1); err == nil {
		t.Error("expected error for negative index")
	}
}

func TestNavigation_Clamps(t *testing.T) {
	engine, _, _, _ := newFixture(3)
	defer engine.Close()
	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})

	if err := engine.Retreat(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.CurrentIndex() != 0 {
		t.Error("retreat at index 0 must be a no-op")
	}

	if _, finished, _ := engine.Advance(); finished {
		t.Fatal("advance in the middle must not finish")
	}
	if engine.CurrentIndex() != 1 {
		t.Errorf("expected index 1, got %d", engine.CurrentIndex())
	}

	engine.Advance() // index 2, last question
	_, finished, err := engine.Advance()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finished {
		t.Error("advance at the last index must finish the session")
	}
	if engine.State() != studysession.StateFinished {
		t.Errorf("expected finished state, got %v", engine.State())
	}
}

func TestRemoveCurrent(t *testing.T) {
	engine, bank, _, _ := newFixture(3)
	defer engine.Close()
	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})

	engine.Advance()
	engine.Advance() // last question
	q, _ := engine.Current()

	_, finished, err := engine.RemoveCurrent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finished {
		t.Fatal("session must continue while questions remain")
	}
	if _, ok := bank.Get(q.ID); ok {
		t.Error("expected question removed from the bank")
	}
	if engine.Len() != 2 {
		t.Errorf("expected 2 questions left, got %d", engine.Len())
	}
	// Index was past the end after removal and must clamp back.
	if engine.CurrentIndex() != 1 {
		t.Errorf("expected index clamped to 1, got %d", engine.CurrentIndex())
	}
}

func TestRemoveCurrent_FinishesWhenEmpty(t *testing.T) {
	engine, _, _, history := newFixture(1)
	defer engine.Close()
	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})

	_, finished, err := engine.RemoveCurrent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finished {
		t.Error("expected session to finish when the snapshot empties")
	}
	if history.Len() != 1 {
		t.Errorf("expected a history record, got %d", history.Len())
	}
}

func TestFinish_CountsAndHistory(t *testing.T) {
	engine, _, _, history := newFixture(5)
	defer engine.Close()
	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})

	// Answer 3 of 5 presented questions, 2 correctly.
	answer := func(correct bool) {
		q, _ := engine.Current()
		idx := q.AnswerIndex
		if !correct {
			idx = (idx + 1) % 5
		}
		if _, err := engine.Answer(idx); err != nil {
			t.Fatalf("answer failed: %v", err)
		}
	}
	answer(true)
	engine.Advance()
	answer(false)
	engine.Advance()
	answer(true)

	summary, err := engine.Finish()
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if summary.Total != 3 || summary.Correct != 2 || summary.Wrong != 1 {
		t.Errorf("expected total=3 correct=2 wrong=1, got %+v", summary)
	}
	if summary.Score != 67 {
		t.Errorf("expected score 67, got %d", summary.Score)
	}

	records := history.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(records))
	}
	r := records[0]
	if r.Total != 3 || r.Correct != 2 {
		t.Errorf("history record mismatch: %+v", r)
	}
	if r.Date == 0 {
		t.Error("expected history record date to be stamped")
	}
}

func TestFinish_RequiresActive(t *testing.T) {
	engine, _, _, _ := newFixture(2)
	defer engine.Close()

	if _, err := engine.Finish(); !errors.Is(err, studysession.ErrNotActive) {
		t.Errorf("expected ErrNotActive, got %v", err)
	}
}

func TestHistory_CapAt100(t *testing.T) {
	h := studysession.NewHistory()
	for i := 0; i < 150; i++ {
		h.Append(studysession.HistoryRecord{Date: int64(i)})
	}

	records := h.Records()
	if len(records) != 100 {
		t.Fatalf("expected 100 records, got %d", len(records))
	}
	// The earliest 50 are evicted; the rest remain in original order.
	for i, r := range records {
		if r.Date != int64(i+50) {
			t.Fatalf("record %d: expected date %d, got %d", i, i+50, r.Date)
		}
	}
}

func TestReviewMistakes(t *testing.T) {
	engine, _, _, _ := newFixture(4)
	defer engine.Close()
	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})

	// Miss the first question, answer the second correctly.
	q, _ := engine.Current()
	missedID := q.ID
	engine.Answer((q.AnswerIndex + 1) % 5)
	engine.Advance()
	q, _ = engine.Current()
	engine.Answer(q.AnswerIndex)
	engine.Finish()

	if err := engine.ReviewMistakes(); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if engine.State() != studysession.StateActive {
		t.Error("expected review session to be active")
	}
	if engine.Mode() != studysession.ModeWrong {
		t.Errorf("expected wrong mode, got %v", engine.Mode())
	}
	qs := engine.Questions()
	if len(qs) != 1 || qs[0].ID != missedID {
		t.Errorf("expected review over [%s], got %v", missedID, ids(qs))
	}
}

func TestReviewMistakes_NoMistakes(t *testing.T) {
	engine, _, _, _ := newFixture(2)
	defer engine.Close()
	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})

	q, _ := engine.Current()
	engine.Answer(q.AnswerIndex)
	engine.Finish()

	if err := engine.ReviewMistakes(); !errors.Is(err, studysession.ErrNoMistakes) {
		t.Errorf("expected ErrNoMistakes, got %v", err)
	}
}

func TestTicker_StopsOnFinish(t *testing.T) {
	engine, _, _, _ := newFixture(2)
	defer engine.Close()
	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})

	time.Sleep(20 * time.Millisecond)
	if engine.Elapsed() == 0 {
		t.Fatal("expected elapsed counter to tick while active")
	}

	engine.Finish()
	frozen := engine.Elapsed()
	time.Sleep(20 * time.Millisecond)
	if engine.Elapsed() != frozen {
		t.Error("elapsed counter must not tick after finish")
	}
}

func TestTicker_ResetOnRestart(t *testing.T) {
	engine, _, _, _ := newFixture(2)
	defer engine.Close()
	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})

	time.Sleep(20 * time.Millisecond)
	mustStart(t, engine, studysession.ModeRandom, studysession.Settings{})
	if engine.Elapsed() > 5 {
		t.Errorf("expected elapsed counter reset on restart, got %d", engine.Elapsed())
	}
}

func TestSettings_Merge(t *testing.T) {
	merged := studysession.DefaultSettings().Merge(studysession.Settings{QuestionCount: 10})
	if merged.QuestionCount != 10 {
		t.Errorf("expected question count 10, got %d", merged.QuestionCount)
	}
	if merged.TimeLimitMinutes != 90 {
		t.Errorf("expected default time limit kept, got %d", merged.TimeLimitMinutes)
	}

	merged = studysession.DefaultSettings().Merge(studysession.Settings{QuestionCount: -3})
	if merged.QuestionCount != 25 {
		t.Errorf("expected non-positive value ignored, got %d", merged.QuestionCount)
	}
}

func sameOrder(a, b []question.Question) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func ids(qs []question.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

package report_test

import (
	"strings"
	"testing"

	"github.com/psatprep/backend/internal/domain/question"
	"github.com/psatprep/backend/internal/domain/report"
)

func TestNewReport(t *testing.T) {
	q := question.Question{ID: "Q1", Code: "A2-01", Stem: "Some stem"}

	r, err := report.New(q, "  answer key looks wrong  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.QuestionID != "Q1" || r.QuestionCode != "A2-01" {
		t.Errorf("question fields not carried over: %+v", r)
	}
	if r.Reason != "answer key looks wrong" {
		t.Errorf("expected trimmed reason, got %q", r.Reason)
	}
	if r.ReportedAt == 0 {
		t.Error("expected reportedAt to be stamped")
	}
}

func TestNewReport_EmptyReason(t *testing.T) {
	if _, err := report.New(question.Question{ID: "Q1"}, "   "); err == nil {
		t.Error("expected error for blank reason")
	}
}

func TestNewReport_TruncatesStem(t *testing.T) {
	q := question.Question{ID: "Q1", Stem: strings.Repeat("x", 300)}

	r, err := report.New(q, "typo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len([]rune(r.Stem)) != 100 {
		t.Errorf("expected stem preview of 100 runes, got %d", len([]rune(r.Stem)))
	}
}

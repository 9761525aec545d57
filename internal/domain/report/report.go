package report

import (
	"errors"
	"strings"
	"time"

	"github.com/psatprep/backend/internal/domain/question"
)

// Report is a user objection against a question — a claimed wrong
// answer key, a solution error, a typo. Reports are kept for later
// review and can be batched to the generator for analysis.
type Report struct {
	QuestionID   string `json:"questionId"`
	QuestionCode string `json:"questionCode,omitempty"`
	Stem         string `json:"stem"`
	Reason       string `json:"reason"`
	ReportedAt   int64  `json:"reportedAt"` // unix milliseconds
}

// stemPreviewLen caps the stem excerpt stored with a report.
const stemPreviewLen = 100

// New creates a report against q. The reason must be non-blank.
func New(q question.Question, reason string) (Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Report{}, errors.New("report reason cannot be empty")
	}
	return Report{
		QuestionID:   q.ID,
		QuestionCode: q.Code,
		Stem:         preview(q.Stem),
		Reason:       reason,
		ReportedAt:   time.Now().UnixMilli(),
	}, nil
}

func preview(stem string) string {
	runes := []rune(stem)
	if len(runes) <= stemPreviewLen {
		return stem
	}
	return string(runes[:stemPreviewLen])
}

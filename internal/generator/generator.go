package generator

import (
	"context"
	"fmt"

	"github.com/psatprep/backend/internal/domain/question"
	"github.com/psatprep/backend/internal/domain/report"
)

// Generator produces new practice questions from an external model.
// Implementations call an LLM endpoint or return canned results (for tests).
type Generator interface {
	// Generate creates count new questions in the given category and level.
	Generate(ctx context.Context, category question.Category, level, count int) ([]question.Question, error)

	// GenerateSimilar creates questions biased toward the user's error
	// pattern, sampling up to five of the given wrong questions. Falls
	// back to Generate at level 2 when no sample matches the category.
	GenerateSimilar(ctx context.Context, wrong []question.Question, category question.Category, count int) ([]question.Question, error)

	// AnalyzeReports asks the model to review user objections and
	// returns its free-text assessment.
	AnalyzeReports(ctx context.Context, items []ReportedQuestion) (string, error)

	// Ping verifies the configured credential with a minimal request.
	Ping(ctx context.Context) error
}

// ReportedQuestion pairs an objection with the question it targets.
type ReportedQuestion struct {
	Report   report.Report
	Question question.Question
}

// Kind classifies a generation failure. No kind is retried
// automatically; every failure is terminal for that one call.
type Kind int

const (
	KindMissingCredential Kind = iota
	KindUnauthorized
	KindForbidden
	KindModelNotFound
	KindRateLimited
	KindServerOverloaded
	KindMalformedResponse
	KindHTTPStatus
)

func (k Kind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing credential"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindModelNotFound:
		return "model not found"
	case KindRateLimited:
		return "rate limited"
	case KindServerOverloaded:
		return "server overloaded"
	case KindMalformedResponse:
		return "malformed response"
	default:
		return "http error"
	}
}

// GenerateError is returned when a call to the generation endpoint
// fails, so the caller can distinguish a bad credential from a bad
// response shape.
type GenerateError struct {
	Kind    Kind
	Status  int // HTTP status when relevant, 0 otherwise
	Wrapped error
}

func (e *GenerateError) Error() string {
	msg := "generation failed: " + e.Kind.String()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	return msg
}

func (e *GenerateError) Unwrap() error {
	return e.Wrapped
}

// kindForStatus maps an HTTP status to a failure kind.
func kindForStatus(status int) Kind {
	switch status {
	case 401:
		return KindUnauthorized
	case 403:
		return KindForbidden
	case 404:
		return KindModelNotFound
	case 429:
		return KindRateLimited
	case 529:
		return KindServerOverloaded
	default:
		return KindHTTPStatus
	}
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/psatprep/backend/internal/domain/question"
	"github.com/psatprep/backend/internal/generator"
)

// ErrGenerationBusy is returned when a generation request arrives while
// another one is still in flight. Requests are never queued.
var ErrGenerationBusy = errors.New("a generation request is already in flight")

// Committer receives the questions of a successful generation. Nothing
// is committed when generation fails.
type Committer interface {
	CommitQuestions(qs []question.Question) error
}

// GenerationService runs LLM question generation with a single-flight
// guard, so at most one request talks to the model at a time.
type GenerationService struct {
	gen       generator.Generator
	committer Committer
	logger    *slog.Logger

	mu   sync.Mutex
	busy bool
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(g generator.Generator, c Committer, logger *slog.Logger) *GenerationService {
	return &GenerationService{
		gen:       g,
		committer: c,
		logger:    logger,
	}
}

// Busy reports whether a request is currently in flight.
func (gs *GenerationService) Busy() bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.busy
}

// Generate produces count new questions and commits them.
func (gs *GenerationService) Generate(ctx context.Context, category question.Category, level, count int) ([]question.Question, error) {
	if !gs.begin() {
		return nil, ErrGenerationBusy
	}
	defer gs.end()

	qs, err := gs.gen.Generate(ctx, category, level, count)
	if err != nil {
		gs.logger.Error("generation failed",
			"category", category,
			"level", level,
			"count", count,
			"error", err,
		)
		return nil, err
	}
	return gs.commit(qs)
}

// GenerateSimilar produces questions shaped after the user's wrong
// answers and commits them.
func (gs *GenerationService) GenerateSimilar(ctx context.Context, wrong []question.Question, category question.Category, count int) ([]question.Question, error) {
	if !gs.begin() {
		return nil, ErrGenerationBusy
	}
	defer gs.end()

	qs, err := gs.gen.GenerateSimilar(ctx, wrong, category, count)
	if err != nil {
		gs.logger.Error("similar generation failed",
			"category", category,
			"count", count,
			"error", err,
		)
		return nil, err
	}
	return gs.commit(qs)
}

// AnalyzeReports forwards user objections to the model under the same
// single-flight guard. The review text is not persisted.
func (gs *GenerationService) AnalyzeReports(ctx context.Context, items []generator.ReportedQuestion) (string, error) {
	if !gs.begin() {
		return "", ErrGenerationBusy
	}
	defer gs.end()

	text, err := gs.gen.AnalyzeReports(ctx, items)
	if err != nil {
		gs.logger.Error("report analysis failed", "reports", len(items), "error", err)
		return "", err
	}
	return text, nil
}

func (gs *GenerationService) begin() bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.busy {
		return false
	}
	gs.busy = true
	return true
}

func (gs *GenerationService) end() {
	gs.mu.Lock()
	gs.busy = false
	gs.mu.Unlock()
}

// commit hands the generated batch to the committer. A commit failure
// discards the batch so the caller never sees half-saved questions.
func (gs *GenerationService) commit(qs []question.Question) ([]question.Question, error) {
	if err := gs.committer.CommitQuestions(qs); err != nil {
		gs.logger.Error("failed to commit generated questions", "count", len(qs), "error", err)
		return nil, err
	}
	gs.logger.Info("generated questions committed", "count", len(qs))
	return qs, nil
}

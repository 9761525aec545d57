package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/psatprep/backend/internal/domain/question"
	"github.com/psatprep/backend/internal/generator"
	"github.com/psatprep/backend/internal/service"
)

// fakeGenerator returns canned questions, optionally blocking until
// released so tests can hold a request in flight.
type fakeGenerator struct {
	questions []question.Question
	err       error
	block     chan struct{} // nil means do not block
}

func (f *fakeGenerator) Generate(ctx context.Context, category question.Category, level, count int) ([]question.Question, error) {
	if f.block != nil {
		<-f.block
	}
	return f.questions, f.err
}

func (f *fakeGenerator) GenerateSimilar(ctx context.Context, wrong []question.Question, category question.Category, count int) ([]question.Question, error) {
	return f.questions, f.err
}

func (f *fakeGenerator) AnalyzeReports(ctx context.Context, items []generator.ReportedQuestion) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "analysis", nil
}

func (f *fakeGenerator) Ping(ctx context.Context) error { return f.err }

type fakeCommitter struct {
	mu        sync.Mutex
	committed []question.Question
	err       error
}

func (f *fakeCommitter) CommitQuestions(qs []question.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.committed = append(f.committed, qs...)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerate_CommitsOnSuccess(t *testing.T) {
	qs := []question.Question{{ID: "AI_1"}, {ID: "AI_2"}}
	committer := &fakeCommitter{}
	svc := service.NewGenerationService(&fakeGenerator{questions: qs}, committer, discard())

	got, err := svc.Generate(context.Background(), question.CategoryMath, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 questions, got %d", len(got))
	}
	if len(committer.committed) != 2 {
		t.Errorf("expected 2 committed questions, got %d", len(committer.committed))
	}
}

func TestGenerate_CommitsNothingOnFailure(t *testing.T) {
	genErr := &generator.GenerateError{Kind: generator.KindRateLimited, Status: 429}
	committer := &fakeCommitter{}
	svc := service.NewGenerationService(&fakeGenerator{err: genErr}, committer, discard())

	_, err := svc.Generate(context.Background(), question.CategoryMath, 2, 2)
	var got *generator.GenerateError
	if !errors.As(err, &got) || got.Kind != generator.KindRateLimited {
		t.Fatalf("expected rate limited error, got %v", err)
	}
	if len(committer.committed) != 0 {
		t.Errorf("expected nothing committed, got %d", len(committer.committed))
	}
}

func TestGenerate_CommitFailureDiscardsBatch(t *testing.T) {
	committer := &fakeCommitter{err: errors.New("duplicate id")}
	svc := service.NewGenerationService(&fakeGenerator{questions: []question.Question{{ID: "AI_1"}}}, committer, discard())

	if _, err := svc.Generate(context.Background(), question.CategoryMath, 2, 1); err == nil {
		t.Fatal("expected commit error")
	}
}

func TestGenerate_RejectsConcurrentRequests(t *testing.T) {
	block := make(chan struct{})
	gen := &fakeGenerator{questions: []question.Question{{ID: "AI_1"}}, block: block}
	svc := service.NewGenerationService(gen, &fakeCommitter{}, discard())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), question.CategoryMath, 2, 1)
		done <- err
	}()

	// Wait for the first request to be in flight.
	for !svc.Busy() {
		time.Sleep(time.Millisecond)
	}

	if _, err := svc.Generate(context.Background(), question.CategoryMath, 2, 1); !errors.Is(err, service.ErrGenerationBusy) {
		t.Errorf("expected ErrGenerationBusy, got %v", err)
	}
	if _, err := svc.GenerateSimilar(context.Background(), nil, question.CategoryMath, 1); !errors.Is(err, service.ErrGenerationBusy) {
		t.Errorf("expected ErrGenerationBusy for similar, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	// The guard releases once the request completes.
	if _, err := svc.Generate(context.Background(), question.CategoryMath, 2, 1); err != nil {
		t.Errorf("expected guard released, got %v", err)
	}
}

func TestAnalyzeReports(t *testing.T) {
	svc := service.NewGenerationService(&fakeGenerator{}, &fakeCommitter{}, discard())

	text, err := svc.AnalyzeReports(context.Background(), []generator.ReportedQuestion{{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "analysis" {
		t.Errorf("unexpected text %q", text)
	}
}

package questionbank

import (
	"errors"
	"sort"

	"github.com/psatprep/backend/internal/domain/question"
)

// Bank is the sole owner of question identity and lifecycle. It holds
// the active question set together with the deleted-id set (soft
// deletion) and the starred-id set. A deleted id never re-enters the
// active set, even when a later Load re-merges a bundled source that
// still contains it.
type Bank struct {
	questions []question.Question
	deleted   map[string]struct{}
	starred   map[string]struct{}
}

// New creates an empty bank.
func New() *Bank {
	return &Bank{
		deleted: make(map[string]struct{}),
		starred: make(map[string]struct{}),
	}
}

// Load rebuilds the active set. Bundled questions take precedence
// positionally; previously persisted AI-generated questions are
// appended after them. When the bundled set is empty the persisted set
// is used as-is — an empty result is a valid empty state, not an error.
// Ids in deletedIDs are excluded no matter where they come from.
func (b *Bank) Load(bundled, saved []question.Question, deletedIDs, starredIDs []string) {
	b.deleted = make(map[string]struct{}, len(deletedIDs))
	for _, id := range deletedIDs {
		b.deleted[id] = struct{}{}
	}
	b.starred = make(map[string]struct{}, len(starredIDs))
	for _, id := range starredIDs {
		b.starred[id] = struct{}{}
	}

	var merged []question.Question
	if len(bundled) > 0 {
		merged = append(merged, bundled...)
		for _, q := range saved {
			if q.IsAI {
				merged = append(merged, q)
			}
		}
	} else {
		merged = append(merged, saved...)
	}

	b.questions = b.questions[:0]
	for _, q := range merged {
		if _, gone := b.deleted[q.ID]; gone {
			continue
		}
		b.questions = append(b.questions, q)
	}
}

// Add appends a new question. The caller must have assigned a unique id.
func (b *Bank) Add(q question.Question) error {
	if q.ID == "" {
		return errors.New("question id cannot be empty")
	}
	if _, gone := b.deleted[q.ID]; gone {
		return errors.New("question id was previously deleted")
	}
	for _, existing := range b.questions {
		if existing.ID == q.ID {
			return errors.New("question id already exists")
		}
	}
	b.questions = append(b.questions, q)
	return nil
}

// AddAll appends a batch of questions atomically: if any element is
// rejected, none are added.
func (b *Bank) AddAll(qs []question.Question) error {
	inBatch := make(map[string]struct{}, len(qs))
	for _, q := range qs {
		if q.ID == "" {
			return errors.New("question id cannot be empty")
		}
		if _, gone := b.deleted[q.ID]; gone {
			return errors.New("question id was previously deleted")
		}
		if _, dup := inBatch[q.ID]; dup {
			return errors.New("duplicate question id in batch")
		}
		if _, exists := b.Get(q.ID); exists {
			return errors.New("question id already exists")
		}
		inBatch[q.ID] = struct{}{}
	}
	b.questions = append(b.questions, qs...)
	return nil
}

// Delete soft-deletes a question: the id moves into the deleted set and
// the question leaves the active set. Deleting twice is a no-op.
func (b *Bank) Delete(id string) {
	b.deleted[id] = struct{}{}
	for i, q := range b.questions {
		if q.ID == id {
			b.questions = append(b.questions[:i], b.questions[i+1:]...)
			break
		}
	}
}

// Get returns the active question with the given id.
func (b *Bank) Get(id string) (question.Question, bool) {
	for _, q := range b.questions {
		if q.ID == id {
			return q, true
		}
	}
	return question.Question{}, false
}

// All returns a copy of the active question set.
func (b *Bank) All() []question.Question {
	out := make([]question.Question, len(b.questions))
	copy(out, b.questions)
	return out
}

// FilterByCategory returns the active questions in the given category.
func (b *Bank) FilterByCategory(cat question.Category) []question.Question {
	var out []question.Question
	for _, q := range b.questions {
		if q.ResolveCategory() == cat {
			out = append(out, q)
		}
	}
	return out
}

// Len returns the active question count.
func (b *Bank) Len() int {
	return len(b.questions)
}

// DeletedIDs returns the deleted-id set, sorted for stable persistence.
func (b *Bank) DeletedIDs() []string {
	return sortedIDs(b.deleted)
}

// ToggleStar flips the starred state of an id and returns the new state.
func (b *Bank) ToggleStar(id string) bool {
	if _, ok := b.starred[id]; ok {
		delete(b.starred, id)
		return false
	}
	b.starred[id] = struct{}{}
	return true
}

// IsStarred reports whether the id is starred.
func (b *Bank) IsStarred(id string) bool {
	_, ok := b.starred[id]
	return ok
}

// StarredIDs returns the starred-id set, sorted for stable persistence.
func (b *Bank) StarredIDs() []string {
	return sortedIDs(b.starred)
}

// Starred returns the active questions that are starred.
func (b *Bank) Starred() []question.Question {
	var out []question.Question
	for _, q := range b.questions {
		if b.IsStarred(q.ID) {
			out = append(out, q)
		}
	}
	return out
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

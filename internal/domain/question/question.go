package question

import "fmt"

// Category is the top-level subject grouping for a question.
type Category string

const (
	CategoryMath Category = "MATH" // data interpretation, quantitative and logical reasoning
	CategoryLang Category = "LANG" // reading comprehension, verbal logic
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryMath || c == CategoryLang
}

// AreaToCategory maps raw area codes from the bundled question set
// onto the two categories. Situational judgement ("C") counts as MATH.
var AreaToCategory = map[string]Category{
	"A": CategoryMath, // data interpretation
	"Q": CategoryMath, // quantitative reasoning
	"C": CategoryMath, // situational judgement
	"B": CategoryLang, // verbal logic
	"L": CategoryLang, // logic
	"T": CategoryLang, // critical thinking
}

// OptionCount is the number of answer options every question carries.
const OptionCount = 5

// Question is a single five-option multiple-choice item.
// Immutable once created; removal happens through the bank's soft delete.
type Question struct {
	ID          string   `json:"id"`
	Area        string   `json:"area,omitempty"`
	Category    Category `json:"category,omitempty"`
	Level       int      `json:"level"`
	Stem        string   `json:"stem"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Solution    string   `json:"solution,omitempty"`
	Refs        []string `json:"refs,omitempty"`
	IsAI        bool     `json:"isAI"`
	CreatedAt   int64    `json:"createdAt,omitempty"` // unix milliseconds
	Code        string   `json:"code,omitempty"`
}

// ResolveCategory returns the question's category, falling back to the
// area-code mapping and finally to MATH when neither is set.
func (q Question) ResolveCategory() Category {
	if q.Category.Valid() {
		return q.Category
	}
	if cat, ok := AreaToCategory[q.Area]; ok {
		return cat
	}
	return CategoryMath
}

// Validate checks the structural fields a question must carry to be
// usable. It is applied to every element parsed out of a generator
// response — an object is either a complete question or rejected.
func (q Question) Validate() error {
	if q.Stem == "" {
		return fmt.Errorf("question stem is empty")
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("expected %d options, got %d", OptionCount, len(q.Options))
	}
	for i, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("option %d is empty", i+1)
		}
	}
	if q.AnswerIndex < 0 || q.AnswerIndex >= OptionCount {
		return fmt.Errorf("answer index %d out of range [0,%d]", q.AnswerIndex, OptionCount-1)
	}
	if q.Level < 1 || q.Level > 3 {
		return fmt.Errorf("level %d out of range [1,3]", q.Level)
	}
	return nil
}

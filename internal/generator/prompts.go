package generator

import (
	"fmt"
	"math"
	"strings"

	"github.com/psatprep/backend/internal/domain/question"
)

// ============================================================================
// Prompt builders.
//
// The model is asked to answer with nothing but a JSON array matching
// the question wire shape; the schema block always comes last so it is
// the final thing the model sees.
// ============================================================================

const outputSchema = `Respond with ONLY a JSON array in exactly this shape — no explanation, no markdown fences:

[
  {
    "area": "%s",
    "category": "%s",
    "level": %d,
    "stem": "question text (use \n for line breaks)",
    "options": ["option 1", "option 2", "option 3", "option 4", "option 5"],
    "answerIndex": 0,
    "solution": "detailed explanation",
    "refs": ["related keyword"]
  }
]

Note: answerIndex is zero-based (0 = first option, 4 = fifth option).`

func categoryName(cat question.Category) string {
	if cat == question.CategoryLang {
		return "verbal reasoning"
	}
	return "quantitative reasoning"
}

func categoryGuide(cat question.Category) string {
	if cat == question.CategoryLang {
		return `[Verbal section — verbal logic / critical thinking]
- Identify the main point of a passage, draw inferences, analyze critically
- Analyze argument structure (premises and conclusion, logical fallacies)
- Track the structure and flow of a text
- Propositional logic and conditional inference
- Strengthen, weaken, and rebuttal arguments
- Place distractors that confuse closely related concepts`
	}
	return `[Quantitative section — data interpretation / numerical reasoning]
- Numerical analysis of tables, graphs, and charts
- Ratios, growth rates, averages, weighted values
- Inference with equations and inequalities
- Counting and probability
- Composite problems combining several given conditions
- Place traps that invite calculation mistakes`
}

func levelName(level int) string {
	switch level {
	case 1:
		return "basic"
	case 3:
		return "advanced"
	default:
		return "intermediate"
	}
}

// buildGeneratePrompt asks for count fresh questions at the given level.
func buildGeneratePrompt(category question.Category, level, count int) string {
	schema := fmt.Sprintf(outputSchema, defaultArea(category), category, level)

	return fmt.Sprintf(`You are an expert item writer for the PSAT (Public Service Aptitude Test), %s section.

Write exactly %d high-quality questions meeting these conditions.

[Conditions]
- Section: %s
- Difficulty: level %d (%s)
- Faithful to the style of real past PSAT questions
- Five options, one unambiguous answer

[Section guide]
%s

%s`,
		categoryName(category), count, categoryName(category),
		level, levelName(level), categoryGuide(category), schema)
}

// buildSimilarPrompt asks for questions shaped after the samples the
// user answered incorrectly.
func buildSimilarPrompt(samples []question.Question, category question.Category, count int) string {
	avgLevel := averageLevel(samples)
	refs := collectRefs(samples)
	refsLine := "general"
	if len(refs) > 0 {
		refsLine = strings.Join(refs, ", ")
	}

	var sampleTexts strings.Builder
	for i, q := range samples {
		fmt.Fprintf(&sampleTexts, "Example %d:\nQuestion: %s...\nType: %s\n\n",
			i+1, stemExcerpt(q.Stem, 200), refsOrGeneral(q.Refs))
	}

	area := samples[0].Area
	if area == "" {
		area = defaultArea(category)
	}
	schema := fmt.Sprintf(outputSchema, area, category, avgLevel)

	return fmt.Sprintf(`You are an expert item writer for the PSAT (Public Service Aptitude Test), %s section.

The user answered the questions below incorrectly. Write %d new questions of a similar type and difficulty.

[Questions the user missed]
%s
[Detected weakness pattern]
- Section: %s
- Average difficulty: level %d
- Related keywords: %s

[Writing guidelines]
1. Cover the same concepts and question types, varying only the numbers and the scenario
2. Keep the same trap elements, presented slightly differently
3. Hold the difficulty at level %d
4. Five options, one unambiguous answer

%s`,
		categoryName(category), count, sampleTexts.String(),
		categoryName(category), avgLevel, refsLine, avgLevel, schema)
}

// buildAnalyzePrompt asks the model to review user objections against
// their questions and judge whether each one warrants a correction.
func buildAnalyzePrompt(items []ReportedQuestion) string {
	var b strings.Builder
	b.WriteString("The following are user objections against PSAT practice questions. Review each one and judge whether the question needs a correction.\n")

	for i, item := range items {
		q := item.Question
		code := item.Report.QuestionCode
		if code == "" {
			code = item.Report.QuestionID
		}
		fmt.Fprintf(&b, `
[Objection %d]
Question code: %s
Question: %s...
Options: %s
Current answer: option %d
Solution: %s...
Objection: %s
`,
			i+1, code, stemExcerpt(q.Stem, 300), strings.Join(q.Options, " / "),
			q.AnswerIndex+1, stemExcerpt(q.Solution, 200), item.Report.Reason)
	}

	b.WriteString(`
For each objection:
1. Judge whether the objection is valid
2. If a correction is needed, propose it
3. If not, explain why the question stands`)

	return b.String()
}

func averageLevel(samples []question.Question) int {
	sum := 0
	for _, q := range samples {
		sum += q.Level
	}
	avg := int(math.Round(float64(sum) / float64(len(samples))))
	if avg < 1 {
		avg = 1
	}
	if avg > 3 {
		avg = 3
	}
	return avg
}

func collectRefs(samples []question.Question) []string {
	seen := make(map[string]struct{})
	var refs []string
	for _, q := range samples {
		for _, r := range q.Refs {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			refs = append(refs, r)
		}
	}
	return refs
}

func refsOrGeneral(refs []string) string {
	if len(refs) == 0 {
		return "general"
	}
	return strings.Join(refs, ", ")
}

// stemExcerpt truncates text to n runes for prompt embedding.
func stemExcerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
